package fetcher

import (
	"context"
	"io"
)

// Fetcher retrieves remote resources. Implementations handle rate limiting
// and retries; callers see only the final outcome.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL into path and returns the bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)

	// DownloadIfChanged fetches the URL with an If-None-Match conditional.
	// Returns (body, newETag, changed, error); when the remote content still
	// matches etag, body is nil and changed is false.
	DownloadIfChanged(ctx context.Context, url string, etag string) (io.ReadCloser, string, bool, error)
}
