package fetcher

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// DecodeJSONArray streams the elements of a top-level JSON array into a
// channel. Census responses are row-oriented arrays, so T is typically a
// slice type. Both channels are closed when decoding ends; the error
// channel carries at most one error.
func DecodeJSONArray[T any](ctx context.Context, r io.Reader) (<-chan T, <-chan error) {
	out := make(chan T, 64)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		dec := json.NewDecoder(r)

		tok, err := dec.Token()
		if err == io.EOF {
			return
		}
		if err != nil {
			errc <- eris.Wrap(err, "json: read opening token")
			return
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			errc <- eris.Errorf("json: expected '[', got %v", tok)
			return
		}

		for dec.More() {
			var item T
			if err := dec.Decode(&item); err != nil {
				errc <- eris.Wrap(err, "json: decode element")
				return
			}
			select {
			case out <- item:
			case <-ctx.Done():
				errc <- eris.Wrap(ctx.Err(), "json: decode cancelled")
				return
			}
		}

		if _, err := dec.Token(); err != nil && err != io.EOF {
			errc <- eris.Wrap(err, "json: read closing token")
		}
	}()

	return out, errc
}

// DecodeJSONObject decodes a single JSON object from a reader.
func DecodeJSONObject[T any](r io.Reader) (*T, error) {
	var obj T
	if err := json.NewDecoder(r).Decode(&obj); err != nil {
		return nil, eris.Wrap(err, "json: decode object")
	}
	return &obj, nil
}
