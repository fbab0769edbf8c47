package fetcher

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ExtractZIP extracts every entry of the archive into destDir and returns
// the extracted file paths in archive order.
func ExtractZIP(zipPath, destDir string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrapf(err, "zip: open %s", zipPath)
	}
	defer r.Close() //nolint:errcheck

	var paths []string
	for _, f := range r.File {
		path, err := writeZIPEntry(f, destDir)
		if err != nil {
			return paths, err
		}
		if path != "" {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// ExtractZIPFile extracts the named entry from the archive. Boundary
// shapefile archives bundle a dozen sidecar files; callers pull out only
// the members they read.
func ExtractZIPFile(zipPath, fileName, destDir string) (string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", eris.Wrapf(err, "zip: open %s", zipPath)
	}
	defer r.Close() //nolint:errcheck

	for _, f := range r.File {
		if f.Name == fileName {
			return writeZIPEntry(f, destDir)
		}
	}
	return "", eris.Errorf("zip: no entry %q in %s", fileName, filepath.Base(zipPath))
}

// writeZIPEntry writes one archive entry under destDir, creating parent
// directories as needed. Returns "" for directory entries. Entry names
// that resolve outside destDir are rejected.
func writeZIPEntry(f *zip.File, destDir string) (string, error) {
	dest := filepath.Join(destDir, f.Name)
	rel, err := filepath.Rel(destDir, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", eris.Errorf("zip: entry %q escapes destination", f.Name)
	}

	if f.FileInfo().IsDir() {
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return "", eris.Wrap(err, "zip: create directory")
		}
		return "", nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", eris.Wrap(err, "zip: create parent directory")
	}

	rc, err := f.Open()
	if err != nil {
		return "", eris.Wrapf(err, "zip: open entry %q", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(dest)
	if err != nil {
		return "", eris.Wrap(err, "zip: create file")
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, rc); err != nil {
		return "", eris.Wrapf(err, "zip: write %q", f.Name)
	}
	return dest, nil
}
