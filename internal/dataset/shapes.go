package dataset

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/marin-lab/diaspora-cli/internal/fetcher"
	"github.com/marin-lab/diaspora-cli/internal/geo"
	"github.com/marin-lab/diaspora-cli/internal/table"
)

// countyShapeURL is the Census cartographic boundary county shapefile,
// 1:500k scale.
const countyShapeURL = "https://www2.census.gov/geo/tiger/GENZ2023/shp/cb_2023_us_county_500k.zip"

// Shapes downloads the county boundary shapefile and reduces it to a
// centroid table the county scatter chart plots against. The archive's ETag
// is kept next to the output so forced re-syncs skip the multi-megabyte
// transfer when the boundaries have not changed upstream.
type Shapes struct {
	// URL overrides the boundary archive location; empty means the Census
	// cartographic boundary file.
	URL string
}

func (d *Shapes) Name() string      { return "shapes" }
func (d *Shapes) OutputDir() string { return "shapes" }
func (d *Shapes) Cadence() Cadence  { return Static }

func (d *Shapes) ShouldRun(now time.Time, lastSync *time.Time) bool {
	return Once(lastSync)
}

func (d *Shapes) url() string {
	if d.URL != "" {
		return d.URL
	}
	return countyShapeURL
}

func (d *Shapes) Fetch(ctx context.Context, deps Deps) (*FetchResult, error) {
	log := zap.L().With(zap.String("dataset", d.Name()))

	outDir := filepath.Join(deps.Cfg.Fetch.DataDir, d.OutputDir())
	dest := filepath.Join(outDir, "county_centroids.csv")
	etagPath := filepath.Join(outDir, "county_centroids.etag")

	etag := ""
	if _, err := os.Stat(dest); err == nil {
		if b, err := os.ReadFile(etagPath); err == nil {
			etag = strings.TrimSpace(string(b))
		}
	}

	body, newETag, changed, err := deps.Fetcher.DownloadIfChanged(ctx, d.url(), etag)
	if err != nil {
		return nil, eris.Wrap(err, "shapes: download county boundaries")
	}
	if !changed {
		log.Info("county boundaries unchanged upstream", zap.String("etag", etag))
		return &FetchResult{}, nil
	}
	defer body.Close() //nolint:errcheck

	zipPath := filepath.Join(deps.Cfg.Fetch.TempDir, filepath.Base(d.url()))
	n, err := writeStream(zipPath, body)
	if err != nil {
		return nil, eris.Wrap(err, "shapes: save boundary archive")
	}
	log.Info("county boundary archive downloaded", zap.Int64("bytes", n))

	// go-shp reads attributes from the .dbf next to the .shp; the rest of
	// the archive's sidecar files stay behind.
	extractDir := filepath.Join(deps.Cfg.Fetch.TempDir, "county_shapes")
	base := strings.TrimSuffix(filepath.Base(zipPath), ".zip")
	shpPath := ""
	for _, ext := range []string{".shp", ".dbf"} {
		p, err := fetcher.ExtractZIPFile(zipPath, base+ext, extractDir)
		if err != nil {
			return nil, eris.Wrap(err, "shapes: extract boundary archive")
		}
		if ext == ".shp" {
			shpPath = p
		}
	}

	tbl, err := CountyCentroids(shpPath)
	if err != nil {
		return nil, err
	}

	if err := tbl.WriteCSV(dest); err != nil {
		return nil, err
	}
	if newETag != "" {
		if err := os.WriteFile(etagPath, []byte(newETag), 0o644); err != nil {
			log.Warn("shapes: could not record etag", zap.Error(err))
		}
	}
	log.Info("county centroids written", zap.Int("counties", tbl.Len()))

	return &FetchResult{Outputs: []Output{{Path: dest, Rows: tbl.Len()}}}, nil
}

func writeStream(path string, r io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close() //nolint:errcheck
	return io.Copy(f, r)
}

// CountyCentroids parses a county boundary shapefile into a
// (GEOID, NAME, state, lon, lat) table.
func CountyCentroids(shpPath string) (*table.Table, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "shapes: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToUpper(name)] = i
	}
	attr := func(name string) (int, bool) {
		i, ok := fieldIdx[name]
		return i, ok
	}
	for _, required := range []string{"GEOID", "NAME", "STATEFP"} {
		if _, ok := attr(required); !ok {
			return nil, eris.Errorf("shapes: shapefile missing %s field", required)
		}
	}

	tbl := table.New("GEOID", "NAME", "state", "lon", "lat")
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		lon, lat, err := geo.Centroid(poly)
		if err != nil {
			skipped++
			continue
		}

		field := func(name string) string {
			i, _ := attr(name)
			return strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
		}
		tbl.AppendRow(
			field("GEOID"),
			field("NAME"),
			geo.NormalizeStateFIPS(field("STATEFP")),
			table.FormatNumber(lon, 6),
			table.FormatNumber(lat, 6),
		)
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrap(err, "shapes: read shapefile")
	}
	if skipped > 0 {
		zap.L().Debug("shapes: skipped records without usable geometry",
			zap.Int("skipped", skipped))
	}
	return tbl, nil
}
