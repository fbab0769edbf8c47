package dataset

import (
	"archive/zip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marin-lab/diaspora-cli/internal/config"
	"github.com/marin-lab/diaspora-cli/internal/fetcher"
	"github.com/marin-lab/diaspora-cli/internal/table"
)

// writeCountyShapefile builds a tiny county shapefile with one square
// county per entry.
func writeCountyShapefile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "counties.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	fields := []shp.Field{
		shp.StringField("GEOID", 5),
		shp.StringField("NAME", 32),
		shp.StringField("STATEFP", 2),
	}
	require.NoError(t, w.SetFields(fields))

	counties := []struct {
		geoid, name, statefp string
		x, y                 float64
	}{
		{"12095", "Orange", "12", -81.4, 28.5},
		{"36005", "Bronx", "36", -73.9, 40.8},
	}
	for i, c := range counties {
		square := &shp.Polygon{
			Box:       shp.Box{MinX: c.x, MinY: c.y, MaxX: c.x + 1, MaxY: c.y + 1},
			NumParts:  1,
			NumPoints: 5,
			Parts:     []int32{0},
			Points: []shp.Point{
				{X: c.x, Y: c.y},
				{X: c.x + 1, Y: c.y},
				{X: c.x + 1, Y: c.y + 1},
				{X: c.x, Y: c.y + 1},
				{X: c.x, Y: c.y},
			},
		}
		w.Write(square)
		require.NoError(t, w.WriteAttribute(i, 0, c.geoid))
		require.NoError(t, w.WriteAttribute(i, 1, c.name))
		require.NoError(t, w.WriteAttribute(i, 2, c.statefp))
	}
	w.Close()
	return path
}

func TestCountyCentroids(t *testing.T) {
	path := writeCountyShapefile(t, t.TempDir())

	tbl, err := CountyCentroids(path)
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())

	assert.Equal(t, "12095", tbl.Get(0, "GEOID"))
	assert.Equal(t, "Orange", tbl.Get(0, "NAME"))
	assert.Equal(t, "12", tbl.Get(0, "state"))

	// Centroid of the unit square around (-81.4, 28.5).
	assert.InDelta(t, -80.9, table.ParseFloat(tbl.Get(0, "lon")), 0.01)
	assert.InDelta(t, 29.0, table.ParseFloat(tbl.Get(0, "lat")), 0.01)
}

func TestCountyCentroids_MissingFile(t *testing.T) {
	_, err := CountyCentroids(filepath.Join(t.TempDir(), "nope.shp"))
	assert.Error(t, err)
}

// writeCountyArchive zips the shapefile and its attribute table the way the
// Census boundary downloads are packaged.
func writeCountyArchive(t *testing.T, dir string) string {
	t.Helper()
	writeCountyShapefile(t, dir)

	zipPath := filepath.Join(dir, "counties.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for _, name := range []string{"counties.shp", "counties.dbf", "counties.shx"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return zipPath
}

func TestShapesFetch_ETagSkipsUnchangedDownload(t *testing.T) {
	zipPath := writeCountyArchive(t, t.TempDir())

	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		data, err := os.ReadFile(zipPath)
		require.NoError(t, err)
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second, MaxRetries: 1})
	cfg := &config.Config{}
	cfg.Fetch.DataDir = t.TempDir()
	cfg.Fetch.TempDir = t.TempDir()
	deps := Deps{Cfg: cfg, Fetcher: f}

	ds := &Shapes{URL: srv.URL + "/counties.zip"}

	res, err := ds.Fetch(context.Background(), deps)
	require.NoError(t, err)
	require.Len(t, res.Outputs, 1)
	assert.Equal(t, 2, res.Outputs[0].Rows)

	tbl, err := table.ReadCSV(res.Outputs[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "12095", tbl.Get(0, "GEOID"))

	// The recorded ETag turns the next sync into a 304 with no outputs.
	res, err = ds.Fetch(context.Background(), deps)
	require.NoError(t, err)
	assert.Empty(t, res.Outputs)
	assert.Equal(t, 2, hits)
}
