package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marin-lab/diaspora-cli/internal/config"
	"github.com/marin-lab/diaspora-cli/internal/fetcher"
	"github.com/marin-lab/diaspora-cli/internal/fred"
	"github.com/marin-lab/diaspora-cli/internal/table"
)

func TestEconomyFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "a", q.Get("frequency"))
		assert.Equal(t, "avg", q.Get("aggregation_method"))
		assert.Equal(t, "2010-01-01", q.Get("observation_start"))

		switch q.Get("series_id") {
		case "PRURN":
			w.Write([]byte(`{"observations":[
				{"date":"2010-01-01","value":"16.4"},
				{"date":"2011-01-01","value":"15.9"}]}`))
		case "NYGDPMKTPCDPRI":
			w.Write([]byte(`{"observations":[
				{"date":"2010-01-01","value":"98381000000"},
				{"date":"2011-01-01","value":"."}]}`))
		default:
			http.Error(w, "unknown series", http.StatusBadRequest)
		}
	}))
	t.Cleanup(srv.Close)

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second, MaxRetries: 1})
	cfg := &config.Config{}
	cfg.Census.StartYear = 2010
	cfg.Census.EndYear = 2011
	cfg.Fetch.DataDir = t.TempDir()

	deps := Deps{
		Cfg:     cfg,
		Fetcher: f,
		FRED:    fred.New(f, srv.URL, "testkey"),
	}

	ds := &Economy{}
	res, err := ds.Fetch(context.Background(), deps)
	require.NoError(t, err)
	require.Len(t, res.Outputs, 3, "two series plus the combined table")

	dir := filepath.Join(cfg.Fetch.DataDir, ds.OutputDir())

	unemp, err := table.ReadCSV(filepath.Join(dir, "unemployment_rate.csv"))
	require.NoError(t, err)
	assert.Equal(t, 2, unemp.Len())
	assert.Equal(t, "16.40", unemp.Get(0, "value"))
	assert.Equal(t, "PRURN", unemp.Get(0, "series_id"))

	// The 2011 GDP observation is "." and is dropped.
	gdp, err := table.ReadCSV(filepath.Join(dir, "gdp.csv"))
	require.NoError(t, err)
	assert.Equal(t, 1, gdp.Len())

	wide, err := table.ReadCSV(filepath.Join(dir, "pr_economic_indicators.csv"))
	require.NoError(t, err)
	require.Equal(t, 2, wide.Len())
	assert.Equal(t, "2010", wide.Get(0, "year"))
	assert.Equal(t, "16.40", wide.Get(0, "unemployment_rate"))
	assert.Equal(t, "98381000000.00", wide.Get(0, "gdp"))
	assert.Equal(t, "", wide.Get(1, "gdp"), "missing indicator stays empty")
}

func TestEconomyFetch_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second, MaxRetries: 1})
	cfg := &config.Config{}
	cfg.Fetch.DataDir = t.TempDir()

	ds := &Economy{}
	_, err := ds.Fetch(context.Background(), Deps{Cfg: cfg, FRED: fred.New(f, srv.URL, "bad")})
	assert.Error(t, err)
}
