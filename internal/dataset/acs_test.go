package dataset

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marin-lab/diaspora-cli/internal/census"
	"github.com/marin-lab/diaspora-cli/internal/config"
	"github.com/marin-lab/diaspora-cli/internal/fetcher"
	"github.com/marin-lab/diaspora-cli/internal/table"
)

// newACSDeps wires Deps against a fake Census API serving the given handler,
// with a single-year window and a temp data dir.
func newACSDeps(t *testing.T, year int, handler http.HandlerFunc) Deps {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second, MaxRetries: 1})
	cfg := &config.Config{}
	cfg.Census.StartYear = year
	cfg.Census.EndYear = year
	cfg.Fetch.DataDir = t.TempDir()
	cfg.Fetch.TempDir = t.TempDir()

	return Deps{
		Cfg:     cfg,
		Fetcher: f,
		Census:  census.New(f, srv.URL, ""),
	}
}

func TestPovertyFetch_DerivesRate(t *testing.T) {
	deps := newACSDeps(t, 2023, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "B17001_001E,B17001_002E")
		w.Write([]byte(`[["NAME","B17001_001E","B17001_002E","state"],
			["New York","19000000","2500000","36"],
			["Texas","29000000","0","48"]]`))
	})

	ds := &Poverty{}
	res, err := ds.Fetch(context.Background(), deps)
	require.NoError(t, err)
	require.Len(t, res.Outputs, 1)
	assert.Equal(t, 2023, res.Outputs[0].Year)
	assert.Equal(t, 2, res.Outputs[0].Rows)

	tbl, err := table.ReadCSV(res.Outputs[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "13.16", tbl.Get(0, "poverty_rate"))
	assert.Equal(t, "19000000", tbl.Get(0, "total_population"))
	assert.Equal(t, "2023", tbl.Get(0, "year"))
	assert.False(t, tbl.HasColumn("B17001_001E"), "raw codes are renamed")
}

func TestPRPopFetch_SkipsExistingYears(t *testing.T) {
	var calls int
	deps := newACSDeps(t, 2022, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`[["NAME","B03001_005E","state"],["Florida","1128225","12"]]`))
	})

	ds := &PRPop{}
	res, err := ds.Fetch(context.Background(), deps)
	require.NoError(t, err)
	require.Len(t, res.Outputs, 1)
	assert.Equal(t, 1, calls)

	// Second run finds the file and never hits the API.
	res, err = ds.Fetch(context.Background(), deps)
	require.NoError(t, err)
	assert.Empty(t, res.Outputs)
	assert.Equal(t, 1, calls)
}

func TestPRPopCountyFetch_KeyedByCounty(t *testing.T) {
	deps := newACSDeps(t, 2023, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "for=county:*")
		w.Write([]byte(`[["NAME","B03001_005E","state","county"],
			["Orange County, Florida","120000","12","095"],
			["Osceola County, Florida","110000","12","097"]]`))
	})

	ds := &PRPopCounty{}
	res, err := ds.Fetch(context.Background(), deps)
	require.NoError(t, err)
	require.Len(t, res.Outputs, 1)

	tbl, err := table.ReadCSV(res.Outputs[0].Path)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, "puerto_rican_population", tbl.Columns()[1])
}

func TestFetchACS_DuplicateGeography(t *testing.T) {
	deps := newACSDeps(t, 2023, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[["NAME","B03001_005E","state"],
			["Ohio","50000","39"],
			["Ohio again","50001","39"]]`))
	})

	ds := &PRPop{}
	_, err := ds.Fetch(context.Background(), deps)
	assert.ErrorContains(t, err, "duplicate geography")
}

func TestMobilityFetch_RatesFromDerivedColumn(t *testing.T) {
	deps := newACSDeps(t, 2021, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[["NAME","B07001_001E","B07001_002E","B07001_003E","B07001_004E","B07001_005E","B07001_006E","state"],
			["Connecticut","3500000","3000000","300000","100000","80000","20000","09"]]`))
	})

	ds := &Mobility{}
	res, err := ds.Fetch(context.Background(), deps)
	require.NoError(t, err)

	tbl, err := table.ReadCSV(res.Outputs[0].Path)
	require.NoError(t, err)
	// moved_total = 3.5M - 3.0M; rate = 500000/3500000.
	assert.Equal(t, "500000", tbl.Get(0, "moved_total"))
	assert.Equal(t, "14.29", tbl.Get(0, "migration_rate"))
	assert.Equal(t, "0.57", tbl.Get(0, "moved_from_abroad_rate"))
}

func TestOccupationFetch_TwoTablesPerYear(t *testing.T) {
	deps := newACSDeps(t, 2023, func(w http.ResponseWriter, r *http.Request) {
		get := r.URL.Query().Get("get")
		switch get {
		case "NAME,B24010_001E":
			w.Write([]byte(`[["NAME","B24010_001E","state"],["Ohio","5400000","39"]]`))
		case "NAME,B24030_001E":
			w.Write([]byte(`[["NAME","B24030_001E","state"],["Ohio","5400000","39"]]`))
		default:
			http.Error(w, fmt.Sprintf("unexpected get=%s", get), http.StatusBadRequest)
		}
	})

	ds := &Occupation{}
	res, err := ds.Fetch(context.Background(), deps)
	require.NoError(t, err)
	require.Len(t, res.Outputs, 2)

	occ := filepath.Join(deps.Cfg.Fetch.DataDir, ds.OutputDir(), "occupation_2023.csv")
	ind := filepath.Join(deps.Cfg.Fetch.DataDir, ds.OutputDir(), "industry_2023.csv")
	assert.FileExists(t, occ)
	assert.FileExists(t, ind)

	tbl, err := table.ReadCSV(occ)
	require.NoError(t, err)
	assert.Equal(t, "5400000", tbl.Get(0, "total_employed"))
}

func TestHispanicFetch_FourTablesPerYear(t *testing.T) {
	deps := newACSDeps(t, 2023, func(w http.ResponseWriter, r *http.Request) {
		get := r.URL.Query().Get("get")
		switch get {
		case "NAME,B17001I_001E,B17001I_002E":
			w.Write([]byte(`[["NAME","B17001I_001E","B17001I_002E","state"],["Ohio","400000","80000","39"]]`))
		case "NAME,B25064I_001E":
			w.Write([]byte(`[["NAME","B25064I_001E","state"],["Ohio","950","39"]]`))
		case "NAME,B25077I_001E":
			w.Write([]byte(`[["NAME","B25077I_001E","state"],["Ohio","180000","39"]]`))
		case "NAME,B27001I_001E,B27001I_003E,B27001I_009E":
			w.Write([]byte(`[["NAME","B27001I_001E","B27001I_003E","B27001I_009E","state"],["Ohio","400000","360000","40000","39"]]`))
		default:
			http.Error(w, "unexpected get="+get, http.StatusBadRequest)
		}
	})

	ds := &Hispanic{}
	res, err := ds.Fetch(context.Background(), deps)
	require.NoError(t, err)
	require.Len(t, res.Outputs, 4)

	tbl, err := table.ReadCSV(filepath.Join(deps.Cfg.Fetch.DataDir, ds.OutputDir(), "hispanic_poverty_2023.csv"))
	require.NoError(t, err)
	assert.Equal(t, "20.00", tbl.Get(0, "poverty_rate"))
}

func TestFetchACS_BadYearSkipped(t *testing.T) {
	deps := newACSDeps(t, 2022, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/2022/") {
			http.Error(w, "unknown vintage", http.StatusNotFound)
			return
		}
		w.Write([]byte(`[["NAME","B03001_005E","state"],["Florida","1150000","12"]]`))
	})
	deps.Cfg.Census.EndYear = 2023

	ds := &PRPop{}
	res, err := ds.Fetch(context.Background(), deps)
	require.NoError(t, err, "one bad year does not fail the dataset")
	require.Len(t, res.Outputs, 1)
	assert.Equal(t, 2023, res.Outputs[0].Year)
}

func TestFetchACS_UpstreamError(t *testing.T) {
	deps := newACSDeps(t, 2009, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	ds := &Housing{}
	_, err := ds.Fetch(context.Background(), deps)
	require.Error(t, err)

	// Nothing half-written on failure.
	entries, _ := os.ReadDir(filepath.Join(deps.Cfg.Fetch.DataDir, ds.OutputDir()))
	assert.Empty(t, entries)
}
