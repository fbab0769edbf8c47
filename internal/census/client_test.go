package census

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marin-lab/diaspora-cli/internal/fetcher"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second, MaxRetries: 1})
	return New(f, srv.URL, "")
}

func TestStateTable(t *testing.T) {
	var gotPath, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[["NAME","B03001_005E","state"],
			["New York","1103067","36"],
			["Florida","1128225","12"],
			["Puerto Rico",null,"72"]]`))
	})

	tbl, err := c.StateTable(context.Background(), 2023, []string{"B03001_005E"})
	require.NoError(t, err)

	assert.Equal(t, "/2023/acs/acs5", gotPath)
	assert.Contains(t, gotQuery, "get=NAME,B03001_005E")
	assert.Contains(t, gotQuery, "for=state:*")

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, "1103067", tbl.Get(0, "B03001_005E"))
	assert.Equal(t, "", tbl.Get(2, "B03001_005E"), "null cells become empty")
	assert.Empty(t, tbl.DuplicateKeys("state"))
}

func TestCountyTable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "for=county:*")
		w.Write([]byte(`[["NAME","B03001_005E","state","county"],
			["New York County, New York","120000","36","061"]]`))
	})

	tbl, err := c.CountyTable(context.Background(), 2022, []string{"B03001_005E"})
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, "061", tbl.Get(0, "county"))
}

func TestStateTable_KeyAppended(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sekrit", r.URL.Query().Get("key"))
		w.Write([]byte(`[["NAME","state"],["Ohio","39"]]`))
	}))
	t.Cleanup(srv.Close)

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second, MaxRetries: 1})
	c := New(f, srv.URL, "sekrit")
	_, err := c.StateTable(context.Background(), 2020, []string{"B01003_001E"})
	require.NoError(t, err)
}

func TestStateTable_MissingVintage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := c.StateTable(context.Background(), 2009, []string{"B03001_005E"})
	require.Error(t, err)
}

func TestStateTable_NoVariables(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := c.StateTable(context.Background(), 2023, nil)
	assert.Error(t, err)
}

func TestParseMatrix_Garbage(t *testing.T) {
	_, err := ParseMatrix(strings.NewReader(`{"not":"a matrix"}`))
	assert.Error(t, err)

	_, err = ParseMatrix(strings.NewReader(`[]`))
	assert.Error(t, err)
}
