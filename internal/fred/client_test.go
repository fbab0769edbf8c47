package fred

import (
	"context"
	"net/http"
	"net/http/httptest"
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
	return New(f, srv.URL, "testkey")
}

func TestObservations(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fred/series/observations", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "PRURN", q.Get("series_id"))
		assert.Equal(t, "testkey", q.Get("api_key"))
		assert.Equal(t, "json", q.Get("file_type"))
		assert.Equal(t, "a", q.Get("frequency"))
		assert.Equal(t, "avg", q.Get("aggregation_method"))

		w.Write([]byte(`{"observations":[
			{"date":"2010-01-01","value":"16.4"},
			{"date":"2011-01-01","value":"."},
			{"date":"2012-01-01","value":"14.5"}]}`))
	})

	obs, err := c.Observations(context.Background(), ObservationsRequest{
		SeriesID:          "PRURN",
		Start:             "2010-01-01",
		Frequency:         "a",
		AggregationMethod: "avg",
	})
	require.NoError(t, err)

	// The "." missing marker is dropped, not zeroed.
	require.Len(t, obs, 2)
	assert.Equal(t, 2010, obs[0].Year)
	assert.InDelta(t, 16.4, obs[0].Value, 1e-9)
	assert.Equal(t, 2012, obs[1].Year)
	assert.InDelta(t, 14.5, obs[1].Value, 1e-9)
}

func TestObservations_Empty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"observations":[]}`))
	})

	obs, err := c.Observations(context.Background(), ObservationsRequest{SeriesID: "NOPE"})
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestObservations_NoSeries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := c.Observations(context.Background(), ObservationsRequest{})
	assert.Error(t, err)
}

func TestObservations_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	_, err := c.Observations(context.Background(), ObservationsRequest{SeriesID: "PRURN"})
	assert.Error(t, err)
}
