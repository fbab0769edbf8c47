package ipums

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marin-lab/diaspora-cli/internal/fetcher"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second, MaxRetries: 1})
	return New(f, srv.URL, "testkey")
}

func TestSubmitExtract(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/extracts", r.URL.Path)
		assert.Equal(t, "usa", r.URL.Query().Get("collection"))
		assert.Equal(t, "testkey", r.Header.Get("Authorization"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "csv", payload["dataFormat"])
		samples, ok := payload["samples"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, samples, "us2019a")

		json.NewEncoder(w).Encode(Extract{Number: 42, Status: StatusQueued})
	}))

	ext, err := c.SubmitExtract(context.Background(), ExtractRequest{
		Description: "pr-born population",
		Samples:     []string{"us2019a"},
		Variables:   []string{"BPLD", "STATEFIP", "PERWT"},
	})
	require.NoError(t, err)
	assert.Equal(t, 42, ext.Number)
}

func TestSubmitExtract_NoKey(t *testing.T) {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: time.Second})
	c := New(f, "http://127.0.0.1:1", "")
	_, err := c.SubmitExtract(context.Background(), ExtractRequest{
		Samples:   []string{"us2019a"},
		Variables: []string{"BPLD"},
	})
	assert.ErrorContains(t, err, "API key")
}

func TestWaitForCompletion(t *testing.T) {
	var calls int
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		status := StatusStarted
		if calls >= 3 {
			status = StatusCompleted
		}
		fmt.Fprintf(w, `{"number":7,"status":%q}`, status)
	}))

	err := c.WaitForCompletion(context.Background(), 7, time.Millisecond, time.Second)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, calls, 3)
}

func TestWaitForCompletion_Failed(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"number":7,"status":%q}`, StatusFailed)
	}))

	err := c.WaitForCompletion(context.Background(), 7, time.Millisecond, time.Second)
	assert.ErrorContains(t, err, "failed")
}

func TestWaitForCompletion_Timeout(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"number":7,"status":%q}`, StatusQueued)
	}))

	err := c.WaitForCompletion(context.Background(), 7, time.Millisecond, 5*time.Millisecond)
	assert.ErrorContains(t, err, "not ready")
}

func TestDownloadExtract(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/extracts/9", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"number":9,"status":"completed","downloadLinks":{"data":{"url":%q}}}`,
			srv.URL+"/data/usa_00009.csv")
	})
	mux.HandleFunc("/data/usa_00009.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("YEAR,BPLD\n2019,11000\n"))
	})

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second, MaxRetries: 1})
	c := New(f, srv.URL, "testkey")

	dest := filepath.Join(t.TempDir(), "usa_00009.csv")
	require.NoError(t, c.DownloadExtract(context.Background(), 9, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "11000")
}

func TestDownloadExtract_NotReady(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"number":9,"status":"started"}`)
	}))

	err := c.DownloadExtract(context.Background(), 9, filepath.Join(t.TempDir(), "x.csv"))
	assert.ErrorContains(t, err, "not completed")
}
