// Package ipums implements the IPUMS USA microdata extract workflow:
// submit an extract, poll until complete, download the CSV data file, and
// aggregate person records into state-level statistics for the Puerto
// Rico-born population.
package ipums

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/marin-lab/diaspora-cli/internal/fetcher"
)

// Extract statuses reported by the IPUMS API.
const (
	StatusQueued    = "queued"
	StatusStarted   = "started"
	StatusProduced  = "produced"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ExtractRequest describes a microdata extract to submit.
type ExtractRequest struct {
	Description string
	Samples     []string // e.g. "us1980a"
	Variables   []string // e.g. "BPLD", "STATEFIP", "PERWT"
}

// Extract is the server's view of a submitted extract.
type Extract struct {
	Number int    `json:"number"`
	Status string `json:"status"`
}

// Client talks to the IPUMS API (v2) for the "usa" collection.
type Client struct {
	http    *http.Client
	f       fetcher.Fetcher
	baseURL string
	key     string
}

// New creates a Client. baseURL defaults to the public IPUMS API when empty.
func New(f fetcher.Fetcher, baseURL, key string) *Client {
	if baseURL == "" {
		baseURL = "https://api.ipums.org"
	}
	return &Client{
		http:    &http.Client{Timeout: 60 * time.Second},
		f:       f,
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
	}
}

// SubmitExtract submits a rectangular CSV extract and returns its number.
func (c *Client) SubmitExtract(ctx context.Context, req ExtractRequest) (*Extract, error) {
	if c.key == "" {
		return nil, eris.New("ipums: no API key configured (set ipums.key or DIASPORA_IPUMS_KEY)")
	}
	if len(req.Samples) == 0 || len(req.Variables) == 0 {
		return nil, eris.New("ipums: extract needs samples and variables")
	}

	samples := make(map[string]struct{}, len(req.Samples))
	for _, s := range req.Samples {
		samples[s] = struct{}{}
	}
	variables := make(map[string]struct{}, len(req.Variables))
	for _, v := range req.Variables {
		variables[v] = struct{}{}
	}

	payload := map[string]any{
		"description":   req.Description,
		"dataFormat":    "csv",
		"dataStructure": map[string]any{"rectangular": map[string]any{"on": "P"}},
		"samples":       samples,
		"variables":     variables,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "ipums: marshal extract")
	}

	var ext Extract
	if err := c.do(ctx, http.MethodPost, "/extracts?collection=usa&version=2", body, &ext); err != nil {
		return nil, err
	}

	zap.L().Info("ipums extract submitted",
		zap.Int("number", ext.Number),
		zap.Strings("samples", req.Samples),
	)
	return &ext, nil
}

type extractDetail struct {
	Number        int    `json:"number"`
	Status        string `json:"status"`
	DownloadLinks struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"downloadLinks"`
}

// ExtractStatus returns the current status of an extract.
func (c *Client) ExtractStatus(ctx context.Context, number int) (string, error) {
	var det extractDetail
	path := fmt.Sprintf("/extracts/%d?collection=usa&version=2", number)
	if err := c.do(ctx, http.MethodGet, path, nil, &det); err != nil {
		return "", err
	}
	return det.Status, nil
}

// WaitForCompletion polls the extract until it completes, fails, or the
// timeout elapses.
func (c *Client) WaitForCompletion(ctx context.Context, number int, poll, timeout time.Duration) error {
	log := zap.L().With(zap.Int("extract", number))
	deadline := time.Now().Add(timeout)

	for {
		status, err := c.ExtractStatus(ctx, number)
		if err != nil {
			return err
		}
		log.Debug("ipums extract status", zap.String("status", status))

		switch status {
		case StatusCompleted:
			return nil
		case StatusFailed:
			return eris.Errorf("ipums: extract %d failed", number)
		}

		if time.Now().After(deadline) {
			return eris.Errorf("ipums: extract %d not ready after %s", number, timeout)
		}

		t := time.NewTimer(poll)
		select {
		case <-ctx.Done():
			t.Stop()
			return eris.Wrap(ctx.Err(), "ipums: wait cancelled")
		case <-t.C:
		}
	}
}

// DownloadExtract downloads the extract's CSV data file to destPath.
func (c *Client) DownloadExtract(ctx context.Context, number int, destPath string) error {
	var det extractDetail
	path := fmt.Sprintf("/extracts/%d?collection=usa&version=2", number)
	if err := c.do(ctx, http.MethodGet, path, nil, &det); err != nil {
		return err
	}
	if det.Status != StatusCompleted {
		return eris.Errorf("ipums: extract %d not completed (status %s)", number, det.Status)
	}
	if det.DownloadLinks.Data.URL == "" {
		return eris.Errorf("ipums: extract %d has no data download link", number)
	}

	n, err := c.f.DownloadToFile(ctx, det.DownloadLinks.Data.URL, destPath)
	if err != nil {
		return eris.Wrapf(err, "ipums: download extract %d", number)
	}
	zap.L().Info("ipums extract downloaded",
		zap.Int("number", number),
		zap.String("path", destPath),
		zap.Int64("bytes", n),
	)
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return eris.Wrap(err, "ipums: create request")
	}
	req.Header.Set("Authorization", c.key)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrapf(err, "ipums: %s %s", method, path)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return eris.Errorf("ipums: %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return eris.Wrap(err, "ipums: decode response")
		}
	}
	return nil
}
