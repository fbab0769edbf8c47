// Package fred implements a minimal client for the St. Louis Fed FRED
// series observations endpoint.
package fred

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/marin-lab/diaspora-cli/internal/fetcher"
)

// Observation is a single dated value of a FRED series.
type Observation struct {
	Date  time.Time
	Year  int
	Value float64
}

// ObservationsRequest describes a series query.
type ObservationsRequest struct {
	SeriesID          string
	Start             string // YYYY-MM-DD, optional
	End               string // YYYY-MM-DD, optional
	Frequency         string // e.g. "a" for annual, optional
	AggregationMethod string // e.g. "avg", only meaningful with Frequency
}

// Client fetches FRED series observations.
type Client struct {
	f       fetcher.Fetcher
	baseURL string
	key     string
}

// New creates a Client. baseURL defaults to the public FRED API when empty.
func New(f fetcher.Fetcher, baseURL, key string) *Client {
	if baseURL == "" {
		baseURL = "https://api.stlouisfed.org"
	}
	return &Client{f: f, baseURL: strings.TrimRight(baseURL, "/"), key: key}
}

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// Observations fetches a series. Observations FRED marks missing (value ".")
// are dropped rather than returned as zeros.
func (c *Client) Observations(ctx context.Context, req ObservationsRequest) ([]Observation, error) {
	if req.SeriesID == "" {
		return nil, eris.New("fred: no series_id")
	}

	q := url.Values{}
	q.Set("series_id", req.SeriesID)
	q.Set("api_key", c.key)
	q.Set("file_type", "json")
	if req.Start != "" {
		q.Set("observation_start", req.Start)
	}
	if req.End != "" {
		q.Set("observation_end", req.End)
	}
	if req.Frequency != "" {
		q.Set("frequency", req.Frequency)
		if req.AggregationMethod != "" {
			q.Set("aggregation_method", req.AggregationMethod)
		}
	}

	u := fmt.Sprintf("%s/fred/series/observations?%s", c.baseURL, q.Encode())

	body, err := c.f.Download(ctx, u)
	if err != nil {
		return nil, eris.Wrapf(err, "fred: fetch %s", req.SeriesID)
	}
	defer body.Close() //nolint:errcheck

	resp, err := fetcher.DecodeJSONObject[observationsResponse](body)
	if err != nil {
		return nil, eris.Wrapf(err, "fred: decode %s", req.SeriesID)
	}

	obs := make([]Observation, 0, len(resp.Observations))
	for _, o := range resp.Observations {
		if o.Value == "." {
			continue
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			continue
		}
		d, err := time.Parse("2006-01-02", o.Date)
		if err != nil {
			continue
		}
		obs = append(obs, Observation{Date: d, Year: d.Year(), Value: v})
	}
	return obs, nil
}
