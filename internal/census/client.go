// Package census implements a client for the Census Bureau ACS 5-year API.
//
// The API returns a JSON matrix whose first row is the column header, e.g.
//
//	[["NAME","B03001_005E","state"],
//	 ["New York","1103067","36"], ...]
//
// which is parsed into a table.Table keyed by geography.
package census

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/marin-lab/diaspora-cli/internal/fetcher"
	"github.com/marin-lab/diaspora-cli/internal/table"
)

// Client fetches ACS 5-year estimate tables.
type Client struct {
	f       fetcher.Fetcher
	baseURL string
	key     string
}

// New creates a Client. baseURL defaults to the public Census API when empty;
// key is optional (unauthenticated access is rate-limited but allowed).
func New(f fetcher.Fetcher, baseURL, key string) *Client {
	if baseURL == "" {
		baseURL = "https://api.census.gov/data"
	}
	return &Client{f: f, baseURL: strings.TrimRight(baseURL, "/"), key: key}
}

// StateTable fetches the given variables for every state (plus DC and
// Puerto Rico) for one ACS 5-year vintage.
func (c *Client) StateTable(ctx context.Context, year int, vars []string) (*table.Table, error) {
	return c.fetch(ctx, year, vars, "state:*")
}

// CountyTable fetches the given variables for every county.
func (c *Client) CountyTable(ctx context.Context, year int, vars []string) (*table.Table, error) {
	return c.fetch(ctx, year, vars, "county:*")
}

func (c *Client) fetch(ctx context.Context, year int, vars []string, geography string) (*table.Table, error) {
	if len(vars) == 0 {
		return nil, eris.New("census: no variables requested")
	}

	url := fmt.Sprintf("%s/%d/acs/acs5?get=NAME,%s&for=%s",
		c.baseURL, year, strings.Join(vars, ","), geography)
	if c.key != "" {
		url += "&key=" + c.key
	}

	body, err := c.f.Download(ctx, url)
	if err != nil {
		return nil, eris.Wrapf(err, "census: fetch %d %s", year, geography)
	}
	defer body.Close() //nolint:errcheck

	return ParseMatrix(body)
}

// ParseMatrix decodes the Census JSON matrix into a table. Null cells (the
// API's representation of suppressed values) become empty strings.
func ParseMatrix(r io.Reader) (*table.Table, error) {
	rows, errCh := fetcher.DecodeJSONArray[[]*string](context.Background(), r)

	var matrix [][]string
	for row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			if c != nil {
				cells[i] = *c
			}
		}
		matrix = append(matrix, cells)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "census: decode response")
	}
	if len(matrix) == 0 {
		return nil, eris.New("census: empty response")
	}

	return table.FromMatrix(matrix)
}
