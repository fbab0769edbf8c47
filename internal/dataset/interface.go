// Package dataset defines the datasets the fetch pipeline knows how to
// sync, a registry with deterministic ordering, and the engine that runs
// them against the sync log.
package dataset

import (
	"context"
	"time"

	"github.com/marin-lab/diaspora-cli/internal/census"
	"github.com/marin-lab/diaspora-cli/internal/config"
	"github.com/marin-lab/diaspora-cli/internal/fetcher"
	"github.com/marin-lab/diaspora-cli/internal/fred"
	"github.com/marin-lab/diaspora-cli/internal/store"
)

// Cadence describes how often a dataset should be synced.
type Cadence string

const (
	Monthly Cadence = "monthly"
	Annual  Cadence = "annual"
	Static  Cadence = "static"
)

// Deps bundles the shared clients a dataset fetch may use.
type Deps struct {
	Cfg     *config.Config
	Fetcher fetcher.Fetcher
	Census  *census.Client
	FRED    *fred.Client
	Store   store.Store
}

// Output is one file a fetch produced.
type Output struct {
	Year int
	Path string
	Rows int
}

// FetchResult holds the outcome of a dataset fetch.
type FetchResult struct {
	Outputs []Output
}

// Rows returns the total row count across all outputs.
func (r *FetchResult) Rows() int {
	var n int
	for _, o := range r.Outputs {
		n += o.Rows
	}
	return n
}

// Dataset defines the interface each dataset must implement.
type Dataset interface {
	// Name returns the unique identifier for this dataset (e.g., "prpop").
	Name() string

	// OutputDir returns the subdirectory under the data dir that holds
	// this dataset's CSVs.
	OutputDir() string

	// Cadence returns how often this dataset is updated upstream.
	Cadence() Cadence

	// ShouldRun decides if this dataset needs syncing given the current time
	// and the time of the last successful sync (nil if never synced).
	ShouldRun(now time.Time, lastSync *time.Time) bool

	// Fetch downloads, derives, and writes this dataset's CSV outputs.
	Fetch(ctx context.Context, deps Deps) (*FetchResult, error)
}
