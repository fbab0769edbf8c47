package dataset

import (
	"context"
	"time"

	"github.com/marin-lab/diaspora-cli/internal/table"
)

// Mobility syncs geographic mobility in the past year from ACS table B07001,
// a proxy for year-of-arrival data the ACS does not publish directly.
type Mobility struct{}

func (d *Mobility) Name() string      { return "mobility" }
func (d *Mobility) OutputDir() string { return "census_acs5_migration" }
func (d *Mobility) Cadence() Cadence  { return Annual }

func (d *Mobility) ShouldRun(now time.Time, lastSync *time.Time) bool {
	return AnnualAfter(now, lastSync, time.December)
}

func (d *Mobility) Fetch(ctx context.Context, deps Deps) (*FetchResult, error) {
	return fetchACS(ctx, deps, d, acsSpec{
		vars: []string{
			"B07001_001E", // total population 1 year and over
			"B07001_002E", // same house 1 year ago
			"B07001_003E", // moved within same county
			"B07001_004E", // moved from different county, same state
			"B07001_005E", // moved from different state
			"B07001_006E", // moved from abroad
		},
		derive: func(t *table.Table) {
			t.Derive("moved_total", 0, func(r table.Row) float64 {
				return r.Float("B07001_001E") - r.Float("B07001_002E")
			})
			t.DeriveRate("migration_rate", "moved_total", "B07001_001E")
			t.DeriveRate("moved_different_state_rate", "B07001_005E", "B07001_001E")
			t.DeriveRate("moved_from_abroad_rate", "B07001_006E", "B07001_001E")
		},
		rename: [][2]string{
			{"B07001_001E", "total_population"},
			{"B07001_002E", "same_house_1yr_ago"},
			{"B07001_003E", "moved_same_county"},
			{"B07001_004E", "moved_different_county_same_state"},
			{"B07001_005E", "moved_different_state"},
			{"B07001_006E", "moved_from_abroad"},
		},
	})
}
