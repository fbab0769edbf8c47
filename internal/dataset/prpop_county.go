package dataset

import (
	"context"
	"time"
)

// PRPopCounty syncs the Puerto Rican population at county geography,
// the input for the county-level charts.
type PRPopCounty struct{}

func (d *PRPopCounty) Name() string      { return "prpop_county" }
func (d *PRPopCounty) OutputDir() string { return "census_acs5_county" }
func (d *PRPopCounty) Cadence() Cadence  { return Annual }

func (d *PRPopCounty) ShouldRun(now time.Time, lastSync *time.Time) bool {
	return AnnualAfter(now, lastSync, time.December)
}

func (d *PRPopCounty) Fetch(ctx context.Context, deps Deps) (*FetchResult, error) {
	return fetchACS(ctx, deps, d, acsSpec{
		vars:   []string{"B03001_005E"},
		county: true,
		rename: [][2]string{
			{"B03001_005E", "puerto_rican_population"},
		},
	})
}
