package dataset

import (
	"context"
	"time"
)

// PRPop syncs the Puerto Rican population by state from ACS table B03001
// (Hispanic or Latino Origin by Specific Origin).
type PRPop struct{}

func (d *PRPop) Name() string      { return "prpop" }
func (d *PRPop) OutputDir() string { return "census_acs5" }
func (d *PRPop) Cadence() Cadence  { return Annual }

func (d *PRPop) ShouldRun(now time.Time, lastSync *time.Time) bool {
	// New ACS 5-year vintages land in December.
	return AnnualAfter(now, lastSync, time.December)
}

func (d *PRPop) Fetch(ctx context.Context, deps Deps) (*FetchResult, error) {
	return fetchACS(ctx, deps, d, acsSpec{
		vars: []string{"B03001_005E"},
		rename: [][2]string{
			{"B03001_005E", "puerto_rican_population"},
		},
	})
}
