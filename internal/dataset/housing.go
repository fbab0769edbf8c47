package dataset

import (
	"context"
	"time"
)

// Housing syncs median gross rent (B25064) and median home value (B25077)
// by state.
type Housing struct{}

func (d *Housing) Name() string      { return "housing" }
func (d *Housing) OutputDir() string { return "census_acs5_housing" }
func (d *Housing) Cadence() Cadence  { return Annual }

func (d *Housing) ShouldRun(now time.Time, lastSync *time.Time) bool {
	return AnnualAfter(now, lastSync, time.December)
}

func (d *Housing) Fetch(ctx context.Context, deps Deps) (*FetchResult, error) {
	return fetchACS(ctx, deps, d, acsSpec{
		vars: []string{"B25064_001E", "B25077_001E"},
		rename: [][2]string{
			{"B25064_001E", "median_gross_rent"},
			{"B25077_001E", "median_home_value"},
		},
	})
}
