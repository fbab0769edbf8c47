package dataset

import (
	"context"
	"time"

	"github.com/marin-lab/diaspora-cli/internal/table"
)

// Poverty syncs poverty status by state from ACS table B17001
// (Poverty Status in the Past 12 Months by Sex by Age).
type Poverty struct{}

func (d *Poverty) Name() string      { return "poverty" }
func (d *Poverty) OutputDir() string { return "census_acs5_poverty" }
func (d *Poverty) Cadence() Cadence  { return Annual }

func (d *Poverty) ShouldRun(now time.Time, lastSync *time.Time) bool {
	return AnnualAfter(now, lastSync, time.December)
}

func (d *Poverty) Fetch(ctx context.Context, deps Deps) (*FetchResult, error) {
	return fetchACS(ctx, deps, d, acsSpec{
		vars: []string{"B17001_001E", "B17001_002E"},
		derive: func(t *table.Table) {
			t.DeriveRate("poverty_rate", "B17001_002E", "B17001_001E")
		},
		rename: [][2]string{
			{"B17001_001E", "total_population"},
			{"B17001_002E", "below_poverty_level"},
		},
	})
}
