package dataset

import (
	"context"
	"time"

	"github.com/marin-lab/diaspora-cli/internal/table"
)

// Insurance syncs health insurance coverage from ACS table B27001I
// (Hispanic or Latino baseline).
type Insurance struct{}

func (d *Insurance) Name() string      { return "insurance" }
func (d *Insurance) OutputDir() string { return "census_acs5_health_insurance" }
func (d *Insurance) Cadence() Cadence  { return Annual }

func (d *Insurance) ShouldRun(now time.Time, lastSync *time.Time) bool {
	return AnnualAfter(now, lastSync, time.December)
}

func (d *Insurance) Fetch(ctx context.Context, deps Deps) (*FetchResult, error) {
	return fetchACS(ctx, deps, d, acsSpec{
		vars: []string{"B27001I_001E", "B27001I_003E", "B27001I_009E"},
		derive: func(t *table.Table) {
			t.DeriveRate("insurance_coverage_rate", "B27001I_003E", "B27001I_001E")
			t.DeriveRate("uninsured_rate", "B27001I_009E", "B27001I_001E")
		},
		rename: [][2]string{
			{"B27001I_001E", "total_population"},
			{"B27001I_003E", "with_insurance"},
			{"B27001I_009E", "without_insurance"},
		},
	})
}
