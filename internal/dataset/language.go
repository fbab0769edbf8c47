package dataset

import (
	"context"
	"time"

	"github.com/marin-lab/diaspora-cli/internal/table"
)

// Language syncs language spoken at home by English ability from ACS table
// B16001I (Hispanic or Latino baseline).
type Language struct{}

func (d *Language) Name() string      { return "language" }
func (d *Language) OutputDir() string { return "census_acs5_language" }
func (d *Language) Cadence() Cadence  { return Annual }

func (d *Language) ShouldRun(now time.Time, lastSync *time.Time) bool {
	return AnnualAfter(now, lastSync, time.December)
}

func (d *Language) Fetch(ctx context.Context, deps Deps) (*FetchResult, error) {
	return fetchACS(ctx, deps, d, acsSpec{
		vars: []string{
			"B16001I_001E", // total population 5 years and over
			"B16001I_002E", // speaks only English
			"B16001I_003E", // Spanish, speaks English "very well"
			"B16001I_004E", // Spanish, speaks English "well"
			"B16001I_005E", // Spanish, speaks English "not well"
			"B16001I_006E", // Spanish, speaks English "not at all"
		},
		derive: func(t *table.Table) {
			t.Derive("speaks_spanish", 0, func(r table.Row) float64 {
				return r.Float("B16001I_003E") + r.Float("B16001I_004E") +
					r.Float("B16001I_005E") + r.Float("B16001I_006E")
			})
			t.Derive("limited_english_proficiency", 0, func(r table.Row) float64 {
				return r.Float("B16001I_005E") + r.Float("B16001I_006E")
			})
			t.DeriveRate("english_only_rate", "B16001I_002E", "B16001I_001E")
			t.DeriveRate("spanish_speaking_rate", "speaks_spanish", "B16001I_001E")
			t.DeriveRate("limited_english_rate", "limited_english_proficiency", "B16001I_001E")
		},
		rename: [][2]string{
			{"B16001I_001E", "total_population_5plus"},
			{"B16001I_002E", "speaks_english_only"},
			{"B16001I_003E", "spanish_english_very_well"},
			{"B16001I_004E", "spanish_english_well"},
			{"B16001I_005E", "spanish_english_not_well"},
			{"B16001I_006E", "spanish_english_not_at_all"},
		},
	})
}
