package dataset

import (
	"context"
	"time"

	"github.com/marin-lab/diaspora-cli/internal/table"
)

// Commuting syncs means of transportation to work from ACS table B08301I
// (Hispanic or Latino baseline).
type Commuting struct{}

func (d *Commuting) Name() string      { return "commuting" }
func (d *Commuting) OutputDir() string { return "census_acs5_commuting" }
func (d *Commuting) Cadence() Cadence  { return Annual }

func (d *Commuting) ShouldRun(now time.Time, lastSync *time.Time) bool {
	return AnnualAfter(now, lastSync, time.December)
}

func (d *Commuting) Fetch(ctx context.Context, deps Deps) (*FetchResult, error) {
	return fetchACS(ctx, deps, d, acsSpec{
		vars: []string{
			"B08301I_001E", // total workers 16 years and over
			"B08301I_003E", // car, truck, or van: drove alone
			"B08301I_004E", // car, truck, or van: carpooled
			"B08301I_010E", // public transportation (excluding taxicab)
			"B08301I_016E", // walked
			"B08301I_017E", // other means
			"B08301I_018E", // worked from home
		},
		derive: func(t *table.Table) {
			t.DeriveRate("drove_alone_rate", "B08301I_003E", "B08301I_001E")
			t.DeriveRate("carpooled_rate", "B08301I_004E", "B08301I_001E")
			t.DeriveRate("public_transit_rate", "B08301I_010E", "B08301I_001E")
			t.DeriveRate("walked_rate", "B08301I_016E", "B08301I_001E")
			t.DeriveRate("worked_from_home_rate", "B08301I_018E", "B08301I_001E")
		},
		rename: [][2]string{
			{"B08301I_001E", "total_workers"},
			{"B08301I_003E", "drove_alone"},
			{"B08301I_004E", "carpooled"},
			{"B08301I_010E", "public_transit"},
			{"B08301I_016E", "walked"},
			{"B08301I_017E", "other_means"},
			{"B08301I_018E", "worked_from_home"},
		},
	})
}
