package dataset

import (
	"context"
	"path/filepath"
	"time"

	"github.com/marin-lab/diaspora-cli/internal/table"
)

// Timeline writes the curated Puerto Rico disaster and crisis timeline used
// for chart event markers. The entries are compiled from NOAA, FEMA, and
// news coverage rather than fetched from an API.
type Timeline struct{}

func (d *Timeline) Name() string      { return "timeline" }
func (d *Timeline) OutputDir() string { return "puerto_rico_disasters" }
func (d *Timeline) Cadence() Cadence  { return Static }

func (d *Timeline) ShouldRun(now time.Time, lastSync *time.Time) bool {
	return Once(lastSync)
}

type disasterEvent struct {
	name            string
	date            string
	year            int
	category        string
	severity        string
	migrationImpact string
	notes           string
}

var disasterTimeline = []disasterEvent{
	{
		name: "Hurricane Maria", date: "2017-09-20", year: 2017,
		category: "Hurricane", severity: "Category 5", migrationImpact: "Very High",
		notes: "Most destructive hurricane in modern Puerto Rico history. Massive migration spike to mainland.",
	},
	{
		name: "Hurricane Irma", date: "2017-09-06", year: 2017,
		category: "Hurricane", severity: "Category 5", migrationImpact: "Medium",
		notes: "Hit just before Maria. Primarily affected northern coast.",
	},
	{
		name: "Hurricane Fiona", date: "2022-09-18", year: 2022,
		category: "Hurricane", severity: "Category 1", migrationImpact: "Medium",
		notes: "Caused island-wide power outage. Significant flooding.",
	},
	{
		name: "Hurricane Georges", date: "1998-09-21", year: 1998,
		category: "Hurricane", severity: "Category 3", migrationImpact: "High",
		notes: "Major damage across the island. Significant migration impact.",
	},
	{
		name: "Hurricane Hugo", date: "1989-09-18", year: 1989,
		category: "Hurricane", severity: "Category 3", migrationImpact: "Medium",
		notes: "Severe damage to infrastructure and agriculture.",
	},
	{
		name: "Puerto Rico Economic Crisis", date: "2006-01-01", year: 2006,
		category: "Economic", severity: "Crisis", migrationImpact: "Very High",
		notes: "Beginning of economic recession. Peak unemployment in 2010-2012.",
	},
	{
		name: "Puerto Rico Debt Crisis", date: "2014-01-01", year: 2014,
		category: "Economic", severity: "Crisis", migrationImpact: "Very High",
		notes: "Debt default, austerity measures, government services cut. Accelerated migration.",
	},
	{
		name: "2020 Earthquakes", date: "2020-01-07", year: 2020,
		category: "Earthquake", severity: "Magnitude 6.4", migrationImpact: "Low",
		notes: "Series of earthquakes in January 2020, largest M6.4. Power outages.",
	},
}

func (d *Timeline) Fetch(ctx context.Context, deps Deps) (*FetchResult, error) {
	tbl := table.New("event_name", "date", "year", "category", "severity",
		"migration_impact", "notes")
	for _, ev := range disasterTimeline {
		tbl.AppendRow(ev.name, ev.date, table.FormatNumber(float64(ev.year), 0),
			ev.category, ev.severity, ev.migrationImpact, ev.notes)
	}

	dest := filepath.Join(deps.Cfg.Fetch.DataDir, d.OutputDir(), "pr_disaster_timeline.csv")
	if err := tbl.WriteCSV(dest); err != nil {
		return nil, err
	}
	return &FetchResult{Outputs: []Output{{Path: dest, Rows: tbl.Len()}}}, nil
}
