package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/marin-lab/diaspora-cli/internal/fred"
	"github.com/marin-lab/diaspora-cli/internal/table"
)

// Economy syncs Puerto Rico economic indicators from FRED: one CSV per
// series plus a combined wide table keyed by year.
type Economy struct{}

func (d *Economy) Name() string      { return "economy" }
func (d *Economy) OutputDir() string { return "puerto_rico_economic" }
func (d *Economy) Cadence() Cadence  { return Monthly }

func (d *Economy) ShouldRun(now time.Time, lastSync *time.Time) bool {
	return MonthlySchedule(now, lastSync)
}

// Target FRED series for Puerto Rico.
var fredTargetSeries = []struct {
	name string
	id   string
}{
	{"unemployment_rate", "PRURN"}, // unemployment rate, monthly, averaged to annual
	{"gdp", "NYGDPMKTPCDPRI"},      // GDP, annual, current US dollars
}

func (d *Economy) Fetch(ctx context.Context, deps Deps) (*FetchResult, error) {
	log := zap.L().With(zap.String("dataset", d.Name()))
	dir := filepath.Join(deps.Cfg.Fetch.DataDir, d.OutputDir())

	start := fmt.Sprintf("%d-01-01", deps.Cfg.Census.StartYear)
	end := fmt.Sprintf("%d-12-31", deps.Cfg.Census.EndYear)

	res := &FetchResult{}
	combined := make(map[int]map[string]float64)

	for _, series := range fredTargetSeries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		obs, err := deps.FRED.Observations(ctx, fred.ObservationsRequest{
			SeriesID:          series.id,
			Start:             start,
			End:               end,
			Frequency:         "a",
			AggregationMethod: "avg",
		})
		if err != nil {
			return nil, err
		}

		tbl := table.New("year", "value", "series_id")
		for _, o := range obs {
			tbl.AppendRow(strconv.Itoa(o.Year), table.FormatNumber(o.Value, 2), series.id)
			if combined[o.Year] == nil {
				combined[o.Year] = make(map[string]float64)
			}
			combined[o.Year][series.name] = o.Value
		}

		dest := filepath.Join(dir, series.name+".csv")
		if err := tbl.WriteCSV(dest); err != nil {
			return nil, err
		}
		log.Info("series fetched",
			zap.String("series", series.id),
			zap.Int("observations", tbl.Len()),
		)
		res.Outputs = append(res.Outputs, Output{Path: dest, Rows: tbl.Len()})
	}

	years := make([]int, 0, len(combined))
	for y := range combined {
		years = append(years, y)
	}
	sort.Ints(years)

	wide := table.New("year", "unemployment_rate", "gdp")
	for _, y := range years {
		wide.AppendRow(
			strconv.Itoa(y),
			formatIndicator(combined[y], "unemployment_rate"),
			formatIndicator(combined[y], "gdp"),
		)
	}
	dest := filepath.Join(dir, "pr_economic_indicators.csv")
	if err := wide.WriteCSV(dest); err != nil {
		return nil, err
	}
	res.Outputs = append(res.Outputs, Output{Path: dest, Rows: wide.Len()})

	return res, nil
}

func formatIndicator(vals map[string]float64, name string) string {
	v, ok := vals[name]
	if !ok {
		return ""
	}
	return table.FormatNumber(v, 2)
}
