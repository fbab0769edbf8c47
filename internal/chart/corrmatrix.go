package chart

import (
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.uber.org/zap"

	"github.com/marin-lab/diaspora-cli/internal/stats"
)

// corrIndicator names a column in one of the fetched tables that feeds the
// correlation matrix. Tables that have not been fetched are left out.
type corrIndicator struct {
	label   string
	dir     string
	pattern string
	col     string
}

var corrIndicators = []corrIndicator{
	{"PR population", "census_acs5", "prpop_*.csv", "puerto_rican_population"},
	{"Poverty rate", "census_acs5_poverty", "poverty_*.csv", "poverty_rate"},
	{"Median rent", "census_acs5_housing", "housing_*.csv", "median_gross_rent"},
	{"Median home value", "census_acs5_housing", "housing_*.csv", "median_home_value"},
	{"Uninsured rate", "census_acs5_health_insurance", "insurance_*.csv", "uninsured_rate"},
	{"Migration rate", "census_acs5_migration", "mobility_*.csv", "migration_rate"},
}

// corrMatrix renders a heatmap of pairwise correlations between the
// state-level indicators, each taken at its latest fetched year.
func (g *Generator) corrMatrix() (renderer, error) {
	type series struct {
		label  string
		byFIPS map[string]float64
	}

	var loaded []series
	states := map[string]bool{}
	for _, ind := range corrIndicators {
		tbl, err := g.loadOptional("corrmatrix", ind.dir, ind.pattern)
		if err != nil {
			return nil, err
		}
		if tbl == nil || !tbl.HasColumn(ind.col) {
			continue
		}
		tbl = filterYear(tbl, latestYear(tbl))
		byFIPS := make(map[string]float64, tbl.Len())
		for i := 0; i < tbl.Len(); i++ {
			byFIPS[tbl.Get(i, "state")] = tbl.Row(i).Float(ind.col)
			states[tbl.Get(i, "state")] = true
		}
		loaded = append(loaded, series{label: ind.label, byFIPS: byFIPS})
	}
	if len(loaded) < 2 {
		g.log.Warn("chart input missing, skipping",
			zap.String("chart", "corrmatrix"),
			zap.Int("indicators", len(loaded)))
		return nil, nil
	}

	// One aligned vector per indicator, NaN where a state is missing.
	// Correlation drops NaN pairs per comparison.
	fips := make([]string, 0, len(states))
	for f := range states {
		fips = append(fips, f)
	}
	vectors := make([][]float64, len(loaded))
	for i, s := range loaded {
		vec := make([]float64, len(fips))
		for j, f := range fips {
			v, ok := s.byFIPS[f]
			if !ok {
				v = math.NaN()
			}
			vec[j] = v
		}
		vectors[i] = vec
	}

	labels := make([]string, len(loaded))
	for i, s := range loaded {
		labels[i] = s.label
	}

	data := make([]opts.HeatMapData, 0, len(loaded)*len(loaded))
	for i := range loaded {
		for j := range loaded {
			r := stats.Correlation(vectors[i], vectors[j])
			if math.IsNaN(r) {
				continue
			}
			data = append(data, opts.HeatMapData{
				Value: [3]interface{}{i, j, math.Round(r*100) / 100},
			})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Indicator Correlations",
			Width:     "900px",
			Height:    "700px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Indicator Correlations Across States",
			Subtitle: "Pearson correlation, latest fetched year of each indicator",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			Data:      labels,
			AxisLabel: &opts.AxisLabel{Show: opts.Bool(true), Rotate: 30},
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:      "category",
			Data:      labels,
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        -1,
			Max:        1,
			InRange: &opts.VisualMapInRange{
				Color: []string{"#c0392b", "#ffffff", "#2471a3"},
			},
		}),
	)
	hm.SetXAxis(labels)
	hm.AddSeries("correlation", data,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}))
	return hm, nil
}
