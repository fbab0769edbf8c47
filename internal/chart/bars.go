package chart

import (
	"fmt"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/marin-lab/diaspora-cli/internal/table"
)

const topStateCount = 15

// povertyBars compares the poverty rate of the Puerto Rico born population
// against the Hispanic population, per state. The primary series comes from
// the IPUMS microdata aggregates; when no extract has been processed it
// falls back to the ACS table poverty rates. The Hispanic baseline is
// optional.
func (g *Generator) povertyBars() (renderer, error) {
	primary, err := g.loadOptional("poverty", "ipums", "poverty_*.csv")
	if err != nil {
		return nil, err
	}
	series := "Puerto Rico born"
	if primary == nil {
		primary, err = g.load("poverty", "census_acs5_poverty", "poverty_*.csv")
		if primary == nil || err != nil {
			return nil, err
		}
		series = "All residents"
	}

	baseline, err := g.loadOptional("poverty", "census_acs5_hispanic_comparison", "hispanic_poverty_*.csv")
	if err != nil {
		return nil, err
	}

	return g.stateBars(stateBarSpec{
		title:    "Poverty Rate by State",
		subtitle: "Share of persons below the poverty line",
		yAxis:    "Poverty rate (%)",
		page:     "Poverty Rate by State",
		series: []stateBarSeries{
			{name: series, tbl: primary, col: "poverty_rate", color: "#c0392b"},
			{name: "Hispanic population", tbl: baseline, col: "poverty_rate", color: "#f0b27a"},
		},
	})
}

// incomeBars charts median and mean personal income of the Puerto Rico born
// population from the IPUMS aggregates.
func (g *Generator) incomeBars() (renderer, error) {
	tbl, err := g.load("income", "ipums", "income_*.csv")
	if tbl == nil || err != nil {
		return nil, err
	}
	return g.stateBars(stateBarSpec{
		title:    "Income of the Puerto Rico Born Population",
		subtitle: "Personal income, persons 15 and older",
		yAxis:    "Income (US$)",
		page:     "Income by State",
		series: []stateBarSeries{
			{name: "Median income", tbl: tbl, col: "median_income", color: "#2471a3"},
			{name: "Mean income", tbl: tbl, col: "mean_income", color: "#85c1e9"},
		},
	})
}

// unemploymentBars charts unemployment and labor force participation of the
// Puerto Rico born population from the IPUMS aggregates.
func (g *Generator) unemploymentBars() (renderer, error) {
	tbl, err := g.load("unemployment", "ipums", "employment_*.csv")
	if tbl == nil || err != nil {
		return nil, err
	}
	return g.stateBars(stateBarSpec{
		title:    "Employment of the Puerto Rico Born Population",
		subtitle: "Persons 16 and older",
		yAxis:    "Rate (%)",
		page:     "Employment by State",
		series: []stateBarSeries{
			{name: "Unemployment rate", tbl: tbl, col: "unemployment_rate", color: "#b03a2e"},
			{name: "Labor force participation", tbl: tbl, col: "labor_force_participation", color: "#1e8449"},
		},
	})
}

type stateBarSeries struct {
	name  string
	tbl   *table.Table // nil series are dropped
	col   string
	color string
}

type stateBarSpec struct {
	title    string
	subtitle string
	yAxis    string
	page     string
	series   []stateBarSeries
}

// stateBars renders a by-state bar chart. States are ranked by the first
// series' latest-year value; later series align on the same states by FIPS.
func (g *Generator) stateBars(spec stateBarSpec) (renderer, error) {
	first := spec.series[0]
	latest := latestYear(first.tbl)
	ranked := filterYear(first.tbl, latest)
	ranked.SortNumeric(first.col, true)

	n := ranked.Len()
	if n > topStateCount {
		n = topStateCount
	}
	names := make([]string, 0, n)
	fips := make([]string, 0, n)
	for i := 0; i < n; i++ {
		names = append(names, ranked.Get(i, "NAME"))
		fips = append(fips, ranked.Get(i, "state"))
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: spec.page,
			Width:     "1100px",
			Height:    "620px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    spec.title,
			Subtitle: fmt.Sprintf("%s, %d", spec.subtitle, latest),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30"}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Show: opts.Bool(true), Rotate: 45},
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: spec.yAxis}),
		charts.WithGridOpts(opts.Grid{Bottom: "120"}),
	)
	bar.SetXAxis(names)

	for _, s := range spec.series {
		if s.tbl == nil {
			continue
		}
		byFIPS := make(map[string]float64)
		sub := filterYear(s.tbl, latestYear(s.tbl))
		for i := 0; i < sub.Len(); i++ {
			byFIPS[sub.Get(i, "state")] = sub.Row(i).Float(s.col)
		}
		data := make([]opts.BarData, 0, len(fips))
		for _, f := range fips {
			v, ok := byFIPS[f]
			if !ok || math.IsNaN(v) {
				data = append(data, opts.BarData{Value: nil})
				continue
			}
			data = append(data, opts.BarData{Value: v})
		}
		bar.AddSeries(s.name, data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: s.color}))
	}
	return bar, nil
}
