package chart

import (
	"fmt"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// topStates builds a line chart tracking the five largest Puerto Rican
// populations over time. Puerto Rico itself is included here so the island
// population can be compared against the diaspora.
func (g *Generator) topStates() (renderer, error) {
	tbl, err := g.load("top5", "census_acs5", "prpop_*.csv")
	if tbl == nil || err != nil {
		return nil, err
	}

	years := sortedYears(tbl)
	latest := years[len(years)-1]

	ranked := filterYear(tbl, latest)
	ranked.SortNumeric("puerto_rican_population", true)

	var statesideTotal float64
	for i := 0; i < ranked.Len(); i++ {
		if ranked.Get(i, "NAME") == "Puerto Rico" {
			continue
		}
		if v := ranked.Row(i).Float("puerto_rican_population"); !math.IsNaN(v) {
			statesideTotal += v
		}
	}

	n := ranked.Len()
	if n > 5 {
		n = 5
	}
	top := make([]string, 0, n)
	for i := 0; i < n; i++ {
		top = append(top, ranked.Get(i, "NAME"))
	}

	// (state, year) -> population
	byStateYear := make(map[string]map[int]float64)
	for i := 0; i < tbl.Len(); i++ {
		name := tbl.Get(i, "NAME")
		if byStateYear[name] == nil {
			byStateYear[name] = make(map[int]float64)
		}
		byStateYear[name][int(tbl.Row(i).Float("year"))] = tbl.Row(i).Float("puerto_rican_population")
	}

	xs := make([]string, 0, len(years))
	for _, y := range years {
		xs = append(xs, strconv.Itoa(y))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Largest Puerto Rican Populations Over Time",
			Width:     "1100px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Largest Puerto Rican Populations Over Time",
			Subtitle: fmt.Sprintf("Top %d geographies in %d, ACS 5-year estimates. Stateside total: %s.",
				n, latest, g.formatPop(statesideTotal)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Year"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Population"}),
	)

	line.SetXAxis(xs)
	for _, name := range top {
		data := make([]opts.LineData, 0, len(years))
		for _, y := range years {
			v, ok := byStateYear[name][y]
			if !ok || math.IsNaN(v) {
				data = append(data, opts.LineData{Value: nil})
				continue
			}
			data = append(data, opts.LineData{Value: v})
		}
		line.AddSeries(name, data,
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	}
	return line, nil
}
