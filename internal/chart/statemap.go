package chart

import (
	"fmt"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/marin-lab/diaspora-cli/internal/table"
)

// stateMap builds a USA choropleth of the Puerto Rican population with one
// legend entry per year. The legend is single-select so it works as a year
// picker; the latest year starts selected. Puerto Rico itself is excluded
// because its count dwarfs every state and flattens the color scale.
func (g *Generator) stateMap() (renderer, error) {
	tbl, err := g.load("statemap", "census_acs5", "prpop_*.csv")
	if tbl == nil || err != nil {
		return nil, err
	}
	tbl = tbl.Filter(func(r table.Row) bool {
		return r.Get("NAME") != "Puerto Rico"
	})

	years := sortedYears(tbl)
	if len(years) == 0 {
		return nil, nil
	}
	latest := years[len(years)-1]

	var maxPop float64
	for _, v := range tbl.Numeric("puerto_rican_population") {
		if v > maxPop {
			maxPop = v
		}
	}

	selected := make(map[string]bool, len(years))
	for _, y := range years {
		selected[strconv.Itoa(y)] = y == latest
	}

	m := charts.NewMap()
	m.RegisterMapType("USA")
	m.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Puerto Rican Population by State",
			Width:     "1200px",
			Height:    "700px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Puerto Rican Population by State",
			Subtitle: fmt.Sprintf("ACS 5-year estimates, %d-%d. Select a year in the legend.", years[0], latest),
			Left:     "center",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{
			Show:         opts.Bool(true),
			SelectedMode: "single",
			Selected:     selected,
			Orient:       "vertical",
			Left:         "left",
			Top:          "middle",
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxPop),
			InRange: &opts.VisualMapInRange{
				Color: []string{"#e0f3f8", "#abd9e9", "#74add1", "#4575b4", "#313695"},
			},
		}),
	)

	for _, y := range years {
		sub := filterYear(tbl, y)
		data := make([]opts.MapData, 0, sub.Len())
		for i := 0; i < sub.Len(); i++ {
			data = append(data, opts.MapData{
				Name:  sub.Get(i, "NAME"),
				Value: sub.Row(i).Float("puerto_rican_population"),
			})
		}
		m.AddSeries(strconv.Itoa(y), data)
	}
	return m, nil
}
