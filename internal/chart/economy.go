package chart

import (
	"fmt"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// economy renders Puerto Rico's unemployment rate and GDP on a dual-axis
// line chart. Disasters from the event timeline that fall inside the
// observed year range are drawn as vertical mark lines, which is where the
// migration waves show up.
func (g *Generator) economy() (renderer, error) {
	tbl, err := g.load("economy", "puerto_rico_economic", "pr_economic_indicators.csv")
	if tbl == nil || err != nil {
		return nil, err
	}
	events, err := g.loadOptional("economy", "puerto_rico_disasters", "pr_disaster_timeline.csv")
	if err != nil {
		return nil, err
	}

	years := sortedYears(tbl)
	first, last := years[0], years[len(years)-1]

	byYear := make(map[int]struct{ unemp, gdp float64 }, tbl.Len())
	for i := 0; i < tbl.Len(); i++ {
		byYear[int(tbl.Row(i).Float("year"))] = struct{ unemp, gdp float64 }{
			unemp: tbl.Row(i).Float("unemployment_rate"),
			gdp:   tbl.Row(i).Float("gdp"),
		}
	}

	xs := make([]string, 0, len(years))
	unemp := make([]opts.LineData, 0, len(years))
	gdp := make([]opts.LineData, 0, len(years))
	for _, y := range years {
		xs = append(xs, strconv.Itoa(y))
		v := byYear[y]
		unemp = append(unemp, lineValue(v.unemp))
		gdp = append(gdp, lineValue(v.gdp))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Puerto Rico Economic Indicators",
			Width:     "1100px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Puerto Rico Economic Indicators",
			Subtitle: fmt.Sprintf("Unemployment and GDP, %d-%d, with major disasters marked", first, last),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Year"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Unemployment rate (%)"}),
	)
	line.ExtendYAxis(opts.YAxis{Name: "GDP (current US$)", Type: "value", Position: "right"})

	var marks []opts.MarkLineNameXAxisItem
	if events != nil {
		for i := 0; i < events.Len(); i++ {
			y := int(events.Row(i).Float("year"))
			if y < first || y > last {
				continue
			}
			marks = append(marks, opts.MarkLineNameXAxisItem{
				Name:  events.Get(i, "event_name"),
				XAxis: strconv.Itoa(y),
			})
		}
	}

	line.SetXAxis(xs)
	line.AddSeries("Unemployment rate", unemp,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithMarkLineNameXAxisItemOpts(marks...),
		charts.WithMarkLineStyleOpts(opts.MarkLineStyle{
			Symbol: []string{"none", "none"},
		}),
	)
	line.AddSeries("GDP", gdp,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), YAxisIndex: 1}),
	)
	return line, nil
}

func lineValue(v float64) opts.LineData {
	if math.IsNaN(v) {
		return opts.LineData{Value: nil}
	}
	return opts.LineData{Value: v}
}
