package chart

import (
	"fmt"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"go.uber.org/zap"

	"github.com/marin-lab/diaspora-cli/internal/geo"
)

const topCountyCount = 25

// countyTrend builds a bar chart of the counties with the largest Puerto
// Rican populations, one legend entry per year with single-select so the
// legend doubles as a year picker. The county axis is fixed to the latest
// year's ranking so bars stay comparable across years.
func (g *Generator) countyTrend() (renderer, error) {
	tbl, err := g.load("countytrend", "census_acs5_county", "prpop_county_*.csv")
	if tbl == nil || err != nil {
		return nil, err
	}

	years := sortedYears(tbl)
	latest := years[len(years)-1]

	ranked := filterYear(tbl, latest)
	ranked.SortNumeric("puerto_rican_population", true)
	n := ranked.Len()
	if n > topCountyCount {
		n = topCountyCount
	}

	labels := make([]string, 0, n)
	geoids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		labels = append(labels, shortCountyName(ranked.Get(i, "NAME")))
		geoids = append(geoids, geo.CombineFIPS(ranked.Get(i, "state"), ranked.Get(i, "county")))
	}

	// (geoid, year) -> population
	byCountyYear := make(map[string]map[int]float64)
	for i := 0; i < tbl.Len(); i++ {
		id := geo.CombineFIPS(tbl.Get(i, "state"), tbl.Get(i, "county"))
		if byCountyYear[id] == nil {
			byCountyYear[id] = make(map[int]float64)
		}
		byCountyYear[id][int(tbl.Row(i).Float("year"))] = tbl.Row(i).Float("puerto_rican_population")
	}

	selected := make(map[string]bool, len(years))
	for _, y := range years {
		selected[strconv.Itoa(y)] = y == latest
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Top Counties by Puerto Rican Population",
			Width:     "1300px",
			Height:    "700px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Top Counties by Puerto Rican Population",
			Subtitle: fmt.Sprintf("Top %d counties ranked by the %d estimate. Select a year in the legend.", n, latest),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{
			Show:         opts.Bool(true),
			SelectedMode: "single",
			Selected:     selected,
			Top:          "30",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Show: opts.Bool(true), Rotate: 45},
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Population"}),
		charts.WithGridOpts(opts.Grid{Bottom: "160"}),
	)

	bar.SetXAxis(labels)
	for _, y := range years {
		data := make([]opts.BarData, 0, len(geoids))
		for _, id := range geoids {
			v, ok := byCountyYear[id][y]
			if !ok {
				data = append(data, opts.BarData{Value: nil})
				continue
			}
			data = append(data, opts.BarData{Value: v})
		}
		bar.AddSeries(strconv.Itoa(y), data)
	}
	return bar, nil
}

// countyMap scatters counties on a USA map at their shapefile centroids,
// colored by Puerto Rican population. Requires both the county estimates
// and the county centroid table built from the TIGER cartographic files.
func (g *Generator) countyMap() (renderer, error) {
	pops, err := g.load("countymap", "census_acs5_county", "prpop_county_*.csv")
	if pops == nil || err != nil {
		return nil, err
	}
	cent, err := g.load("countymap", "shapes", "county_centroids.csv")
	if cent == nil || err != nil {
		return nil, err
	}

	latest := latestYear(pops)
	pops = filterYear(pops, latest)

	type point struct{ lon, lat float64 }
	centroids := make(map[string]point, cent.Len())
	for i := 0; i < cent.Len(); i++ {
		centroids[cent.Get(i, "GEOID")] = point{
			lon: cent.Row(i).Float("lon"),
			lat: cent.Row(i).Float("lat"),
		}
	}

	var maxPop float64
	data := make([]opts.GeoData, 0, pops.Len())
	for i := 0; i < pops.Len(); i++ {
		id := geo.CombineFIPS(pops.Get(i, "state"), pops.Get(i, "county"))
		p, ok := centroids[id]
		if !ok {
			continue
		}
		v := pops.Row(i).Float("puerto_rican_population")
		if v <= 0 {
			continue
		}
		if v > maxPop {
			maxPop = v
		}
		data = append(data, opts.GeoData{
			Name:  shortCountyName(pops.Get(i, "NAME")),
			Value: []interface{}{p.lon, p.lat, v},
		})
	}
	if len(data) == 0 {
		g.log.Warn("chart input missing, skipping",
			zap.String("chart", "countymap"),
			zap.String("reason", "no counties matched a centroid"))
		return nil, nil
	}

	gc := charts.NewGeo()
	gc.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Puerto Rican Population by County",
			Width:     "1200px",
			Height:    "700px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Puerto Rican Population by County",
			Subtitle: fmt.Sprintf("County centroids sized by the %d ACS 5-year estimate", latest),
			Left:     "center",
		}),
		charts.WithGeoComponentOpts(opts.GeoComponent{
			Map: "USA",
			ItemStyle: &opts.ItemStyle{
				Color:       "#f3f3f3",
				BorderColor: "#999",
			},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxPop),
			InRange: &opts.VisualMapInRange{
				Color: []string{"#fee0d2", "#fc9272", "#de2d26", "#a50f15"},
			},
		}),
	)
	gc.AddSeries("Puerto Rican population", types.ChartScatter, data)
	return gc, nil
}
