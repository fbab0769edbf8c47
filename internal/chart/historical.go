package chart

import (
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// nycMigration is Table 1, Puerto Rican migration to New York City,
// 1941-1956. The series predate every machine-readable source, so the
// figures are carried here directly.
var nycMigration = []struct {
	year     int
	netOutPR int // net out-migration from Puerto Rico
	netNYC   int // net migration to New York City
	nycShare int // NYC share of total migration, percent
}{
	{1941, 643, 600, 95},
	{1942, 1679, 1600, 95},
	{1943, 3204, 3000, 95},
	{1944, 11201, 10600, 95},
	{1945, 13573, 12900, 95},
	{1946, 39911, 37900, 95},
	{1947, 24551, 23300, 95},
	{1948, 32775, 29500, 90},
	{1949, 25698, 23100, 90},
	{1950, 34703, 29500, 85},
	{1951, 52899, 42300, 80},
	{1952, 59103, 45500, 77},
	{1953, 69124, 51800, 75},
	{1954, 21531, 16100, 75},
	{1955, 45464, 31600, 70},
	{1956, 52315, 33900, 65},
}

// historical renders the great migration to New York City. The data is
// embedded, so this chart always renders.
func (g *Generator) historical() (renderer, error) {
	xs := make([]string, 0, len(nycMigration))
	outPR := make([]opts.BarData, 0, len(nycMigration))
	toNYC := make([]opts.LineData, 0, len(nycMigration))
	share := make([]opts.LineData, 0, len(nycMigration))
	for _, r := range nycMigration {
		xs = append(xs, strconv.Itoa(r.year))
		outPR = append(outPR, opts.BarData{Value: r.netOutPR})
		toNYC = append(toNYC, opts.LineData{Value: r.netNYC})
		share = append(share, opts.LineData{Value: r.nycShare})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Puerto Rican Migration to New York City",
			Width:     "1100px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Puerto Rican Migration to New York City, 1941-1956",
			Subtitle: "Net out-migration from Puerto Rico against net migration to NYC",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Year"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Persons"}),
	)
	bar.ExtendYAxis(opts.YAxis{
		Name:     "NYC share of total (%)",
		Type:     "value",
		Position: "right",
		Max:      100,
	})

	bar.SetXAxis(xs)
	bar.AddSeries("Net out-migration from Puerto Rico", outPR,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#e74c3c", Opacity: 0.7}))

	lines := charts.NewLine()
	lines.SetXAxis(xs)
	lines.AddSeries("Net migration to New York City", toNYC,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#3498db"}))
	lines.AddSeries("NYC share of total migration", share,
		charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1}),
		charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#2ecc71"}))
	bar.Overlap(lines)

	return bar, nil
}
