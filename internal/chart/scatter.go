package chart

import (
	"fmt"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.uber.org/zap"

	"github.com/marin-lab/diaspora-cli/internal/stats"
)

// incomeRentScatter plots median income of the Puerto Rico born population
// against the median gross rent of each state, with an ordinary least
// squares fit overlaid and the correlation in the subtitle.
func (g *Generator) incomeRentScatter() (renderer, error) {
	income, err := g.load("scatter", "ipums", "income_*.csv")
	if income == nil || err != nil {
		return nil, err
	}
	housing, err := g.load("scatter", "census_acs5_housing", "housing_*.csv")
	if housing == nil || err != nil {
		return nil, err
	}

	income = filterYear(income, latestYear(income))
	housing = filterYear(housing, latestYear(housing))

	rentByFIPS := make(map[string]float64, housing.Len())
	for i := 0; i < housing.Len(); i++ {
		rentByFIPS[housing.Get(i, "state")] = housing.Row(i).Float("median_gross_rent")
	}

	var xs, ys []float64
	points := make([]opts.ScatterData, 0, income.Len())
	for i := 0; i < income.Len(); i++ {
		x := income.Row(i).Float("median_income")
		y, ok := rentByFIPS[income.Get(i, "state")]
		if !ok || math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
		points = append(points, opts.ScatterData{
			Name:       income.Get(i, "NAME"),
			Value:      []interface{}{x, y},
			Symbol:     "circle",
			SymbolSize: 12,
		})
	}
	if len(points) < 3 {
		g.log.Warn("chart input missing, skipping",
			zap.String("chart", "scatter"),
			zap.String("reason", "fewer than three states with both income and rent"))
		return nil, nil
	}

	corr := stats.Correlation(xs, ys)
	alpha, beta := stats.LinearFit(xs, ys)

	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Income vs Rent by State",
			Width:     "1000px",
			Height:    "650px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Median Income vs Median Gross Rent",
			Subtitle: fmt.Sprintf("Per state, r = %.2f, fit rent = %.0f + %.3f x income", corr, alpha, beta),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Median income (US$)"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Median gross rent (US$)"}),
	)
	sc.AddSeries("States", points)

	// OLS fit drawn from the leftmost to the rightmost observation.
	minX, maxX := xs[0], xs[0]
	for _, x := range xs {
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
	}
	fit := charts.NewLine()
	fit.AddSeries("OLS fit", []opts.LineData{
		{Value: []interface{}{minX, alpha + beta*minX}},
		{Value: []interface{}{maxX, alpha + beta*maxX}},
	}, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	sc.Overlap(fit)

	return sc, nil
}
