// Package chart renders interactive HTML visualizations from the fetched
// CSV tables. Each chart is an ECharts document written under the configured
// output directory; builders skip quietly (with a warning) when their input
// tables have not been fetched yet.
package chart

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/marin-lab/diaspora-cli/internal/config"
	"github.com/marin-lab/diaspora-cli/internal/geo"
	"github.com/marin-lab/diaspora-cli/internal/table"
)

// Generator renders charts from tables under the data dir into the out dir.
type Generator struct {
	dataDir string
	outDir  string
	log     *zap.Logger
	printer *message.Printer
}

// New builds a Generator from the application config.
func New(cfg *config.Config) *Generator {
	return &Generator{
		dataDir: cfg.Fetch.DataDir,
		outDir:  cfg.Chart.OutDir,
		log:     zap.L().Named("chart"),
		printer: message.NewPrinter(language.English),
	}
}

// renderer is satisfied by every go-echarts chart type. Page only satisfies
// the io half, so the dashboard is handled separately.
type renderer interface {
	components.Charter
	Render(w io.Writer) error
}

type builder struct {
	name  string
	file  string
	build func(*Generator) (renderer, error)
}

// builders lists every chart in render order. The dashboard is not listed
// here because it aggregates the others into a single page.
var builders = []builder{
	{"statemap", "pr_population_state_map.html", (*Generator).stateMap},
	{"countytrend", "pr_population_top_counties.html", (*Generator).countyTrend},
	{"countymap", "pr_population_county_map.html", (*Generator).countyMap},
	{"top5", "pr_population_top_states.html", (*Generator).topStates},
	{"poverty", "pr_poverty_by_state.html", (*Generator).povertyBars},
	{"income", "pr_income_by_state.html", (*Generator).incomeBars},
	{"unemployment", "pr_unemployment_by_state.html", (*Generator).unemploymentBars},
	{"scatter", "pr_income_vs_rent.html", (*Generator).incomeRentScatter},
	{"corrmatrix", "pr_indicator_correlations.html", (*Generator).corrMatrix},
	{"economy", "pr_economic_indicators.html", (*Generator).economy},
	{"historical", "pr_nyc_migration_1941_1956.html", (*Generator).historical},
}

const dashboardName = "dashboard"

// Names returns every chart name Render accepts.
func Names() []string {
	names := make([]string, 0, len(builders)+1)
	for _, b := range builders {
		names = append(names, b.name)
	}
	return append(names, dashboardName)
}

// Render builds one chart by name and writes it to the output directory.
// It returns the written path, or an empty path when the chart's inputs are
// missing and the chart was skipped.
func (g *Generator) Render(name string) (string, error) {
	if name == dashboardName {
		return g.dashboard()
	}
	for _, b := range builders {
		if b.name != name {
			continue
		}
		ch, err := b.build(g)
		if err != nil {
			return "", err
		}
		if ch == nil {
			return "", nil
		}
		path := filepath.Join(g.outDir, b.file)
		if err := g.writeHTML(ch, path); err != nil {
			return "", eris.Wrapf(err, "chart: render %s", name)
		}
		g.log.Info("chart rendered", zap.String("chart", name), zap.String("path", path))
		return path, nil
	}
	return "", eris.Errorf("chart: unknown chart %q", name)
}

// RenderAll renders every chart, skipping those without inputs, and finishes
// with the dashboard page.
func (g *Generator) RenderAll(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for _, b := range builders {
		b := b
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			_, err := g.Render(b.name)
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	_, err := g.Render(dashboardName)
	return err
}

// load reads every CSV matching pattern under a data subdirectory. A nil
// table means nothing has been fetched there yet; the caller skips.
func (g *Generator) load(chart, dir, pattern string) (*table.Table, error) {
	glob := filepath.Join(g.dataDir, dir, pattern)
	tbl, err := table.ReadGlob(glob)
	if err != nil {
		return nil, eris.Wrapf(err, "chart: %s", chart)
	}
	if tbl == nil || tbl.Len() == 0 {
		g.log.Warn("chart input missing, skipping",
			zap.String("chart", chart),
			zap.String("glob", glob))
		return nil, nil
	}
	return tbl, nil
}

// loadOptional is load for inputs a chart can do without. Missing data is
// only logged at debug level and the chart renders without it.
func (g *Generator) loadOptional(chart, dir, pattern string) (*table.Table, error) {
	glob := filepath.Join(g.dataDir, dir, pattern)
	tbl, err := table.ReadGlob(glob)
	if err != nil {
		return nil, eris.Wrapf(err, "chart: %s", chart)
	}
	if tbl == nil || tbl.Len() == 0 {
		g.log.Debug("optional chart input missing",
			zap.String("chart", chart),
			zap.String("glob", glob))
		return nil, nil
	}
	return tbl, nil
}

func (g *Generator) writeHTML(r interface{ Render(io.Writer) error }, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "chart: create output dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "chart: create output file")
	}
	defer f.Close()
	if err := r.Render(f); err != nil {
		return eris.Wrap(err, "chart: write html")
	}
	return f.Close()
}

// latestYear returns the largest value in the year column.
func latestYear(t *table.Table) int {
	latest := 0
	for _, y := range t.Numeric("year") {
		if int(y) > latest {
			latest = int(y)
		}
	}
	return latest
}

// filterYear keeps only the rows for one year.
func filterYear(t *table.Table, year int) *table.Table {
	return t.Filter(func(r table.Row) bool {
		return int(r.Float("year")) == year
	})
}

// sortedYears returns the distinct years present, ascending.
func sortedYears(t *table.Table) []int {
	seen := map[int]bool{}
	for _, y := range t.Numeric("year") {
		seen[int(y)] = true
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// formatPop renders a population count with thousands separators.
func (g *Generator) formatPop(v float64) string {
	return g.printer.Sprintf("%d", int64(v))
}

// shortCountyName shortens "Orange County, Florida" to "Orange County, FL".
func shortCountyName(name string) string {
	county, state, ok := strings.Cut(name, ", ")
	if !ok {
		return name
	}
	if abbrev := geo.StateAbbrev(state); abbrev != "" {
		return county + ", " + abbrev
	}
	return name
}
