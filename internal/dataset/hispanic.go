package dataset

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/marin-lab/diaspora-cli/internal/table"
)

// Hispanic syncs the Hispanic/Latino comparison baselines: poverty, rent,
// home value, and insurance coverage from the ACS "I" iteration tables.
// The charts use these to put the Puerto Rican series in context.
type Hispanic struct{}

func (d *Hispanic) Name() string      { return "hispanic" }
func (d *Hispanic) OutputDir() string { return "census_acs5_hispanic_comparison" }
func (d *Hispanic) Cadence() Cadence  { return Annual }

func (d *Hispanic) ShouldRun(now time.Time, lastSync *time.Time) bool {
	return AnnualAfter(now, lastSync, time.December)
}

func (d *Hispanic) Fetch(ctx context.Context, deps Deps) (*FetchResult, error) {
	log := zap.L().With(zap.String("dataset", d.Name()))
	dir := filepath.Join(deps.Cfg.Fetch.DataDir, d.OutputDir())

	pulls := []struct {
		prefix string
		spec   acsSpec
	}{
		{"hispanic_poverty", acsSpec{
			vars: []string{"B17001I_001E", "B17001I_002E"},
			derive: func(t *table.Table) {
				t.DeriveRate("poverty_rate", "B17001I_002E", "B17001I_001E")
			},
			rename: [][2]string{
				{"B17001I_001E", "total_population"},
				{"B17001I_002E", "below_poverty_level"},
			},
		}},
		{"hispanic_rent", acsSpec{
			vars:   []string{"B25064I_001E"},
			rename: [][2]string{{"B25064I_001E", "median_gross_rent"}},
		}},
		{"hispanic_home_value", acsSpec{
			vars:   []string{"B25077I_001E"},
			rename: [][2]string{{"B25077I_001E", "median_home_value"}},
		}},
		{"hispanic_insurance", acsSpec{
			vars: []string{"B27001I_001E", "B27001I_003E", "B27001I_009E"},
			derive: func(t *table.Table) {
				t.DeriveRate("insurance_coverage_rate", "B27001I_003E", "B27001I_001E")
				t.DeriveRate("uninsured_rate", "B27001I_009E", "B27001I_001E")
			},
			rename: [][2]string{
				{"B27001I_001E", "total_population"},
				{"B27001I_003E", "with_insurance"},
				{"B27001I_009E", "without_insurance"},
			},
		}},
	}

	res := &FetchResult{}
	var attempted, failed int
	var lastErr error
	for year := deps.Cfg.Census.StartYear; year <= deps.Cfg.Census.EndYear; year++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		for _, p := range pulls {
			attempted++
			out, err := fetchACSYear(ctx, deps, p.spec, p.prefix, dir, year)
			if err != nil {
				failed++
				lastErr = err
				log.Warn("year failed, continuing",
					zap.String("table", p.prefix),
					zap.Int("year", year),
					zap.Error(err))
				continue
			}
			if out == nil {
				continue
			}
			log.Info("year fetched",
				zap.String("table", p.prefix),
				zap.Int("year", year),
				zap.Int("rows", out.Rows),
			)
			res.Outputs = append(res.Outputs, *out)
		}
	}
	if failed > 0 && failed == attempted {
		return nil, eris.Wrapf(lastErr, "%s: all %d pulls failed", d.Name(), failed)
	}
	return res, nil
}
