package dataset

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Occupation syncs employment totals from ACS tables B24010 (occupation)
// and B24030 (industry), two CSVs per year.
type Occupation struct{}

func (d *Occupation) Name() string      { return "occupation" }
func (d *Occupation) OutputDir() string { return "census_acs5_occupation_industry" }
func (d *Occupation) Cadence() Cadence  { return Annual }

func (d *Occupation) ShouldRun(now time.Time, lastSync *time.Time) bool {
	return AnnualAfter(now, lastSync, time.December)
}

func (d *Occupation) Fetch(ctx context.Context, deps Deps) (*FetchResult, error) {
	log := zap.L().With(zap.String("dataset", d.Name()))
	dir := filepath.Join(deps.Cfg.Fetch.DataDir, d.OutputDir())

	pulls := []struct {
		prefix string
		spec   acsSpec
	}{
		{"occupation", acsSpec{
			vars:   []string{"B24010_001E"},
			rename: [][2]string{{"B24010_001E", "total_employed"}},
		}},
		{"industry", acsSpec{
			vars:   []string{"B24030_001E"},
			rename: [][2]string{{"B24030_001E", "total_employed"}},
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
