package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/marin-lab/diaspora-cli/internal/table"
)

// acsSpec describes one ACS table pull: which variables, which geography,
// how to derive rate columns from the raw counts, and how to rename the
// raw variable codes for the output CSV.
type acsSpec struct {
	vars   []string
	county bool
	derive func(t *table.Table) // runs on raw variable names
	rename [][2]string          // [from, to] pairs, applied after derive
}

// fetchACS pulls one ACS table for every configured year, writing one CSV
// per year under the dataset's output dir. Years whose output file already
// exists are left alone, so an interrupted run resumes where it stopped.
// A year that fails is skipped so one bad vintage does not sink the rest;
// the run only errors when every attempted year failed.
func fetchACS(ctx context.Context, deps Deps, ds Dataset, spec acsSpec) (*FetchResult, error) {
	log := zap.L().With(zap.String("dataset", ds.Name()))
	dir := filepath.Join(deps.Cfg.Fetch.DataDir, ds.OutputDir())

	res := &FetchResult{}
	var attempted, failed int
	var lastErr error
	for year := deps.Cfg.Census.StartYear; year <= deps.Cfg.Census.EndYear; year++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		attempted++
		out, err := fetchACSYear(ctx, deps, spec, ds.Name(), dir, year)
		if err != nil {
			failed++
			lastErr = err
			log.Warn("year failed, continuing", zap.Int("year", year), zap.Error(err))
			continue
		}
		if out == nil {
			log.Debug("output exists, skipping year", zap.Int("year", year))
			continue
		}
		log.Info("year fetched", zap.Int("year", year), zap.Int("rows", out.Rows))
		res.Outputs = append(res.Outputs, *out)
	}
	if failed > 0 && failed == attempted {
		return nil, eris.Wrapf(lastErr, "%s: all %d years failed", ds.Name(), failed)
	}
	return res, nil
}

func fetchACSYear(ctx context.Context, deps Deps, spec acsSpec, prefix, dir string, year int) (*Output, error) {
	dest := filepath.Join(dir, table.YearFileName(prefix, year))
	if _, err := os.Stat(dest); err == nil {
		return nil, nil
	}

	var tbl *table.Table
	var err error
	if spec.county {
		tbl, err = deps.Census.CountyTable(ctx, year, spec.vars)
	} else {
		tbl, err = deps.Census.StateTable(ctx, year, spec.vars)
	}
	if err != nil {
		return nil, err
	}

	tbl.AddConst("year", strconv.Itoa(year))
	if spec.derive != nil {
		spec.derive(tbl)
	}
	for _, r := range spec.rename {
		if err := tbl.Rename(r[0], r[1]); err != nil {
			return nil, eris.Wrapf(err, "%s %d", prefix, year)
		}
	}

	keys := []string{"year", "state"}
	if spec.county {
		keys = append(keys, "county")
	}
	if dups := tbl.DuplicateKeys(keys...); len(dups) > 0 {
		return nil, eris.Errorf("%s %d: duplicate geography keys: %v", prefix, year, dups)
	}

	if err := tbl.WriteCSV(dest); err != nil {
		return nil, err
	}
	return &Output{Year: year, Path: dest, Rows: tbl.Len()}, nil
}
