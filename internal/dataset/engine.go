package dataset

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Engine orchestrates dataset fetch runs.
type Engine struct {
	deps Deps
	reg  *Registry
}

// RunOpts configures which datasets to fetch and how.
type RunOpts struct {
	Datasets []string // restrict to specific dataset names
	Force    bool     // ignore ShouldRun() scheduling
}

// NewEngine creates a new fetch engine.
func NewEngine(deps Deps, reg *Registry) *Engine {
	return &Engine{deps: deps, reg: reg}
}

// Run iterates over the selected datasets, checks if each needs syncing,
// and runs the fetch. Results are recorded in the sync log; a failure in
// one dataset does not stop the rest.
func (e *Engine) Run(ctx context.Context, opts RunOpts) error {
	log := zap.L().With(zap.String("component", "fetch.engine"))
	now := time.Now().UTC()

	datasets, err := e.reg.Select(opts.Datasets)
	if err != nil {
		return err
	}
	if len(datasets) == 0 {
		log.Info("no datasets selected")
		return nil
	}
	log.Info("selected datasets", zap.Int("count", len(datasets)))

	var fetched, skipped, failed int

	for _, ds := range datasets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		dsLog := log.With(zap.String("dataset", ds.Name()))

		if !opts.Force {
			lastSync, err := e.deps.Store.LastSuccess(ctx, ds.Name())
			if err != nil {
				return eris.Wrapf(err, "engine: check last sync for %s", ds.Name())
			}
			if !ds.ShouldRun(now, lastSync) {
				dsLog.Debug("skipping (not due)")
				skipped++
				continue
			}
		}

		dsLog.Info("starting fetch")
		sync, err := e.deps.Store.StartSync(ctx, ds.Name())
		if err != nil {
			return eris.Wrapf(err, "engine: start sync log for %s", ds.Name())
		}

		start := time.Now()
		result, err := ds.Fetch(ctx, e.deps)
		elapsed := time.Since(start)

		if err != nil {
			dsLog.Error("fetch failed", zap.Error(err), zap.Duration("elapsed", elapsed))
			if logErr := e.deps.Store.FailSync(ctx, sync.ID, err); logErr != nil {
				dsLog.Error("failed to record fetch failure", zap.Error(logErr))
			}
			failed++
			continue
		}

		for _, out := range result.Outputs {
			if err := e.deps.Store.RecordOutput(ctx, ds.Name(), out.Year, out.Path, out.Rows); err != nil {
				dsLog.Error("failed to record output", zap.String("path", out.Path), zap.Error(err))
			}
		}
		if err := e.deps.Store.CompleteSync(ctx, sync.ID, result.Rows()); err != nil {
			dsLog.Error("failed to record fetch completion", zap.Error(err))
		}

		dsLog.Info("fetch complete",
			zap.Int("rows", result.Rows()),
			zap.Int("files", len(result.Outputs)),
			zap.Duration("elapsed", elapsed),
		)
		fetched++
	}

	log.Info("engine run complete",
		zap.Int("fetched", fetched),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)
	return nil
}
