package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/marin-lab/diaspora-cli/internal/census"
	"github.com/marin-lab/diaspora-cli/internal/dataset"
	"github.com/marin-lab/diaspora-cli/internal/fetcher"
	"github.com/marin-lab/diaspora-cli/internal/fred"
	"github.com/marin-lab/diaspora-cli/internal/store"
)

// env wires the API clients, the sync store, and the dataset engine for
// commands that fetch or inspect data.
type env struct {
	Fetcher  fetcher.Fetcher
	Store    store.Store
	Deps     dataset.Deps
	Registry *dataset.Registry
	Engine   *dataset.Engine
}

func initEnv(ctx context.Context) (*env, error) {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:    cfg.Fetch.UserAgent,
		RateLimiters: fetcher.DefaultRateLimiters(),
	})

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}

	deps := dataset.Deps{
		Cfg:     cfg,
		Fetcher: f,
		Census:  census.New(f, cfg.Census.BaseURL, cfg.Census.Key),
		FRED:    fred.New(f, cfg.FRED.BaseURL, cfg.FRED.Key),
		Store:   st,
	}
	reg := dataset.NewRegistry()

	return &env{
		Fetcher:  f,
		Store:    st,
		Deps:     deps,
		Registry: reg,
		Engine:   dataset.NewEngine(deps, reg),
	}, nil
}

func (e *env) Close() {
	e.Store.Close()
}

func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "", "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
