package main

import (
	"fmt"

	"github.com/datallboy/gofetch/internal/app"
	"github.com/datallboy/gofetch/internal/engine"
	"github.com/datallboy/gofetch/internal/infra/config"
	"github.com/datallboy/gofetch/internal/infra/logger"
	"github.com/datallboy/gofetch/internal/progress"
	"github.com/datallboy/gofetch/internal/store"
	"github.com/datallboy/gofetch/internal/transport"
)

var _ app.RunStore = (*store.PersistentStore)(nil)

// runtime is everything a command needs, built from the loaded config.
type runtime struct {
	app    *app.Context
	store  *store.PersistentStore
	engine *engine.Engine
	runner *engine.Runner
}

func bootstrap(configPath string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Path, logger.ParseLevel(cfg.Log.Level), cfg.Log.IncludeStdout)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}

	appCtx := app.NewContext(cfg, log)
	rt := &runtime{app: appCtx}

	if cfg.Store.SQLitePath != "" {
		st, err := store.NewPersistentStore(cfg.Store.SQLitePath, log)
		if err != nil {
			log.Close()
			return nil, fmt.Errorf("failed to open history store: %w", err)
		}
		if n, err := st.FailInterruptedRuns(); err != nil {
			log.Warn("Could not recover interrupted runs: %v", err)
		} else if n > 0 {
			log.Warn("Marked %d interrupted run(s) as failed", n)
		}
		rt.store = st
		appCtx.Store = st
	}

	rt.engine = engine.New(appCtx, transport.NewClient(clientOptions(cfg)))
	rt.runner = engine.NewRunner(appCtx, rt.engine, progress.NewAggregator())
	return rt, nil
}

func clientOptions(cfg *config.Config) transport.Options {
	opts := transport.DefaultOptions()
	opts.Retry = transport.RetryPolicy{
		MaxRetries:     cfg.HTTP.MaxRetries,
		InitialBackoff: cfg.HTTP.InitialBackoff,
		MaxBackoff:     cfg.HTTP.MaxBackoff,
		Jitter:         true,
	}
	opts.ResponseHeaderTimeout = cfg.HTTP.ResponseHeaderTimeout
	opts.UserAgent = cfg.HTTP.UserAgent
	if cfg.Download.Concurrency > opts.MaxIdleConnsPerHost {
		opts.MaxIdleConnsPerHost = cfg.Download.Concurrency
	}
	return opts
}

func (rt *runtime) Close() {
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			rt.app.Logger.Warn("Failed to close history store: %v", err)
		}
	}
	rt.app.Logger.Close()
}
