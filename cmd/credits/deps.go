package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/ersonp/scenecredits/internal/application/handlers"
	"github.com/ersonp/scenecredits/internal/domain/entities"
	"github.com/ersonp/scenecredits/internal/domain/ports"
	"github.com/ersonp/scenecredits/internal/domain/services"
	"github.com/ersonp/scenecredits/internal/infrastructure/config"
	"github.com/ersonp/scenecredits/internal/infrastructure/relationaldb/postgres"
	"github.com/ersonp/scenecredits/internal/infrastructure/relationaldb/sqlite"
	"github.com/ersonp/scenecredits/internal/observability"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config          *config.Config
	LookupHandler   *handlers.LookupHandler
	BylineHandler   *handlers.BylineHandler
	ReleaserHandler *handlers.ReleaserHandler
	ImportHandler   *handlers.ImportHandler
}

// withDeps loads config, opens the store and builds handlers, then calls fn
// with a context carrying the configured logger. It closes the store and
// writes the metrics textfile afterwards.
func withDeps(ctx context.Context, fn func(context.Context, *Deps) error) (err error) {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg.Logging)
	ctx = logger.WithContext(ctx)

	policy, err := services.ParseStalePolicy(cfg.Resolution.StalePolicy)
	if err != nil {
		return err
	}

	relationalDB, err := openStore(ctx, cfg, cwd)
	if err != nil {
		return err
	}
	defer relationalDB.Close()

	if err := relationalDB.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}

	metrics := observability.NewMetrics(metricsNamespace)
	defer func() {
		path := globalMetricsFile
		if path == "" {
			path = cfg.Metrics.Textfile
		}
		if path == "" {
			return
		}
		if werr := metrics.WriteTextfile(path); werr != nil {
			logger.Error().Err(werr).Str("path", path).Msg("writing metrics textfile")
			if err == nil {
				err = fmt.Errorf("writing metrics: %w", werr)
			}
		}
	}()

	opts := handlers.ResolutionOptions{
		StalePolicy: policy,
		IDLookup:    cfg.Resolution.IDLookupEnabled(),
		Limit:       cfg.Resolution.SuggestionLimit,
	}

	deps := &Deps{
		Config:          cfg,
		LookupHandler:   handlers.NewLookupHandler(relationalDB, metrics, opts),
		BylineHandler:   handlers.NewBylineHandler(relationalDB, metrics, opts),
		ReleaserHandler: handlers.NewReleaserHandler(relationalDB),
		ImportHandler:   handlers.NewImportHandler(relationalDB, metrics),
	}

	return fn(ctx, deps)
}

// openStore opens the relational store selected by cfg.Database.Driver.
func openStore(ctx context.Context, cfg *config.Config, basePath string) (ports.RelationalDB, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		repo, err := postgres.Connect(ctx, cfg.Database.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		return repo, nil
	default:
		repo, err := sqlite.NewRepository(config.SQLiteConfig{Path: cfg.SQLitePath(basePath)})
		if err != nil {
			return nil, fmt.Errorf("creating sqlite repository: %w", err)
		}
		return repo, nil
	}
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	logCfg := observability.DefaultLoggingConfig()
	if cfg.Level != "" {
		logCfg.Level = cfg.Level
	}
	if cfg.Format != "" {
		logCfg.Format = cfg.Format
	}
	if globalLogLevel != "" {
		logCfg.Level = globalLogLevel
	}
	return observability.NewLogger(logCfg)
}

// parseKindFilter converts a --kind flag value to a KindFilter.
func parseKindFilter(s string) (entities.KindFilter, error) {
	switch s {
	case "", "any":
		return entities.AnyKind, nil
	case "person", "scener":
		return entities.PersonsOnly, nil
	case "group":
		return entities.GroupsOnly, nil
	default:
		return entities.AnyKind, fmt.Errorf("invalid kind %q, valid kinds: %v", s, validKinds)
	}
}
