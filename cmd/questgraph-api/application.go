package main

import (
	"context"
	"fmt"

	"github.com/MarcoPoloResearchLab/questgraph/internal/comments"
	"github.com/MarcoPoloResearchLab/questgraph/internal/config"
	"github.com/MarcoPoloResearchLab/questgraph/internal/database"
	"github.com/MarcoPoloResearchLab/questgraph/internal/graph"
	"github.com/MarcoPoloResearchLab/questgraph/internal/identity"
	"github.com/MarcoPoloResearchLab/questgraph/internal/posts"
	"github.com/MarcoPoloResearchLab/questgraph/internal/seed"
	"github.com/MarcoPoloResearchLab/questgraph/internal/server"
	"github.com/MarcoPoloResearchLab/questgraph/internal/storage"
	"github.com/MarcoPoloResearchLab/questgraph/internal/users"
	"go.uber.org/zap"
)

var entityTables = []string{"users", "posts", "comments"}

// application holds the wired storage, repositories and GraphQL service.
type application struct {
	executor     storage.Executor
	clock        *storage.MonotonicClock
	ensureSchema func(ctx context.Context) error
	closers      []func(ctx context.Context) error

	users    *users.Repository
	posts    *posts.Repository
	comments *comments.Repository
	seeder   *seed.Seeder
	graph    *graph.Service
	feed     *server.ChangeFeed
	logger   *zap.Logger
}

func buildApplication(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (*application, error) {
	app := &application{
		clock:  storage.NewMonotonicClock(nil),
		feed:   server.NewChangeFeed(),
		logger: logger,
	}

	writer, err := app.openStorage(ctx, cfg)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}
	writer = storage.WithAppendHook(writer, app.feed.Hook())

	resolver, err := identity.NewResolver(app.executor)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}
	if app.users, err = users.NewRepository(users.RepositoryConfig{Identity: resolver, Writer: writer, Logger: logger}); err != nil {
		app.Close(ctx)
		return nil, err
	}
	if app.posts, err = posts.NewRepository(posts.RepositoryConfig{Identity: resolver, Writer: writer, Logger: logger}); err != nil {
		app.Close(ctx)
		return nil, err
	}
	if app.comments, err = comments.NewRepository(comments.RepositoryConfig{Identity: resolver, Writer: writer, Logger: logger}); err != nil {
		app.Close(ctx)
		return nil, err
	}
	if app.seeder, err = seed.NewSeeder(seed.SeederConfig{Users: app.users, Posts: app.posts, Comments: app.comments, Logger: logger}); err != nil {
		app.Close(ctx)
		return nil, err
	}
	app.graph, err = graph.NewService(graph.Config{
		Users:          app.users,
		Posts:          app.posts,
		Comments:       app.comments,
		Seeder:         app.seeder,
		BatchRelations: cfg.BatchRelations,
		Version:        version,
		Logger:         logger,
	})
	if err != nil {
		app.Close(ctx)
		return nil, err
	}
	return app, nil
}

// openStorage selects the read executor and the row writer for cfg.
func (a *application) openStorage(ctx context.Context, cfg config.AppConfig) (storage.RowWriter, error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		db, err := database.OpenSQLite(cfg.DatabasePath, a.logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return sqlDB.Close() })
		store, err := database.NewSQLiteStore(db, a.clock)
		if err != nil {
			return nil, err
		}
		a.executor = store
		return store, nil

	case config.DriverQuestDB:
		switch cfg.QueryTransport {
		case config.TransportPGWire:
			executor, err := storage.NewPGExecutor(ctx, storage.PGExecutorConfig{DSN: cfg.PGDSN, Timeout: cfg.QueryTimeout})
			if err != nil {
				return nil, err
			}
			a.closers = append(a.closers, func(context.Context) error {
				executor.Close()
				return nil
			})
			a.executor = executor
		default:
			executor, err := storage.NewHTTPExecutor(storage.HTTPExecutorConfig{
				BaseURL: cfg.QuestDBHTTPURL,
				Timeout: cfg.QueryTimeout,
				Logger:  a.logger,
			})
			if err != nil {
				return nil, err
			}
			a.executor = executor
		}
		writer, err := storage.NewILPWriter(ctx, storage.ILPWriterConfig{Conf: cfg.ILPConf, Clock: a.clock, Logger: a.logger})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, writer.Close)
		executor := a.executor
		a.ensureSchema = func(ctx context.Context) error {
			return database.EnsureQuestDBTables(ctx, executor, a.logger)
		}
		return writer, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

// Bootstrap probes storage, creates tables and seeds an empty database.
func (a *application) Bootstrap(ctx context.Context, seedWhenEmpty bool) (seed.Report, error) {
	return seed.Bootstrap(ctx, seed.BootstrapConfig{
		Executor:      a.executor,
		EnsureSchema:  a.ensureSchema,
		Clock:         a.clock,
		Tables:        entityTables,
		Seeder:        a.seeder,
		SeedWhenEmpty: seedWhenEmpty,
		Logger:        a.logger,
	})
}

// Close releases storage handles in reverse order of acquisition.
func (a *application) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("failed to close storage handle", zap.Error(err))
		}
	}
	a.closers = nil
}
