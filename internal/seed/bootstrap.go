package seed

import (
	"context"
	"errors"

	"github.com/MarcoPoloResearchLab/questgraph/internal/storage"
	"go.uber.org/zap"
)

var errMissingExecutor = errors.New("seed: executor is required")

// BootstrapConfig describes one startup bootstrap run.
type BootstrapConfig struct {
	Executor storage.Executor
	// EnsureSchema creates missing tables; nil skips the step.
	EnsureSchema func(ctx context.Context) error
	// Clock, when set, is advanced past the newest stored created_at.
	Clock         *storage.MonotonicClock
	Tables        []string
	Seeder        *Seeder
	SeedWhenEmpty bool
	Logger        *zap.Logger
}

// Report summarizes a bootstrap run.
type Report struct {
	Healthy bool
	Seeded  bool
	Stats   Stats
}

// Bootstrap probes storage, creates tables and seeds an empty database. An
// unreachable store is reported and not treated as fatal so the server can
// keep serving degraded reads. Schema and seed failures are returned.
func Bootstrap(ctx context.Context, cfg BootstrapConfig) (Report, error) {
	if cfg.Executor == nil {
		return Report{}, errMissingExecutor
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := storage.Ping(ctx, cfg.Executor); err != nil {
		logger.Warn("storage not reachable, continuing without bootstrap", zap.Error(err))
		return Report{}, nil
	}
	report := Report{Healthy: true}

	if cfg.EnsureSchema != nil {
		if err := cfg.EnsureSchema(ctx); err != nil {
			return report, err
		}
	}
	if cfg.Clock != nil {
		observeNewest(ctx, cfg.Executor, cfg.Clock, cfg.Tables, logger)
	}
	if cfg.Seeder == nil {
		return report, nil
	}

	report.Stats = cfg.Seeder.Stats(ctx)
	if !cfg.SeedWhenEmpty || !report.Stats.Empty() {
		logger.Info("database already initialized",
			zap.Int64("users", report.Stats.Users),
			zap.Int64("posts", report.Stats.Posts),
			zap.Int64("comments", report.Stats.Comments))
		return report, nil
	}

	logger.Info("database is empty, seeding sample data")
	if err := cfg.Seeder.Seed(ctx); err != nil {
		return report, err
	}
	report.Seeded = true
	report.Stats = cfg.Seeder.Stats(ctx)
	return report, nil
}

func observeNewest(ctx context.Context, executor storage.Executor, clock *storage.MonotonicClock, tables []string, logger *zap.Logger) {
	for _, table := range tables {
		if !storage.ValidIdentifier(table) {
			continue
		}
		result, err := executor.Execute(ctx, storage.NewStatement("SELECT max(created_at) FROM "+table))
		if err != nil {
			logger.Warn("failed to read newest timestamp", zap.String("table", table), zap.Error(err))
			continue
		}
		if len(result.Rows) == 0 || len(result.Rows[0]) == 0 || result.Rows[0][0] == nil {
			continue
		}
		newest, err := storage.ParseTimestamp(result.Rows[0][0])
		if err != nil {
			logger.Warn("failed to parse newest timestamp", zap.String("table", table), zap.Error(err))
			continue
		}
		clock.Observe(newest)
	}
}
