package database

import (
	"context"
	"fmt"

	"github.com/MarcoPoloResearchLab/questgraph/internal/storage"
	"go.uber.org/zap"
)

type tableDefinition struct {
	name      string
	statement string
}

// questDBTables are append-only and partitioned by day on created_at.
var questDBTables = []tableDefinition{
	{
		name: "users",
		statement: `CREATE TABLE IF NOT EXISTS users (
			name STRING,
			email STRING,
			created_at TIMESTAMP
		) TIMESTAMP(created_at) PARTITION BY DAY`,
	},
	{
		name: "posts",
		statement: `CREATE TABLE IF NOT EXISTS posts (
			title STRING,
			content STRING,
			author_id INT,
			created_at TIMESTAMP,
			updated_at TIMESTAMP
		) TIMESTAMP(created_at) PARTITION BY DAY`,
	},
	{
		name: "comments",
		statement: `CREATE TABLE IF NOT EXISTS comments (
			content STRING,
			post_id INT,
			author_id INT,
			created_at TIMESTAMP
		) TIMESTAMP(created_at) PARTITION BY DAY`,
	},
}

// EnsureQuestDBTables creates the entity tables when they are missing.
func EnsureQuestDBTables(ctx context.Context, executor storage.Executor, logger *zap.Logger) error {
	if executor == nil {
		return fmt.Errorf("database: executor is required")
	}
	for _, table := range questDBTables {
		if _, err := executor.Execute(ctx, storage.NewStatement(table.statement)); err != nil {
			return fmt.Errorf("database: create table %s: %w", table.name, err)
		}
		if logger != nil {
			logger.Info("table ensured", zap.String("table", table.name))
		}
	}
	return nil
}
