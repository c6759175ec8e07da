package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MarcoPoloResearchLab/questgraph/internal/storage"
	"go.uber.org/zap"
)

type scriptedExecutor struct {
	statements []string
	failOn     string
}

func (e *scriptedExecutor) Execute(_ context.Context, statement storage.Statement) (storage.Result, error) {
	e.statements = append(e.statements, statement.Text)
	if e.failOn != "" && strings.Contains(statement.Text, e.failOn) {
		return storage.Result{}, &storage.QueryError{Message: "boom"}
	}
	return storage.Result{}, nil
}

func TestEnsureQuestDBTablesCreatesPartitionedTables(testContext *testing.T) {
	executor := &scriptedExecutor{}
	if err := EnsureQuestDBTables(context.Background(), executor, zap.NewNop()); err != nil {
		testContext.Fatalf("unexpected error: %v", err)
	}
	if len(executor.statements) != 3 {
		testContext.Fatalf("expected 3 statements, got %d", len(executor.statements))
	}
	for i, table := range []string{"users", "posts", "comments"} {
		statement := executor.statements[i]
		if !strings.Contains(statement, "CREATE TABLE IF NOT EXISTS "+table) {
			testContext.Fatalf("statement %d does not create %s: %s", i, table, statement)
		}
		if !strings.Contains(statement, "TIMESTAMP(created_at) PARTITION BY DAY") {
			testContext.Fatalf("statement for %s is not day partitioned", table)
		}
	}
}

func TestEnsureQuestDBTablesStopsOnFailure(testContext *testing.T) {
	executor := &scriptedExecutor{failOn: "posts"}
	err := EnsureQuestDBTables(context.Background(), executor, nil)
	var queryErr *storage.QueryError
	if !errors.As(err, &queryErr) {
		testContext.Fatalf("expected wrapped QueryError, got %v", err)
	}
	if len(executor.statements) != 2 {
		testContext.Fatalf("expected to stop after posts, ran %d statements", len(executor.statements))
	}
}
