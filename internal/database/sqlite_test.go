package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/questgraph/internal/storage"
	"go.uber.org/zap"
)

func openTestStore(testContext *testing.T, now func() time.Time) *SQLiteStore {
	testContext.Helper()
	db, err := OpenSQLite(filepath.Join(testContext.TempDir(), "store.db"), zap.NewNop())
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}
	store, err := NewSQLiteStore(db, storage.NewMonotonicClock(now))
	if err != nil {
		testContext.Fatalf("failed to build store: %v", err)
	}
	return store
}

func TestSQLiteStoreAppendStampsTimestampColumns(testContext *testing.T) {
	frozen := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	store := openTestStore(testContext, func() time.Time { return frozen })
	ctx := context.Background()

	stamp, err := store.Append(ctx, storage.Row{
		Table: "posts",
		Columns: []storage.Column{
			{Name: "title", Value: storage.String("Hello")},
			{Name: "content", Value: storage.String("It's a post")},
			{Name: "author_id", Value: storage.Int(3)},
		},
		Stamps: []string{"created_at", "updated_at"},
	})
	if err != nil {
		testContext.Fatalf("append failed: %v", err)
	}
	if !stamp.Equal(frozen) {
		testContext.Fatalf("unexpected stamp: %s", stamp)
	}

	result, err := store.Execute(ctx, storage.NewStatement("SELECT title, content, author_id, created_at, updated_at FROM posts WHERE author_id = ?", storage.Int(3)))
	if err != nil {
		testContext.Fatalf("select failed: %v", err)
	}
	if result.RowCount != 1 {
		testContext.Fatalf("expected one row, got %d", result.RowCount)
	}
	row := result.Rows[0]
	if row[1] != "It's a post" {
		testContext.Fatalf("unexpected content: %#v", row[1])
	}
	if row[2] != int64(3) {
		testContext.Fatalf("unexpected author id cell: %#v", row[2])
	}
	if row[3] != "2024-06-01T08:30:00.000000Z" || row[3] != row[4] {
		testContext.Fatalf("expected equal created/updated stamps, got %#v %#v", row[3], row[4])
	}
}

func TestSQLiteStoreSupportsRankedScans(testContext *testing.T) {
	store := openTestStore(testContext, func() time.Time { return time.Unix(1700000000, 0) })
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		if _, err := store.Append(ctx, storage.Row{
			Table:   "users",
			Columns: []storage.Column{{Name: "name", Value: storage.String(name)}, {Name: "email", Value: storage.String(name + "@example.com")}},
			Stamps:  []string{"created_at"},
		}); err != nil {
			testContext.Fatalf("append failed: %v", err)
		}
	}

	result, err := store.Execute(ctx, storage.NewStatement(
		"SELECT id, name FROM (SELECT row_number() OVER (ORDER BY created_at) AS id, name, created_at FROM users) ranked WHERE id = ?",
		storage.Int(2),
	))
	if err != nil {
		testContext.Fatalf("ranked select failed: %v", err)
	}
	if result.RowCount != 1 || result.Rows[0][0] != int64(2) || result.Rows[0][1] != "b" {
		testContext.Fatalf("unexpected ranked row: %#v", result.Rows)
	}
}

func TestSQLiteStoreReportsQueryErrors(testContext *testing.T) {
	store := openTestStore(testContext, nil)
	_, err := store.Execute(context.Background(), storage.NewStatement("SELECT * FROM missing_table"))
	var queryErr *storage.QueryError
	if !errors.As(err, &queryErr) {
		testContext.Fatalf("expected QueryError, got %v", err)
	}

	_, err = store.Append(context.Background(), storage.Row{Table: "missing_table", Stamps: []string{"created_at"}})
	var writeErr *storage.WriteError
	if !errors.As(err, &writeErr) {
		testContext.Fatalf("expected WriteError, got %v", err)
	}
}
