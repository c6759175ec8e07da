package posts

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/questgraph/internal/database"
	"github.com/MarcoPoloResearchLab/questgraph/internal/identity"
	"github.com/MarcoPoloResearchLab/questgraph/internal/storage"
	"github.com/MarcoPoloResearchLab/questgraph/internal/validation"
)

type recordingWriter struct {
	rows []storage.Row
}

func (w *recordingWriter) Append(_ context.Context, row storage.Row) (time.Time, error) {
	w.rows = append(w.rows, row)
	return time.Unix(1, 0).UTC(), nil
}

type failingExecutor struct{}

func (failingExecutor) Execute(context.Context, storage.Statement) (storage.Result, error) {
	return storage.Result{}, &storage.QueryError{Message: "table does not exist"}
}

func newSQLiteRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "posts.db"), nil)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	store, err := database.NewSQLiteStore(db, nil)
	if err != nil {
		t.Fatalf("failed to build store: %v", err)
	}
	resolver, err := identity.NewResolver(store)
	if err != nil {
		t.Fatalf("failed to build resolver: %v", err)
	}
	repository, err := NewRepository(RepositoryConfig{Identity: resolver, Writer: store})
	if err != nil {
		t.Fatalf("failed to build repository: %v", err)
	}
	return repository
}

func mustInsert(t *testing.T, repository *Repository, title string, authorID int64) {
	t.Helper()
	err := repository.Insert(context.Background(), CreatePostInput{
		Title:    title,
		Content:  "Body text long enough to pass validation.",
		AuthorID: authorID,
	})
	if err != nil {
		t.Fatalf("insert %q failed: %v", title, err)
	}
}

func TestListByAuthorFiltersAndKeepsGlobalIds(t *testing.T) {
	repository := newSQLiteRepository(t)
	ctx := context.Background()
	mustInsert(t, repository, "Getting Started with GraphQL", 1)
	mustInsert(t, repository, "QuestDB Time Series Database", 2)
	mustInsert(t, repository, "TypeScript Best Practices", 1)

	byAuthor := repository.ListByAuthor(ctx, 1)
	if len(byAuthor) != 2 {
		t.Fatalf("expected 2 posts for author 1, got %d", len(byAuthor))
	}
	if byAuthor[0].ID != 3 || byAuthor[0].Title != "TypeScript Best Practices" {
		t.Fatalf("expected most recent post first with id 3, got %+v", byAuthor[0])
	}
	if byAuthor[1].ID != 1 {
		t.Fatalf("expected global id 1, got %d", byAuthor[1].ID)
	}
	for _, post := range byAuthor {
		if post.AuthorID != 1 {
			t.Fatalf("unexpected author %d", post.AuthorID)
		}
		fetched, found := repository.Get(ctx, post.ID)
		if !found || fetched.Title != post.Title {
			t.Fatalf("get(%d) disagrees with filtered listing", post.ID)
		}
	}

	if posts := repository.ListByAuthor(ctx, 99); len(posts) != 0 {
		t.Fatalf("expected no posts for unknown author, got %d", len(posts))
	}
	all := repository.List(ctx)
	if len(all) != 3 || all[0].ID != 3 || all[2].ID != 1 {
		t.Fatalf("unexpected full listing: %+v", all)
	}
	if count := repository.Count(ctx); count != 3 {
		t.Fatalf("expected count 3, got %d", count)
	}
}

func TestInsertStampsCreatedAndUpdated(t *testing.T) {
	repository := newSQLiteRepository(t)
	mustInsert(t, repository, "  Padded title  ", 1)

	post, found := repository.Get(context.Background(), 1)
	if !found {
		t.Fatalf("expected post 1")
	}
	if post.Title != "Padded title" {
		t.Fatalf("expected trimmed title, got %q", post.Title)
	}
	if post.CreatedAt.IsZero() || !post.CreatedAt.Equal(post.UpdatedAt) {
		t.Fatalf("expected equal created_at and updated_at, got %v and %v", post.CreatedAt, post.UpdatedAt)
	}
}

func TestInsertRowShape(t *testing.T) {
	writer := &recordingWriter{}
	resolver, _ := identity.NewResolver(failingExecutor{})
	repository, err := NewRepository(RepositoryConfig{Identity: resolver, Writer: writer})
	if err != nil {
		t.Fatalf("failed to build repository: %v", err)
	}
	err = repository.Insert(context.Background(), CreatePostInput{Title: "O'Brien's guide", Content: "It's a guide with quotes.", AuthorID: 7})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if len(writer.rows) != 1 {
		t.Fatalf("expected one row, got %d", len(writer.rows))
	}
	row := writer.rows[0]
	if row.Table != "posts" || len(row.Stamps) != 2 || row.Stamps[0] != "created_at" {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.Columns[0].Value.Text() != "O'Brien's guide" || row.Columns[2].Value.Number() != 7 {
		t.Fatalf("unexpected columns: %+v", row.Columns)
	}
}

func TestInsertValidation(t *testing.T) {
	writer := &recordingWriter{}
	resolver, _ := identity.NewResolver(failingExecutor{})
	repository, _ := NewRepository(RepositoryConfig{Identity: resolver, Writer: writer})

	testCases := []struct {
		name  string
		input CreatePostInput
		field string
	}{
		{name: "missing-title", input: CreatePostInput{Content: "Long enough content", AuthorID: 1}, field: "title"},
		{name: "short-title", input: CreatePostInput{Title: "Hey", Content: "Long enough content", AuthorID: 1}, field: "title"},
		{name: "short-content", input: CreatePostInput{Title: "Valid title", Content: "short", AuthorID: 1}, field: "content"},
		{name: "zero-author", input: CreatePostInput{Title: "Valid title", Content: "Long enough content", AuthorID: 0}, field: "authorId"},
		{name: "negative-author", input: CreatePostInput{Title: "Valid title", Content: "Long enough content", AuthorID: -4}, field: "authorId"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			validationErr, ok := validation.AsValidationError(repository.Insert(context.Background(), testCase.input))
			if !ok || validationErr.Field != testCase.field {
				t.Fatalf("expected %s validation error, got %v", testCase.field, validationErr)
			}
		})
	}
	if len(writer.rows) != 0 {
		t.Fatalf("invalid input reached the writer")
	}
}

func TestReadsDegradeWhenStorageFails(t *testing.T) {
	resolver, _ := identity.NewResolver(failingExecutor{})
	repository, _ := NewRepository(RepositoryConfig{Identity: resolver, Writer: &recordingWriter{}})
	ctx := context.Background()
	if posts := repository.List(ctx); posts == nil || len(posts) != 0 {
		t.Fatalf("expected empty list, got %#v", posts)
	}
	if posts := repository.ListByAuthor(ctx, 1); len(posts) != 0 {
		t.Fatalf("expected empty list, got %#v", posts)
	}
	if _, found := repository.Get(ctx, 1); found {
		t.Fatalf("expected absent post")
	}
	if count := repository.Count(ctx); count != 0 {
		t.Fatalf("expected zero count")
	}
}

func TestNewRepositoryRequiresDependencies(t *testing.T) {
	if _, err := NewRepository(RepositoryConfig{}); !errors.Is(err, errMissingResolver) {
		t.Fatalf("expected missing resolver error, got %v", err)
	}
}
