package comments

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/MarcoPoloResearchLab/questgraph/internal/database"
	"github.com/MarcoPoloResearchLab/questgraph/internal/identity"
	"github.com/MarcoPoloResearchLab/questgraph/internal/posts"
	"github.com/MarcoPoloResearchLab/questgraph/internal/storage"
	"github.com/MarcoPoloResearchLab/questgraph/internal/users"
	"github.com/MarcoPoloResearchLab/questgraph/internal/validation"
)

type fixture struct {
	users    *users.Repository
	posts    *posts.Repository
	comments *Repository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "comments.db"), nil)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	store, err := database.NewSQLiteStore(db, storage.NewMonotonicClock(nil))
	if err != nil {
		t.Fatalf("failed to build store: %v", err)
	}
	resolver, err := identity.NewResolver(store)
	if err != nil {
		t.Fatalf("failed to build resolver: %v", err)
	}
	userRepository, err := users.NewRepository(users.RepositoryConfig{Identity: resolver, Writer: store})
	if err != nil {
		t.Fatalf("failed to build users: %v", err)
	}
	postRepository, err := posts.NewRepository(posts.RepositoryConfig{Identity: resolver, Writer: store})
	if err != nil {
		t.Fatalf("failed to build posts: %v", err)
	}
	commentRepository, err := NewRepository(RepositoryConfig{Identity: resolver, Writer: store})
	if err != nil {
		t.Fatalf("failed to build comments: %v", err)
	}
	return fixture{users: userRepository, posts: postRepository, comments: commentRepository}
}

func check(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRelationshipRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	check(t, f.users.Insert(ctx, users.CreateUserInput{Name: "John Doe", Email: "john@example.com"}))
	check(t, f.users.Insert(ctx, users.CreateUserInput{Name: "Jane Smith", Email: "jane@example.com"}))
	check(t, f.posts.Insert(ctx, posts.CreatePostInput{Title: "Getting Started with GraphQL", Content: "GraphQL is a powerful query language for APIs...", AuthorID: 1}))
	check(t, f.comments.Insert(ctx, CreateCommentInput{Content: "Great introduction to GraphQL!", PostID: 1, AuthorID: 2}))

	post, found := f.posts.Get(ctx, 1)
	if !found {
		t.Fatalf("expected post 1")
	}
	author, found := f.users.Get(ctx, post.AuthorID)
	if !found || author.Name != "John Doe" {
		t.Fatalf("post author resolved to %+v (found=%v)", author, found)
	}
	onPost := f.comments.ListByPost(ctx, post.ID)
	if len(onPost) != 1 || onPost[0].Content != "Great introduction to GraphQL!" {
		t.Fatalf("unexpected comments on post: %+v", onPost)
	}
	commenter, found := f.users.Get(ctx, onPost[0].AuthorID)
	if !found || commenter.Name != "Jane Smith" {
		t.Fatalf("comment author resolved to %+v (found=%v)", commenter, found)
	}
	if byAuthor := f.comments.ListByAuthor(ctx, 2); len(byAuthor) != 1 || byAuthor[0].ID != onPost[0].ID {
		t.Fatalf("unexpected comments by author: %+v", byAuthor)
	}
}

func TestListByPostIsOldestFirstWithGlobalIds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	check(t, f.comments.Insert(ctx, CreateCommentInput{Content: "first on one", PostID: 1, AuthorID: 1}))
	check(t, f.comments.Insert(ctx, CreateCommentInput{Content: "first on two", PostID: 2, AuthorID: 1}))
	check(t, f.comments.Insert(ctx, CreateCommentInput{Content: "second on one", PostID: 1, AuthorID: 2}))

	onPost := f.comments.ListByPost(ctx, 1)
	if len(onPost) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(onPost))
	}
	if onPost[0].ID != 1 || onPost[1].ID != 3 {
		t.Fatalf("expected ids 1 then 3, got %d then %d", onPost[0].ID, onPost[1].ID)
	}
	if !onPost[0].CreatedAt.Before(onPost[1].CreatedAt) {
		t.Fatalf("expected ascending created_at")
	}
	all := f.comments.List(ctx)
	if len(all) != 3 || all[0].Content != "second on one" {
		t.Fatalf("expected most recent comment first, got %+v", all)
	}
	if count := f.comments.Count(ctx); count != 3 {
		t.Fatalf("expected count 3, got %d", count)
	}
	if _, found := f.comments.Get(ctx, 4); found {
		t.Fatalf("expected id 4 to be absent")
	}
}

func TestInsertValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testCases := []struct {
		name  string
		input CreateCommentInput
		field string
	}{
		{name: "blank-content", input: CreateCommentInput{Content: "  ", PostID: 1, AuthorID: 1}, field: "content"},
		{name: "short-content", input: CreateCommentInput{Content: "ok", PostID: 1, AuthorID: 1}, field: "content"},
		{name: "zero-post", input: CreateCommentInput{Content: "Nice post", PostID: 0, AuthorID: 1}, field: "postId"},
		{name: "negative-author", input: CreateCommentInput{Content: "Nice post", PostID: 1, AuthorID: -1}, field: "authorId"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			validationErr, ok := validation.AsValidationError(f.comments.Insert(ctx, testCase.input))
			if !ok || validationErr.Field != testCase.field {
				t.Fatalf("expected %s validation error, got %v", testCase.field, validationErr)
			}
		})
	}
	if count := f.comments.Count(ctx); count != 0 {
		t.Fatalf("invalid input was stored: count=%d", count)
	}
}
