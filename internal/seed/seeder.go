// Package seed loads the sample data set and runs the startup bootstrap.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/MarcoPoloResearchLab/questgraph/internal/comments"
	"github.com/MarcoPoloResearchLab/questgraph/internal/posts"
	"github.com/MarcoPoloResearchLab/questgraph/internal/users"
	"go.uber.org/zap"
)

var errMissingRepository = errors.New("seed: users, posts and comments repositories are required")

// UserStore is the users repository surface the seeder needs.
type UserStore interface {
	Insert(ctx context.Context, input users.CreateUserInput) error
	Count(ctx context.Context) int64
}

// PostStore is the posts repository surface the seeder needs.
type PostStore interface {
	Insert(ctx context.Context, input posts.CreatePostInput) error
	Count(ctx context.Context) int64
}

// CommentStore is the comments repository surface the seeder needs.
type CommentStore interface {
	Insert(ctx context.Context, input comments.CreateCommentInput) error
	Count(ctx context.Context) int64
}

// Fixture is the sample data set. Foreign keys are positional ids that hold
// when the fixture is loaded into empty tables.
type Fixture struct {
	Users    []users.CreateUserInput
	Posts    []posts.CreatePostInput
	Comments []comments.CreateCommentInput
}

// DefaultFixture returns the sample users, posts and comments.
func DefaultFixture() Fixture {
	return Fixture{
		Users: []users.CreateUserInput{
			{Name: "John Doe", Email: "john@example.com"},
			{Name: "Jane Smith", Email: "jane@example.com"},
			{Name: "Bob Wilson", Email: "bob@example.com"},
		},
		Posts: []posts.CreatePostInput{
			{Title: "Getting Started with GraphQL", Content: "GraphQL is a powerful query language for APIs...", AuthorID: 1},
			{Title: "QuestDB Time Series Database", Content: "QuestDB is optimized for time-series data...", AuthorID: 2},
			{Title: "TypeScript Best Practices", Content: "Here are some TypeScript tips and tricks...", AuthorID: 1},
		},
		Comments: []comments.CreateCommentInput{
			{Content: "Great introduction to GraphQL!", PostID: 1, AuthorID: 2},
			{Content: "Very helpful, thanks for sharing.", PostID: 1, AuthorID: 3},
			{Content: "QuestDB performance is impressive.", PostID: 2, AuthorID: 1},
		},
	}
}

// SeederConfig describes the seeder dependencies.
type SeederConfig struct {
	Users    UserStore
	Posts    PostStore
	Comments CommentStore
	Fixture  *Fixture
	Logger   *zap.Logger
}

// Seeder inserts a fixture through the repositories.
type Seeder struct {
	users    UserStore
	posts    PostStore
	comments CommentStore
	fixture  Fixture
	logger   *zap.Logger
}

// NewSeeder validates cfg. A nil fixture means DefaultFixture.
func NewSeeder(cfg SeederConfig) (*Seeder, error) {
	if cfg.Users == nil || cfg.Posts == nil || cfg.Comments == nil {
		return nil, errMissingRepository
	}
	fixture := DefaultFixture()
	if cfg.Fixture != nil {
		fixture = *cfg.Fixture
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		users:    cfg.Users,
		posts:    cfg.Posts,
		comments: cfg.Comments,
		fixture:  fixture,
		logger:   logger,
	}, nil
}

// Seed inserts every fixture row in order, users then posts then comments,
// each insert completing before the next starts. It stops at the first
// failure; rows already written stay.
func (s *Seeder) Seed(ctx context.Context) error {
	for index, input := range s.fixture.Users {
		if err := s.users.Insert(ctx, input); err != nil {
			return fmt.Errorf("seed: user %d: %w", index+1, err)
		}
	}
	for index, input := range s.fixture.Posts {
		if err := s.posts.Insert(ctx, input); err != nil {
			return fmt.Errorf("seed: post %d: %w", index+1, err)
		}
	}
	for index, input := range s.fixture.Comments {
		if err := s.comments.Insert(ctx, input); err != nil {
			return fmt.Errorf("seed: comment %d: %w", index+1, err)
		}
	}
	s.logger.Info("database seeded",
		zap.Int("users", len(s.fixture.Users)),
		zap.Int("posts", len(s.fixture.Posts)),
		zap.Int("comments", len(s.fixture.Comments)))
	return nil
}

// Stats counts the three tables concurrently.
func (s *Seeder) Stats(ctx context.Context) Stats {
	return CollectStats(ctx, s.users, s.posts, s.comments)
}
