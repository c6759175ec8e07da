// Package graph serves the GraphQL schema over the entity repositories.
package graph

import (
	"context"
	"errors"

	"github.com/MarcoPoloResearchLab/questgraph/internal/comments"
	"github.com/MarcoPoloResearchLab/questgraph/internal/posts"
	"github.com/MarcoPoloResearchLab/questgraph/internal/seed"
	"github.com/MarcoPoloResearchLab/questgraph/internal/users"
	"github.com/graphql-go/graphql"
	"go.uber.org/zap"
)

// DefaultVersion is reported by the version query when none is configured.
const DefaultVersion = "1.0.0"

var (
	errMissingRepository = errors.New("graph: users, posts and comments repositories are required")
	errMissingSeeder     = errors.New("graph: seeder is required")
)

// UserRepository is the users surface the schema reads and writes.
type UserRepository interface {
	List(ctx context.Context) []users.User
	Get(ctx context.Context, id int64) (users.User, bool)
	Insert(ctx context.Context, input users.CreateUserInput) error
	Count(ctx context.Context) int64
}

// PostRepository is the posts surface the schema reads and writes.
type PostRepository interface {
	List(ctx context.Context) []posts.Post
	ListByAuthor(ctx context.Context, authorID int64) []posts.Post
	Get(ctx context.Context, id int64) (posts.Post, bool)
	Insert(ctx context.Context, input posts.CreatePostInput) error
	Count(ctx context.Context) int64
}

// CommentRepository is the comments surface the schema reads and writes.
type CommentRepository interface {
	List(ctx context.Context) []comments.Comment
	ListByPost(ctx context.Context, postID int64) []comments.Comment
	ListByAuthor(ctx context.Context, authorID int64) []comments.Comment
	Insert(ctx context.Context, input comments.CreateCommentInput) error
	Count(ctx context.Context) int64
}

// Seeder loads the sample data set.
type Seeder interface {
	Seed(ctx context.Context) error
}

// Config describes the service dependencies.
type Config struct {
	Users    UserRepository
	Posts    PostRepository
	Comments CommentRepository
	Seeder   Seeder
	// BatchRelations answers nested fields from one scan per table per request.
	BatchRelations bool
	Version        string
	Logger         *zap.Logger
}

// Request is one GraphQL operation.
type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

// Service executes GraphQL requests.
type Service struct {
	users    UserRepository
	posts    PostRepository
	comments CommentRepository
	seeder   Seeder
	direct   directRelations
	batch    bool
	version  string
	logger   *zap.Logger
	schema   graphql.Schema
}

// NewService builds the schema.
func NewService(cfg Config) (*Service, error) {
	if cfg.Users == nil || cfg.Posts == nil || cfg.Comments == nil {
		return nil, errMissingRepository
	}
	if cfg.Seeder == nil {
		return nil, errMissingSeeder
	}
	version := cfg.Version
	if version == "" {
		version = DefaultVersion
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	service := &Service{
		users:    cfg.Users,
		posts:    cfg.Posts,
		comments: cfg.Comments,
		seeder:   cfg.Seeder,
		direct:   directRelations{users: cfg.Users, posts: cfg.Posts, comments: cfg.Comments},
		batch:    cfg.BatchRelations,
		version:  version,
		logger:   logger,
	}
	schema, err := service.buildSchema()
	if err != nil {
		return nil, err
	}
	service.schema = schema
	return service, nil
}

// Do executes request. Field errors are reported in the result.
func (s *Service) Do(ctx context.Context, request Request) *graphql.Result {
	if s.batch {
		ctx = withRelations(ctx, newSnapshotRelations(s.direct))
	}
	return graphql.Do(graphql.Params{
		Schema:         s.schema,
		RequestString:  request.Query,
		OperationName:  request.OperationName,
		VariableValues: request.Variables,
		Context:        ctx,
	})
}

func (s *Service) stats(ctx context.Context) seed.Stats {
	return seed.CollectStats(ctx, s.users, s.posts, s.comments)
}

func (s *Service) logError(operation string, err error) {
	s.logger.Error("graph resolver error",
		zap.String("operation", operation),
		zap.Error(err))
}
