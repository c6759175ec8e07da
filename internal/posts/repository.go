// Package posts stores and lists post rows.
package posts

import (
	"context"
	"errors"
	"fmt"

	"github.com/MarcoPoloResearchLab/questgraph/internal/identity"
	"github.com/MarcoPoloResearchLab/questgraph/internal/storage"
	"go.uber.org/zap"
)

var (
	errMissingResolver = errors.New("identity resolver is required")
	errMissingWriter   = errors.New("row writer is required")
)

const (
	opRepositoryNew = "posts.repository.new"
	opList          = "posts.list"
	opListByAuthor  = "posts.list_by_author"
	opGet           = "posts.get"
	opInsert        = "posts.insert"
	opCount         = "posts.count"
)

// RepositoryError carries an operation.reason code.
type RepositoryError struct {
	code string
	err  error
}

func (e *RepositoryError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *RepositoryError) Unwrap() error {
	return e.err
}

// Code returns the operation.reason code.
func (e *RepositoryError) Code() string {
	return e.code
}

func newRepositoryError(operation, reason string, cause error) error {
	return &RepositoryError{code: operation + "." + reason, err: cause}
}

// RepositoryConfig describes the repository dependencies.
type RepositoryConfig struct {
	Identity *identity.Resolver
	Writer   storage.RowWriter
	Logger   *zap.Logger
}

// Repository reads posts through ranked scans and appends through the writer.
type Repository struct {
	identity *identity.Resolver
	writer   storage.RowWriter
	logger   *zap.Logger
}

// NewRepository validates cfg.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.Identity == nil {
		return nil, newRepositoryError(opRepositoryNew, "missing_identity", errMissingResolver)
	}
	if cfg.Writer == nil {
		return nil, newRepositoryError(opRepositoryNew, "missing_writer", errMissingWriter)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{identity: cfg.Identity, writer: cfg.Writer, logger: logger}, nil
}

// List returns every post, most recent first.
func (r *Repository) List(ctx context.Context) []Post {
	scan := postScan
	scan.Direction = identity.Descending
	return r.list(ctx, opList, scan)
}

// ListByAuthor returns the posts of one author, most recent first. Post ids
// stay global.
func (r *Repository) ListByAuthor(ctx context.Context, authorID int64) []Post {
	scan := postScan
	scan.Direction = identity.Descending
	scan.Filter = &identity.Filter{Column: authorIDColumn, Value: authorID}
	return r.list(ctx, opListByAuthor, scan, zap.Int64("author_id", authorID))
}

// Get returns the post ranked at id.
func (r *Repository) Get(ctx context.Context, id int64) (Post, bool) {
	record, found, err := r.identity.Get(ctx, postScan, id)
	if err != nil {
		r.logError(opGet, "scan_failed", err, zap.Int64("id", id))
		return Post{}, false
	}
	if !found {
		return Post{}, false
	}
	post, err := decodePost(record)
	if err != nil {
		r.logError(opGet, "decode_failed", err, zap.Int64("id", id))
		return Post{}, false
	}
	return post, true
}

// Insert normalizes, validates and appends one post. created_at and
// updated_at receive the same write time.
func (r *Repository) Insert(ctx context.Context, input CreatePostInput) error {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return err
	}
	_, err := r.writer.Append(ctx, storage.Row{
		Table: tableName,
		Columns: []storage.Column{
			{Name: "title", Value: storage.String(input.Title)},
			{Name: "content", Value: storage.String(input.Content)},
			{Name: authorIDColumn, Value: storage.Int(input.AuthorID)},
		},
		Stamps: []string{"created_at", "updated_at"},
	})
	if err != nil {
		r.logError(opInsert, "append_failed", err, zap.Int64("author_id", input.AuthorID))
		return newRepositoryError(opInsert, "append_failed", err)
	}
	return nil
}

// Count returns the number of posts, zero on failure.
func (r *Repository) Count(ctx context.Context) int64 {
	count, err := r.identity.Count(ctx, tableName)
	if err != nil {
		r.logError(opCount, "count_failed", err)
		return 0
	}
	return count
}

func (r *Repository) list(ctx context.Context, operation string, scan identity.Scan, fields ...zap.Field) []Post {
	records, err := r.identity.List(ctx, scan)
	if err != nil {
		r.logError(operation, "scan_failed", err, fields...)
		return []Post{}
	}
	posts := make([]Post, 0, len(records))
	for _, record := range records {
		post, err := decodePost(record)
		if err != nil {
			r.logError(operation, "decode_failed", err, append(fields, zap.Int64("id", record.ID))...)
			continue
		}
		posts = append(posts, post)
	}
	return posts
}

func (r *Repository) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	r.logger.Error("posts repository error", attrs...)
}
