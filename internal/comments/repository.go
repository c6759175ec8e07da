// Package comments stores and lists comment rows.
package comments

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
	opRepositoryNew = "comments.repository.new"
	opList          = "comments.list"
	opListByPost    = "comments.list_by_post"
	opListByAuthor  = "comments.list_by_author"
	opGet           = "comments.get"
	opInsert        = "comments.insert"
	opCount         = "comments.count"
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

// Repository reads comments through ranked scans and appends through the writer.
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

// List returns every comment, most recent first.
func (r *Repository) List(ctx context.Context) []Comment {
	scan := commentScan
	scan.Direction = identity.Descending
	return r.list(ctx, opList, scan)
}

// ListByPost returns the comments on one post, oldest first.
func (r *Repository) ListByPost(ctx context.Context, postID int64) []Comment {
	scan := commentScan
	scan.Direction = identity.Ascending
	scan.Filter = &identity.Filter{Column: postIDColumn, Value: postID}
	return r.list(ctx, opListByPost, scan, zap.Int64("post_id", postID))
}

// ListByAuthor returns the comments written by one user, most recent first.
func (r *Repository) ListByAuthor(ctx context.Context, authorID int64) []Comment {
	scan := commentScan
	scan.Direction = identity.Descending
	scan.Filter = &identity.Filter{Column: authorIDColumn, Value: authorID}
	return r.list(ctx, opListByAuthor, scan, zap.Int64("author_id", authorID))
}

// Get returns the comment ranked at id.
func (r *Repository) Get(ctx context.Context, id int64) (Comment, bool) {
	record, found, err := r.identity.Get(ctx, commentScan, id)
	if err != nil {
		r.logError(opGet, "scan_failed", err, zap.Int64("id", id))
		return Comment{}, false
	}
	if !found {
		return Comment{}, false
	}
	comment, err := decodeComment(record)
	if err != nil {
		r.logError(opGet, "decode_failed", err, zap.Int64("id", id))
		return Comment{}, false
	}
	return comment, true
}

// Insert normalizes, validates and appends one comment. Referenced ids are
// not checked for existence.
func (r *Repository) Insert(ctx context.Context, input CreateCommentInput) error {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return err
	}
	_, err := r.writer.Append(ctx, storage.Row{
		Table: tableName,
		Columns: []storage.Column{
			{Name: "content", Value: storage.String(input.Content)},
			{Name: postIDColumn, Value: storage.Int(input.PostID)},
			{Name: authorIDColumn, Value: storage.Int(input.AuthorID)},
		},
		Stamps: []string{"created_at"},
	})
	if err != nil {
		r.logError(opInsert, "append_failed", err,
			zap.Int64("post_id", input.PostID),
			zap.Int64("author_id", input.AuthorID))
		return newRepositoryError(opInsert, "append_failed", err)
	}
	return nil
}

// Count returns the number of comments, zero on failure.
func (r *Repository) Count(ctx context.Context) int64 {
	count, err := r.identity.Count(ctx, tableName)
	if err != nil {
		r.logError(opCount, "count_failed", err)
		return 0
	}
	return count
}

func (r *Repository) list(ctx context.Context, operation string, scan identity.Scan, fields ...zap.Field) []Comment {
	records, err := r.identity.List(ctx, scan)
	if err != nil {
		r.logError(operation, "scan_failed", err, fields...)
		return []Comment{}
	}
	comments := make([]Comment, 0, len(records))
	for _, record := range records {
		comment, err := decodeComment(record)
		if err != nil {
			r.logError(operation, "decode_failed", err, append(fields, zap.Int64("id", record.ID))...)
			continue
		}
		comments = append(comments, comment)
	}
	return comments
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
	r.logger.Error("comments repository error", attrs...)
}
