// Package users stores and lists user rows.
package users

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
	opRepositoryNew = "users.repository.new"
	opList          = "users.list"
	opGet           = "users.get"
	opInsert        = "users.insert"
	opCount         = "users.count"
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

// Repository reads users through ranked scans and appends through the writer.
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

// List returns every user, most recent first. Failures yield an empty list.
func (r *Repository) List(ctx context.Context) []User {
	scan := userScan
	scan.Direction = identity.Descending
	records, err := r.identity.List(ctx, scan)
	if err != nil {
		r.logError(opList, "scan_failed", err)
		return []User{}
	}
	return r.decodeAll(opList, records)
}

// Get returns the user ranked at id.
func (r *Repository) Get(ctx context.Context, id int64) (User, bool) {
	record, found, err := r.identity.Get(ctx, userScan, id)
	if err != nil {
		r.logError(opGet, "scan_failed", err, zap.Int64("id", id))
		return User{}, false
	}
	if !found {
		return User{}, false
	}
	user, err := decodeUser(record)
	if err != nil {
		r.logError(opGet, "decode_failed", err, zap.Int64("id", id))
		return User{}, false
	}
	return user, true
}

// Insert normalizes, validates and appends one user.
func (r *Repository) Insert(ctx context.Context, input CreateUserInput) error {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return err
	}
	_, err := r.writer.Append(ctx, storage.Row{
		Table: tableName,
		Columns: []storage.Column{
			{Name: "name", Value: storage.String(input.Name)},
			{Name: "email", Value: storage.String(input.Email)},
		},
		Stamps: []string{"created_at"},
	})
	if err != nil {
		r.logError(opInsert, "append_failed", err, zap.String("email", input.Email))
		return newRepositoryError(opInsert, "append_failed", err)
	}
	return nil
}

// Count returns the number of users, zero on failure.
func (r *Repository) Count(ctx context.Context) int64 {
	count, err := r.identity.Count(ctx, tableName)
	if err != nil {
		r.logError(opCount, "count_failed", err)
		return 0
	}
	return count
}

func (r *Repository) decodeAll(operation string, records []identity.Record) []User {
	users := make([]User, 0, len(records))
	for _, record := range records {
		user, err := decodeUser(record)
		if err != nil {
			r.logError(operation, "decode_failed", err, zap.Int64("id", record.ID))
			continue
		}
		users = append(users, user)
	}
	return users
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
	r.logger.Error("users repository error", attrs...)
}
