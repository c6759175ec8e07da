// Package storage talks to the time-series store: it submits statements,
// normalizes their rectangular results and appends rows on the single write path.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// HealthProbe is the canonical liveness statement.
const HealthProbe = "SELECT 1"

// Field describes one result column.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Result is a rectangular statement result. Cells hold int64, float64,
// string, bool, time.Time or nil.
type Result struct {
	Fields   []Field
	Rows     [][]any
	RowCount int
}

// Index returns the position of the named column or -1.
func (r Result) Index(name string) int {
	for i, field := range r.Fields {
		if field.Name == name {
			return i
		}
	}
	return -1
}

// Executor submits one statement and returns its result.
type Executor interface {
	Execute(ctx context.Context, statement Statement) (Result, error)
}

// QueryError reports a transport or storage failure for a statement.
type QueryError struct {
	Status  int
	Message string
	Err     error
}

func (e *QueryError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("storage: query failed (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("storage: query failed: %s", e.Message)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// WriteError reports an append whose effect could not be confirmed.
type WriteError struct {
	Table string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("storage: append to %s failed: %v", e.Table, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Ping runs the health probe through executor.
func Ping(ctx context.Context, executor Executor) error {
	if executor == nil {
		return &QueryError{Message: "executor not configured"}
	}
	_, err := executor.Execute(ctx, NewStatement(HealthProbe))
	return err
}

// asQueryError converts a transport failure into a QueryError, keeping the
// deadline cause visible to errors.Is.
func asQueryError(err error, timeout time.Duration) error {
	var queryErr *QueryError
	if errors.As(err, &queryErr) {
		return queryErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &QueryError{Message: fmt.Sprintf("statement timed out after %s", timeout), Err: err}
	}
	return &QueryError{Message: err.Error(), Err: err}
}

// NormalizeCell maps transport-specific cells onto the Result cell set.
func NormalizeCell(cell any) any {
	switch value := cell.(type) {
	case json.Number:
		if integer, err := value.Int64(); err == nil {
			return integer
		}
		if float, err := value.Float64(); err == nil {
			return float
		}
		return value.String()
	case int:
		return int64(value)
	case int8:
		return int64(value)
	case int16:
		return int64(value)
	case int32:
		return int64(value)
	case float32:
		return float64(value)
	case []byte:
		return string(value)
	case time.Time:
		return value.UTC()
	default:
		return value
	}
}
