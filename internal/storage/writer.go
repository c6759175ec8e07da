package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	errMissingStamp = errors.New("row has no designated timestamp column")
	errUnsetValue   = errors.New("column value is not set")
)

// Column is one named value in an appended row.
type Column struct {
	Name  string
	Value Value
}

// Row is one append. Stamps names the timestamp columns the writer fills with
// the write time; the first one is the table's designated timestamp.
type Row struct {
	Table   string
	Columns []Column
	Stamps  []string
}

// Validate checks identifiers and the designated timestamp.
func (r Row) Validate() error {
	if !ValidIdentifier(r.Table) {
		return fmt.Errorf("%w: table %q", ErrInvalidIdentifier, r.Table)
	}
	if len(r.Stamps) == 0 {
		return errMissingStamp
	}
	for _, column := range r.Columns {
		if !ValidIdentifier(column.Name) {
			return fmt.Errorf("%w: column %q", ErrInvalidIdentifier, column.Name)
		}
		if !column.Value.IsString() && !column.Value.IsInt() && !column.Value.IsTimestamp() {
			return fmt.Errorf("%w: column %q", errUnsetValue, column.Name)
		}
	}
	for _, stamp := range r.Stamps {
		if !ValidIdentifier(stamp) {
			return fmt.Errorf("%w: column %q", ErrInvalidIdentifier, stamp)
		}
	}
	return nil
}

// RowWriter appends rows on the process-owned write path and returns the
// timestamp assigned to the row.
type RowWriter interface {
	Append(ctx context.Context, row Row) (time.Time, error)
}

// MonotonicClock issues strictly increasing microsecond timestamps, so rows
// written through one clock never share a created_at.
type MonotonicClock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// NewMonotonicClock wraps now; nil means time.Now.
func NewMonotonicClock(now func() time.Time) *MonotonicClock {
	if now == nil {
		now = time.Now
	}
	return &MonotonicClock{now: now}
}

// Next returns a timestamp later than every previous one.
func (c *MonotonicClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.now().UTC().Truncate(time.Microsecond)
	if !current.After(c.last) {
		current = c.last.Add(time.Microsecond)
	}
	c.last = current
	return current
}

// Observe advances the clock past t, typically the newest stored timestamp.
func (c *MonotonicClock) Observe(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t = t.UTC().Truncate(time.Microsecond)
	if t.After(c.last) {
		c.last = t
	}
}

// AppendHook runs after a successful append.
type AppendHook func(table string, at time.Time)

type observedWriter struct {
	next RowWriter
	hook AppendHook
}

// WithAppendHook decorates next with hook.
func WithAppendHook(next RowWriter, hook AppendHook) RowWriter {
	if hook == nil {
		return next
	}
	return &observedWriter{next: next, hook: hook}
}

func (w *observedWriter) Append(ctx context.Context, row Row) (time.Time, error) {
	at, err := w.next.Append(ctx, row)
	if err != nil {
		return at, err
	}
	w.hook(row.Table, at)
	return at, nil
}
