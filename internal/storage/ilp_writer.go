package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	qdb "github.com/questdb/go-questdb-client/v3"
	"go.uber.org/zap"
)

var errMissingILPConf = errors.New("storage: questdb ilp configuration is required")

// ILPWriterConfig configures the ILP writer.
type ILPWriterConfig struct {
	// Conf is a go-questdb-client configuration string, e.g. "http::addr=localhost:9000;".
	Conf   string
	Clock  *MonotonicClock
	Logger *zap.Logger
}

// ILPWriter owns the single line sender of the process. Appends are
// serialized and flushed one row at a time.
type ILPWriter struct {
	mu     sync.Mutex
	sender qdb.LineSender
	clock  *MonotonicClock
	logger *zap.Logger
}

// NewILPWriter opens the line sender.
func NewILPWriter(ctx context.Context, cfg ILPWriterConfig) (*ILPWriter, error) {
	conf := strings.TrimSpace(cfg.Conf)
	if conf == "" {
		return nil, errMissingILPConf
	}
	sender, err := qdb.LineSenderFromConf(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("storage: open line sender: %w", err)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = NewMonotonicClock(nil)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ILPWriter{sender: sender, clock: clock, logger: logger}, nil
}

// Append writes row and flushes it. The row is acknowledged, not necessarily
// visible to readers yet.
func (w *ILPWriter) Append(ctx context.Context, row Row) (time.Time, error) {
	if err := row.Validate(); err != nil {
		return time.Time{}, &WriteError{Table: row.Table, Err: err}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	stamp := w.clock.Next()
	line := w.sender.Table(row.Table)
	for _, column := range row.Columns {
		switch {
		case column.Value.IsInt():
			line = line.Int64Column(column.Name, column.Value.Number())
		case column.Value.IsTimestamp():
			line = line.TimestampColumn(column.Name, column.Value.Instant())
		case column.Value.IsString():
			line = line.StringColumn(column.Name, column.Value.Text())
		}
	}
	for _, extra := range row.Stamps[1:] {
		line = line.TimestampColumn(extra, stamp)
	}
	if err := line.At(ctx, stamp); err != nil {
		w.logger.Error("ilp row rejected", zap.String("table", row.Table), zap.Error(err))
		return time.Time{}, &WriteError{Table: row.Table, Err: err}
	}
	if err := w.sender.Flush(ctx); err != nil {
		w.logger.Error("ilp flush failed", zap.String("table", row.Table), zap.Error(err))
		return time.Time{}, &WriteError{Table: row.Table, Err: err}
	}
	w.logger.Debug("row appended", zap.String("table", row.Table), zap.Time("created_at", stamp))
	return stamp, nil
}

// Close flushes and closes the sender.
func (w *ILPWriter) Close(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sender.Close(ctx)
}
