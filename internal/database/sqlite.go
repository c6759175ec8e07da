package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/questgraph/internal/storage"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var errMissingDatabase = errors.New("database: connection is required")

// OpenSQLite opens the embedded store and creates the entity tables.
func OpenSQLite(path string, log *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&UserRecord{}, &PostRecord{}, &CommentRecord{}); err != nil {
		return nil, err
	}

	if log != nil {
		log.Info("database initialized", zap.String("path", path))
	}

	return db, nil
}

// SQLiteStore serves the executor and writer contracts from the embedded
// store. Timestamps are kept as storage.TimestampLayout text.
type SQLiteStore struct {
	db    *gorm.DB
	clock *storage.MonotonicClock
}

// NewSQLiteStore wraps an opened database.
func NewSQLiteStore(db *gorm.DB, clock *storage.MonotonicClock) (*SQLiteStore, error) {
	if db == nil {
		return nil, errMissingDatabase
	}
	if clock == nil {
		clock = storage.NewMonotonicClock(nil)
	}
	return &SQLiteStore{db: db, clock: clock}, nil
}

// Execute runs statement with bound arguments.
func (s *SQLiteStore) Execute(ctx context.Context, statement storage.Statement) (storage.Result, error) {
	text, args, err := statement.Positional()
	if err != nil {
		return storage.Result{}, &storage.QueryError{Message: err.Error(), Err: err}
	}

	rows, err := s.db.WithContext(ctx).Raw(text, bindable(args)...).Rows()
	if err != nil {
		return storage.Result{}, &storage.QueryError{Message: err.Error(), Err: err}
	}
	defer rows.Close()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return storage.Result{}, &storage.QueryError{Message: err.Error(), Err: err}
	}
	fields := make([]storage.Field, 0, len(columnTypes))
	for _, columnType := range columnTypes {
		fields = append(fields, storage.Field{Name: columnType.Name(), Type: strings.ToUpper(columnType.DatabaseTypeName())})
	}

	result := storage.Result{Fields: fields, Rows: make([][]any, 0)}
	for rows.Next() {
		cells := make([]any, len(fields))
		targets := make([]any, len(fields))
		for i := range cells {
			targets[i] = &cells[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return storage.Result{}, &storage.QueryError{Message: err.Error(), Err: err}
		}
		for i, cell := range cells {
			cells[i] = storage.NormalizeCell(cell)
		}
		result.Rows = append(result.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return storage.Result{}, &storage.QueryError{Message: err.Error(), Err: err}
	}
	result.RowCount = len(result.Rows)
	return result, nil
}

// Append inserts row, stamping its timestamp columns.
func (s *SQLiteStore) Append(ctx context.Context, row storage.Row) (time.Time, error) {
	if err := row.Validate(); err != nil {
		return time.Time{}, &storage.WriteError{Table: row.Table, Err: err}
	}

	stamp := s.clock.Next()
	columns := make([]string, 0, len(row.Columns)+len(row.Stamps))
	args := make([]any, 0, cap(columns))
	for _, column := range row.Columns {
		columns = append(columns, column.Name)
		args = append(args, column.Value.Native())
	}
	for _, name := range row.Stamps {
		columns = append(columns, name)
		args = append(args, stamp)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", row.Table, strings.Join(columns, ", "), placeholders)
	if err := s.db.WithContext(ctx).Exec(insert, bindable(args)...).Error; err != nil {
		return time.Time{}, &storage.WriteError{Table: row.Table, Err: err}
	}
	return stamp, nil
}

// bindable converts timestamps to their stored text form.
func bindable(args []any) []any {
	converted := make([]any, len(args))
	for i, arg := range args {
		if instant, ok := arg.(time.Time); ok {
			converted[i] = storage.FormatTimestamp(instant)
			continue
		}
		converted[i] = arg
	}
	return converted
}
