package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultPGMaxConns = 8

var errMissingDSN = errors.New("storage: questdb pg wire dsn is required")

// PGExecutorConfig configures the PG wire executor.
type PGExecutorConfig struct {
	DSN      string
	MaxConns int32
	Timeout  time.Duration
}

// PGExecutor submits statements over the QuestDB PostgreSQL wire endpoint
// with bound parameters.
type PGExecutor struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewPGExecutor connects a pool to the PG wire endpoint.
func NewPGExecutor(ctx context.Context, cfg PGExecutorConfig) (*PGExecutor, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errMissingDSN
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: parse pg dsn: %w", err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	if poolConfig.MaxConns <= 0 {
		poolConfig.MaxConns = defaultPGMaxConns
	}
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
	poolConfig.ConnConfig.StatementCacheCapacity = 64

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("storage: connect pg wire: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &PGExecutor{pool: pool, timeout: timeout}, nil
}

// Execute runs statement with bound arguments.
func (e *PGExecutor) Execute(ctx context.Context, statement Statement) (Result, error) {
	text, args, err := statement.Numbered()
	if err != nil {
		return Result{}, &QueryError{Message: err.Error(), Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rows, err := e.pool.Query(ctx, text, args...)
	if err != nil {
		return Result{}, pgQueryError(err, e.timeout)
	}
	defer rows.Close()

	descriptions := rows.FieldDescriptions()
	fields := make([]Field, 0, len(descriptions))
	typeMap := rows.Conn().TypeMap()
	for _, description := range descriptions {
		typeName := strconv.FormatUint(uint64(description.DataTypeOID), 10)
		if dataType, ok := typeMap.TypeForOID(description.DataTypeOID); ok {
			typeName = dataType.Name
		}
		fields = append(fields, Field{Name: description.Name, Type: typeName})
	}

	result := Result{Fields: fields, Rows: make([][]any, 0)}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return Result{}, pgQueryError(err, e.timeout)
		}
		row := make([]any, len(values))
		for i, value := range values {
			row[i] = NormalizeCell(value)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return Result{}, pgQueryError(err, e.timeout)
	}
	result.RowCount = len(result.Rows)
	return result, nil
}

// Close releases the pool.
func (e *PGExecutor) Close() {
	e.pool.Close()
}

func pgQueryError(err error, timeout time.Duration) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &QueryError{Message: pgErr.Message, Err: err}
	}
	return asQueryError(err, timeout)
}
