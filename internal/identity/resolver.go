// Package identity synthesizes integer ids over append-only tables.
//
// A row's id is its 1-based row_number() when the whole table is ranked by
// created_at ascending. Ids are recomputed by every scan and are not stored:
// a row inserted with an earlier or equal created_at shifts the ids of every
// later row. Foreign-key filters are applied after ranking, so filtered
// listings report the same ids as a whole-table scan.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MarcoPoloResearchLab/questgraph/internal/storage"
)

const (
	// IDColumn is the synthetic id column of ranked scans.
	IDColumn = "id"
	// OrderColumn is the column ids are ranked by.
	OrderColumn = "created_at"
)

var errMissingExecutor = errors.New("identity: executor is required")

// Direction orders a ranked listing.
type Direction string

const (
	// Ascending lists oldest first.
	Ascending Direction = "ASC"
	// Descending lists most recent first.
	Descending Direction = "DESC"
)

// Filter restricts a scan to rows whose integer column equals Value.
type Filter struct {
	Column string
	Value  int64
}

// Scan describes a ranked read of one table.
type Scan struct {
	Table     string
	Columns   []string
	Filter    *Filter
	Direction Direction
}

// Resolver issues ranked scans through an executor.
type Resolver struct {
	executor storage.Executor
}

// NewResolver builds a resolver.
func NewResolver(executor storage.Executor) (*Resolver, error) {
	if executor == nil {
		return nil, errMissingExecutor
	}
	return &Resolver{executor: executor}, nil
}

// List runs the scan and returns rows in the requested direction with ids
// assigned from scratch.
func (r *Resolver) List(ctx context.Context, scan Scan) ([]Record, error) {
	statement, err := rankedStatement(scan, nil)
	if err != nil {
		return nil, err
	}
	result, err := r.executor.Execute(ctx, statement)
	if err != nil {
		return nil, err
	}
	return decodeRecords(result)
}

// Get returns the row ranked at id. Ids below one are absent without a round trip.
func (r *Resolver) Get(ctx context.Context, scan Scan, id int64) (Record, bool, error) {
	if id <= 0 {
		return Record{}, false, nil
	}
	scan.Filter = nil
	statement, err := rankedStatement(scan, &id)
	if err != nil {
		return Record{}, false, err
	}
	result, err := r.executor.Execute(ctx, statement)
	if err != nil {
		return Record{}, false, err
	}
	records, err := decodeRecords(result)
	if err != nil {
		return Record{}, false, err
	}
	if len(records) == 0 {
		return Record{}, false, nil
	}
	return records[0], true, nil
}

// Count returns the number of rows in table.
func (r *Resolver) Count(ctx context.Context, table string) (int64, error) {
	if !storage.ValidIdentifier(table) {
		return 0, fmt.Errorf("%w: table %q", storage.ErrInvalidIdentifier, table)
	}
	result, err := r.executor.Execute(ctx, storage.NewStatement("SELECT count(*) FROM "+table))
	if err != nil {
		return 0, err
	}
	if len(result.Rows) == 0 || len(result.Rows[0]) == 0 {
		return 0, nil
	}
	count, ok := result.Rows[0][0].(int64)
	if !ok {
		return 0, fmt.Errorf("identity: unexpected count cell %T", result.Rows[0][0])
	}
	return count, nil
}

// rankedStatement ranks the whole table in a subquery, then filters and orders
// the outer query. The rank key is always created_at ascending.
func rankedStatement(scan Scan, id *int64) (storage.Statement, error) {
	if !storage.ValidIdentifier(scan.Table) {
		return storage.Statement{}, fmt.Errorf("%w: table %q", storage.ErrInvalidIdentifier, scan.Table)
	}
	columns := make([]string, 0, len(scan.Columns)+1)
	hasOrderColumn := false
	for _, column := range scan.Columns {
		if !storage.ValidIdentifier(column) || column == IDColumn {
			return storage.Statement{}, fmt.Errorf("%w: column %q", storage.ErrInvalidIdentifier, column)
		}
		if column == OrderColumn {
			hasOrderColumn = true
		}
		columns = append(columns, column)
	}
	if !hasOrderColumn {
		columns = append(columns, OrderColumn)
	}
	direction := scan.Direction
	if direction != Descending {
		direction = Ascending
	}

	columnList := strings.Join(columns, ", ")
	var builder strings.Builder
	builder.WriteString("SELECT ")
	builder.WriteString(IDColumn + ", " + columnList)
	builder.WriteString(" FROM (SELECT row_number() OVER (ORDER BY " + OrderColumn + ") AS " + IDColumn + ", " + columnList)
	builder.WriteString(" FROM " + scan.Table + ") ranked")

	var args []storage.Value
	switch {
	case id != nil:
		builder.WriteString(" WHERE " + IDColumn + " = ?")
		args = append(args, storage.Int(*id))
	case scan.Filter != nil:
		if !storage.ValidIdentifier(scan.Filter.Column) {
			return storage.Statement{}, fmt.Errorf("%w: column %q", storage.ErrInvalidIdentifier, scan.Filter.Column)
		}
		builder.WriteString(" WHERE " + scan.Filter.Column + " = ?")
		args = append(args, storage.Int(scan.Filter.Value))
	}
	builder.WriteString(" ORDER BY " + OrderColumn + " " + string(direction))

	return storage.NewStatement(builder.String(), args...), nil
}
