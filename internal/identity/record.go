package identity

import (
	"fmt"
	"time"

	"github.com/MarcoPoloResearchLab/questgraph/internal/storage"
)

// Record is one ranked row.
type Record struct {
	ID     int64
	values map[string]any
}

// String reads a text column.
func (r Record) String(column string) (string, error) {
	cell, ok := r.values[column]
	if !ok {
		return "", fmt.Errorf("identity: column %q missing", column)
	}
	switch value := cell.(type) {
	case string:
		return value, nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("identity: column %q holds %T, want string", column, cell)
	}
}

// Int reads an integer column.
func (r Record) Int(column string) (int64, error) {
	cell, ok := r.values[column]
	if !ok {
		return 0, fmt.Errorf("identity: column %q missing", column)
	}
	switch value := cell.(type) {
	case int64:
		return value, nil
	case float64:
		if value != float64(int64(value)) {
			return 0, fmt.Errorf("identity: column %q holds non-integer %v", column, value)
		}
		return int64(value), nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("identity: column %q holds %T, want integer", column, cell)
	}
}

// Time reads a timestamp column.
func (r Record) Time(column string) (time.Time, error) {
	cell, ok := r.values[column]
	if !ok {
		return time.Time{}, fmt.Errorf("identity: column %q missing", column)
	}
	return storage.ParseTimestamp(cell)
}

func decodeRecords(result storage.Result) ([]Record, error) {
	idIndex := result.Index(IDColumn)
	if idIndex < 0 {
		return nil, fmt.Errorf("identity: result has no %s column", IDColumn)
	}
	records := make([]Record, 0, len(result.Rows))
	for _, row := range result.Rows {
		if len(row) != len(result.Fields) {
			return nil, fmt.Errorf("identity: row has %d cells for %d columns", len(row), len(result.Fields))
		}
		id, ok := row[idIndex].(int64)
		if !ok {
			return nil, fmt.Errorf("identity: id cell holds %T", row[idIndex])
		}
		values := make(map[string]any, len(row))
		for i, field := range result.Fields {
			values[field.Name] = row[i]
		}
		records = append(records, Record{ID: id, values: values})
	}
	return records, nil
}
