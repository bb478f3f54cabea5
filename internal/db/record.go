package db

import (
	"database/sql"
	"strconv"
	"strings"
)

// record is one catalog row keyed by lowercase column name. Servers differ
// in the case they report information_schema column names in, and some
// columns exist only on some versions.
type record map[string]sql.NullString

func scanRecord(rows *sql.Rows, names []string) (record, error) {
	values := make([]sql.NullString, len(names))
	dest := make([]any, len(names))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	rec := make(record, len(names))
	for i, name := range names {
		rec[strings.ToLower(name)] = values[i]
	}
	return rec, nil
}

// str returns the value, or "" for NULL and missing columns.
func (r record) str(name string) string {
	return r[name].String
}

// ptr returns nil for NULL and missing columns.
func (r record) ptr(name string) *string {
	v, ok := r[name]
	if !ok || !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func (r record) int(name string) (int, bool) {
	v, ok := r[name]
	if !ok || !v.Valid {
		return 0, false
	}
	n, err := strconv.Atoi(v.String)
	if err != nil {
		return 0, false
	}
	return n, true
}
