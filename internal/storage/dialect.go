package storage

import (
	"context"
	"fmt"
	"strings"
)

// Table names an insert target: its columns, in bind order, and the single
// key column whose conflicts are skipped.
type Table struct {
	Name    string
	Columns []string
	Key     string
}

// Dialect renders backend-specific SQL.
type Dialect interface {
	Name() string
	// Quote quotes one identifier.
	Quote(ident string) string
	// Placeholder returns the n-th (1-based) bind parameter.
	Placeholder(n int) string
	// InsertIgnore renders a statement inserting nrows rows into t, silently
	// skipping rows whose key already exists.
	InsertIgnore(t Table, nrows int) string
	// MaxParams bounds the bind parameters of one statement.
	MaxParams() int
}

// Values renders "(p1, p2), (p3, p4), ..." for nrows rows of ncols columns.
func Values(d Dialect, ncols, nrows int) string {
	var sb strings.Builder
	n := 1
	for r := 0; r < nrows; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for c := 0; c < ncols; c++ {
			if c > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(d.Placeholder(n))
			n++
		}
		sb.WriteByte(')')
	}
	return sb.String()
}

// ColumnList renders the quoted, comma-separated column list of t.
func ColumnList(d Dialect, cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = d.Quote(c)
	}
	return strings.Join(q, ", ")
}

// BatchLimit caps want so one statement for t stays under d.MaxParams.
func BatchLimit(d Dialect, t Table, want int) int {
	if want <= 0 {
		want = 1
	}
	if len(t.Columns) == 0 {
		return want
	}
	max := d.MaxParams() / len(t.Columns)
	if max < 1 {
		max = 1
	}
	if want > max {
		return max
	}
	return want
}

// InsertIgnore inserts rows into t through x, in chunks that respect the
// dialect's parameter limit, and returns how many rows were actually
// inserted. It stops at the first failing chunk.
func InsertIgnore(ctx context.Context, x Execer, d Dialect, t Table, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	step := BatchLimit(d, t, len(rows))

	var total int64
	for start := 0; start < len(rows); start += step {
		end := start + step
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]
		args := make([]any, 0, len(chunk)*len(t.Columns))
		for i, r := range chunk {
			if len(r) != len(t.Columns) {
				return total, fmt.Errorf("%s: row %d has %d values, want %d", t.Name, start+i, len(r), len(t.Columns))
			}
			args = append(args, r...)
		}
		n, err := x.Exec(ctx, d.InsertIgnore(t, len(chunk)), args...)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
