// Package ddl defines a small, backend-agnostic model for SQL DDL and helpers
// to render CREATE TABLE statements from that model.
//
// The generic renderer does not quote identifiers unless given a quoting
// function and never adds dialect clauses such as IF NOT EXISTS. Backend
// packages (internal/storage/<kind>/ddl) wrap RenderColumns with their own
// statement shape and type mapping.
package ddl

import (
	"fmt"
	"strconv"
	"strings"
)

// Identity leaves identifiers as written.
func Identity(s string) string { return s }

// RenderColumns validates t and returns its column clauses followed by a
// PRIMARY KEY clause when any column is part of the key. Identifiers pass
// through quote.
//
// A column is rendered as:
//
//	<Name> <SQLType> [NOT NULL] [DEFAULT <Default>]
func RenderColumns(t TableDef, quote func(string) string) ([]string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return nil, fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("ddl: at least one column is required")
	}
	if quote == nil {
		quote = Identity
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, 1)
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return nil, fmt.Errorf("ddl: column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, quote(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}
	return cols, nil
}

// BuildCreateTableSQL renders a plain CREATE TABLE statement with
// identifiers emitted verbatim:
//
//	CREATE TABLE <FQN> (
//	  <col1-def>,
//	  ...,
//	  [PRIMARY KEY (<pk-cols>)]
//	);
func BuildCreateTableSQL(t TableDef) (string, error) {
	cols, err := RenderColumns(t, Identity)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", strings.TrimSpace(t.FQN), strings.Join(cols, ",\n  ")), nil
}

// QuoteFQN splits a dotted name and quotes each non-empty segment.
func QuoteFQN(fqn string, quote func(string) string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, quote(p))
	}
	return strings.Join(out, ".")
}

// VarcharLen reports n for a logical "varchar(n)" type.
func VarcharLen(kind string) (int, bool) {
	k := strings.ToLower(strings.TrimSpace(kind))
	if !strings.HasPrefix(k, "varchar(") || !strings.HasSuffix(k, ")") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(k[len("varchar(") : len(k)-1]))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
