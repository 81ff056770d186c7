// Package ddl contains SQLite-specific helpers for generating DDL.
package ddl

import (
	"strings"

	gddl "filmdw/internal/ddl"
)

// MapType maps a logical type into a SQLite column type. SQLite is
// dynamically typed, so this only picks the column affinity:
//   - integer-ish types -> INTEGER
//   - float/real        -> REAL
//   - numeric/decimal   -> NUMERIC
//   - date/time         -> TEXT (ISO-8601)
//   - varchar(n), text  -> TEXT
func MapType(kind string) string {
	if _, ok := gddl.VarcharLen(kind); ok {
		return "TEXT"
	}
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint", "smallint":
		return "INTEGER"
	case "bool", "boolean":
		return "INTEGER"
	case "float", "double", "real":
		return "REAL"
	case "numeric", "decimal":
		return "NUMERIC"
	case "date", "timestamp", "datetime", "timestamptz":
		return "TEXT"
	case "blob", "bytes":
		return "BLOB"
	default:
		return "TEXT"
	}
}
