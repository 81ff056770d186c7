// Package ddl contains Postgres-specific helpers for generating DDL.
package ddl

import (
	"fmt"
	"strings"

	gddl "filmdw/internal/ddl"
)

// MapType normalizes a logical type into a Postgres SQL type.
//
//	"int"/"integer"       -> INTEGER
//	"bigint"              -> BIGINT
//	"smallint"            -> SMALLINT
//	"float"/"double"      -> DOUBLE PRECISION
//	"numeric"/"decimal"   -> NUMERIC
//	"date"                -> DATE
//	"varchar(n)"          -> VARCHAR(n)
//	everything else       -> TEXT
func MapType(kind string) string {
	if n, ok := gddl.VarcharLen(kind); ok {
		return fmt.Sprintf("VARCHAR(%d)", n)
	}
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer":
		return "INTEGER"
	case "bigint":
		return "BIGINT"
	case "smallint":
		return "SMALLINT"
	case "float", "double", "real":
		return "DOUBLE PRECISION"
	case "numeric", "decimal":
		return "NUMERIC"
	case "bool", "boolean":
		return "BOOLEAN"
	case "date":
		return "DATE"
	case "timestamp", "timestamptz":
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}
