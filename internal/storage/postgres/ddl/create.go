package ddl

import (
	"fmt"
	"strings"

	gddl "filmdw/internal/ddl"
)

// BuildCreateTableSQL returns a CREATE TABLE IF NOT EXISTS statement. Names
// are folded to lower case and quoted, which addresses the same tables as
// unquoted DDL written by hand.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	cols, err := gddl.RenderColumns(t, QuoteIdent)
	if err != nil {
		return "", fmt.Errorf("postgres %w", err)
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		gddl.QuoteFQN(t.FQN, QuoteIdent),
		strings.Join(cols, ",\n  "),
	), nil
}

// QuoteIdent folds id to lower case and double-quotes it.
func QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(strings.ToLower(id), `"`, `""`) + `"`
}
