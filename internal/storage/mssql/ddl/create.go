package ddl

import (
	"fmt"
	"strings"

	gddl "filmdw/internal/ddl"
)

// BuildCreateTableSQL returns a T-SQL script creating the table unless it
// already exists. T-SQL has no CREATE TABLE IF NOT EXISTS, so the statement
// is wrapped in an OBJECT_ID guard:
//
//	IF OBJECT_ID(N'[dbo].[DimFilm]', N'U') IS NULL
//	BEGIN
//	  CREATE TABLE [dbo].[DimFilm] (
//	    [FilmID] INT NOT NULL,
//	    PRIMARY KEY ([FilmID])
//	  );
//	END;
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	cols, err := gddl.RenderColumns(t, QuoteIdent)
	if err != nil {
		return "", fmt.Errorf("mssql %w", err)
	}
	fqn := gddl.QuoteFQN(t.FQN, QuoteIdent)
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n    %s\n  );\nEND;",
		strings.ReplaceAll(fqn, "'", "''"),
		fqn,
		strings.Join(cols, ",\n    "),
	), nil
}

// QuoteIdent brackets one identifier, escaping closing brackets.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func QuoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}
