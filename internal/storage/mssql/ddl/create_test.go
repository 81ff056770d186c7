package ddl

import (
	"strings"
	"testing"

	gddl "filmdw/internal/ddl"
)

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	def := gddl.TableDef{
		FQN: "dbo.DimFilm",
		Columns: []gddl.ColumnDef{
			{Name: "FilmID", SQLType: "int", PrimaryKey: true},
			{Name: "Review", SQLType: "varchar(500)", Nullable: true},
		},
	}.Mapped(MapType)

	got, err := BuildCreateTableSQL(def)
	if err != nil {
		t.Fatal(err)
	}
	want := "IF OBJECT_ID(N'[dbo].[DimFilm]', N'U') IS NULL\nBEGIN\n" +
		"  CREATE TABLE [dbo].[DimFilm] (\n" +
		"    [FilmID] INT NOT NULL,\n" +
		"    [Review] NVARCHAR(500),\n" +
		"    PRIMARY KEY ([FilmID])\n" +
		"  );\nEND;"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}

	if _, err := BuildCreateTableSQL(gddl.TableDef{}); err == nil || !strings.HasPrefix(err.Error(), "mssql ddl:") {
		t.Fatalf("err = %v", err)
	}
}

func TestQuoteIdentAndMapType(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{"simple": "[simple]", "brack]et": "[brack]]et]"} {
		if got := QuoteIdent(in); got != want {
			t.Fatalf("QuoteIdent(%q) = %q", in, got)
		}
	}
	for in, want := range map[string]string{
		"int": "INT", "float": "FLOAT", "date": "DATE", "varchar(20)": "NVARCHAR(20)",
		"varchar(9000)": "NVARCHAR(MAX)", "": "NVARCHAR(MAX)",
	} {
		if got := MapType(in); got != want {
			t.Fatalf("MapType(%q) = %q, want %q", in, got, want)
		}
	}
}
