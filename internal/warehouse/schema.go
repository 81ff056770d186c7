package warehouse

import (
	"strconv"

	"filmdw/internal/ddl"
	"filmdw/internal/storage"
)

// Table names of the star schema.
const (
	TableTime     = "DimTime"
	TableFilm     = "DimFilm"
	TableDirector = "DimDirector"
	TableStudio   = "DimStudio"
	TableGenre    = "DimGenre"
	TableCountry  = "DimCountry"
	TableLanguage = "DimLanguage"
	TableFact     = "FactFilmPerformance"
)

var (
	timeTable = storage.Table{
		Name:    TableTime,
		Columns: []string{"TimeID", "FullDate", "Year", "Quarter", "Month", "MonthName"},
		Key:     "TimeID",
	}
	filmTable = storage.Table{
		Name:    TableFilm,
		Columns: []string{"FilmID", "Title", "Certificate", "Review"},
		Key:     "FilmID",
	}
	factTable = storage.Table{
		Name: TableFact,
		Columns: []string{
			"FilmID", "DirectorID", "StudioID", "GenreID", "CountryID",
			"LanguageID", "TimeID", "BudgetDollars", "BoxOfficeDollars",
			"OscarNominations", "OscarWins", "RunTimeMinutes",
			"ProfitDollars", "ROI",
		},
		Key: "FilmID",
	}
)

// Schema returns the logical definitions of every warehouse table, in load
// order. Only used when schema bootstrap is requested; no foreign keys are
// declared, so facts may reference dimension rows that failed to load.
func Schema(titleLen, reviewLen int) []ddl.TableDef {
	if titleLen <= 0 {
		titleLen = DefaultTitleMaxLen
	}
	if reviewLen <= 0 {
		reviewLen = DefaultReviewMaxLen
	}
	pk := func(name string) ddl.ColumnDef {
		return ddl.ColumnDef{Name: name, SQLType: "int", PrimaryKey: true}
	}
	col := func(name, typ string) ddl.ColumnDef {
		return ddl.ColumnDef{Name: name, SQLType: typ, Nullable: true}
	}

	defs := []ddl.TableDef{
		{FQN: TableTime, Columns: []ddl.ColumnDef{
			pk("TimeID"), col("FullDate", "date"), col("Year", "int"),
			col("Quarter", "smallint"), col("Month", "smallint"), col("MonthName", "varchar(20)"),
		}},
		{FQN: TableFilm, Columns: []ddl.ColumnDef{
			pk("FilmID"), col("Title", varchar(titleLen)),
			col("Certificate", "varchar(50)"), col("Review", varchar(reviewLen)),
		}},
	}
	for _, d := range Dimensions {
		defs = append(defs, ddl.TableDef{FQN: d.Table, Columns: []ddl.ColumnDef{
			pk(d.IDColumn), col(d.NameColumn, "varchar(100)"),
		}})
	}
	defs = append(defs, ddl.TableDef{FQN: TableFact, Columns: []ddl.ColumnDef{
		pk("FilmID"),
		col("DirectorID", "int"), col("StudioID", "int"), col("GenreID", "int"),
		col("CountryID", "int"), col("LanguageID", "int"), col("TimeID", "int"),
		col("BudgetDollars", "float"), col("BoxOfficeDollars", "float"),
		{Name: "OscarNominations", SQLType: "int", Default: "0"},
		{Name: "OscarWins", SQLType: "int", Default: "0"},
		col("RunTimeMinutes", "int"),
		col("ProfitDollars", "float"), col("ROI", "float"),
	}})
	return defs
}

func varchar(n int) string {
	return "varchar(" + strconv.Itoa(n) + ")"
}
