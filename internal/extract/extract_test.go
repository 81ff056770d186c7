package extract

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/xuri/excelize/v2"

	"filmdw/internal/datasource"
	"filmdw/internal/film"
)

var header = []any{
	"FilmID", "Title", "ReleaseDate", "BudgetDollars", "BoxOfficeDollars",
	"RunTimeMinutes", "OscarNominations", "OscarWins", "DirectorID", "StudioID",
	"GenreID", "CountryID", "LanguageID", "CertificateID", "Review",
}

func writeWorkbook(t *testing.T, sheet string, rows ...[]any) string {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()
	if sheet != "Sheet1" {
		if _, err := wb.NewSheet(sheet); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		if err := wb.DeleteSheet("Sheet1"); err != nil {
			t.Fatalf("delete default sheet: %v", err)
		}
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		row := r
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row %d: %v", i, err)
		}
	}
	p := filepath.Join(t.TempDir(), "films.xlsx")
	if err := wb.SaveAs(p); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return p
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestExtract_XLSX(t *testing.T) {
	t.Parallel()

	p := writeWorkbook(t, "Films",
		header,
		[]any{1, "Heat", 34652, 60000000, 187436818, 170, 0, 0, 7, 3, 2, 1, 1, 15, "Great"},
		[]any{},
		[]any{2, "Brazil", "1985-12-18", 15000000, "", 142, 2, 0, 8, 4, 5, 2, 1, "12A", ""},
	)

	got, err := Extract(context.Background(), Source{Path: p})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rows=%d, want 2 (blank row skipped)", len(got))
	}

	heat := got[0]
	if heat.Line != 2 || heat.FilmID != 1.0 || heat.Title != "Heat" || heat.ReleaseDate != 34652.0 {
		t.Fatalf("first row = %+v", heat)
	}
	if heat.CertificateID != 15.0 || heat.Review != "Great" {
		t.Fatalf("certificate/review = %v/%v", heat.CertificateID, heat.Review)
	}

	brazil := got[1]
	if brazil.Line != 4 {
		t.Fatalf("second row line=%d, want 4", brazil.Line)
	}
	if brazil.BoxOfficeDollars != nil || brazil.Review != nil {
		t.Fatalf("empty cells must be absent, got %v/%v", brazil.BoxOfficeDollars, brazil.Review)
	}
	if brazil.ReleaseDate != "1985-12-18" || brazil.CertificateID != "12A" {
		t.Fatalf("text cells = %v/%v", brazil.ReleaseDate, brazil.CertificateID)
	}
}

func TestExtract_XLSXFallsBackToFirstSheet(t *testing.T) {
	t.Parallel()

	p := writeWorkbook(t, "Sheet1",
		header,
		[]any{9, "Alien", 28998, 11000000, 104931801, 117, 2, 1, 1, 1, 1, 1, 1, 18, "x"},
	)
	got, err := Extract(context.Background(), Source{Path: p, Sheet: "Films"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Alien" {
		t.Fatalf("got %+v", got)
	}
}

func TestExtract_CSV(t *testing.T) {
	t.Parallel()

	body := "\uFEFFfilmid;TITLE;ReleaseDate;BudgetDollars;BoxOfficeDollars;RunTimeMinutes;" +
		"OscarNominations;OscarWins;DirectorID;StudioID;GenreID;CountryID;LanguageID;Rating;Review;Extra\n" +
		"1; Heat ;1995-12-15;60000000;;170;0;0;7;3;2;1;1;15;\"Long, \"\"tense\"\"\";ignored\n" +
		";;;;;;;;;;;;;;;\n" +
		"abc;Broken;;;;;;;;;;;;;;\n"
	p := writeFile(t, "films.csv", body)

	got, err := Extract(context.Background(), Source{
		Path:      p,
		Comma:     ';',
		HeaderMap: map[string]string{"rating": "CertificateID"},
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rows=%d, want 2", len(got))
	}
	if got[0].FilmID != "1" || got[0].Title != "Heat" || got[0].CertificateID != "15" {
		t.Fatalf("row 0 = %+v", got[0])
	}
	if got[0].Review != `Long, "tense"` {
		t.Fatalf("review = %q", got[0].Review)
	}
	if got[1].FilmID != "abc" || got[1].Line != 4 {
		t.Fatalf("malformed id must survive extraction untouched: %+v", got[1])
	}
}

func TestExtract_TextColumnsKeepNumericLookingValues(t *testing.T) {
	t.Parallel()

	h := make([]string, 0, len(header))
	for _, c := range header {
		h = append(h, c.(string))
	}
	body := strings.Join(h, ",") + "\n" +
		"5,007,1962-10-05,1100000,59600000,110,0,0,1,1,1,1,1,12,3.10\n"
	got, err := Extract(context.Background(), Source{Path: writeFile(t, "films.csv", body)})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("rows=%d, want 1", len(got))
	}
	r := got[0]
	if r.Title != "007" || r.Review != "3.10" || r.CertificateID != "12" {
		t.Fatalf("Title=%#v Review=%#v Certificate=%#v", r.Title, r.Review, r.CertificateID)
	}
}

func TestExtract_StrictQuotes(t *testing.T) {
	t.Parallel()

	h := make([]string, 0, len(header))
	for _, c := range header {
		h = append(h, c.(string))
	}
	p := writeFile(t, "films.csv", strings.Join(h, ",")+"\n"+
		"1,The \"Thing\",1982-06-25,,,109,,,1,1,1,1,1,18,\n")

	got, err := Extract(context.Background(), Source{Path: p})
	if err != nil || len(got) != 1 || got[0].Title != `The "Thing"` {
		t.Fatalf("lenient: rows=%v err=%v", got, err)
	}
	var xe *Error
	if _, err := Extract(context.Background(), Source{Path: p, StrictQuotes: true}); !errors.As(err, &xe) {
		t.Fatalf("strict: want *Error, got %v", err)
	}
}

func TestExtract_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		src   func(t *testing.T) Source
		is    error
		inMsg string
	}{
		{
			name: "missing_file",
			src: func(t *testing.T) Source {
				return Source{Path: filepath.Join(t.TempDir(), "none.csv")}
			},
			is: os.ErrNotExist,
		},
		{
			name: "missing_columns",
			src: func(t *testing.T) Source {
				return Source{Path: writeFile(t, "f.csv", "FilmID,Title\n1,Heat\n")}
			},
			is:    ErrMissingColumns,
			inMsg: "ReleaseDate",
		},
		{
			name: "no_certificate_column",
			src: func(t *testing.T) Source {
				h := make([]string, 0, len(header))
				for _, c := range header {
					if c != "CertificateID" {
						h = append(h, c.(string))
					}
				}
				return Source{Path: writeFile(t, "f.csv", strings.Join(h, ",")+"\n")}
			},
			is:    ErrMissingColumns,
			inMsg: "Certificate|CertificateID",
		},
		{
			name: "empty_file",
			src: func(t *testing.T) Source {
				return Source{Path: writeFile(t, "f.csv", "")}
			},
			inMsg: "empty",
		},
		{
			name: "unknown_kind",
			src: func(t *testing.T) Source {
				return Source{Path: writeFile(t, "f.parquet", "x")}
			},
			inMsg: "unsupported source kind",
		},
		{
			name: "corrupt_workbook",
			src: func(t *testing.T) Source {
				return Source{Path: writeFile(t, "f.xlsx", "not a zip")}
			},
			inMsg: "open",
		},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			rows, err := Extract(context.Background(), c.src(t))
			if rows != nil {
				t.Fatalf("rows must be nil on error, got %d", len(rows))
			}
			var xe *Error
			if !errors.As(err, &xe) {
				t.Fatalf("want *Error, got %T %v", err, err)
			}
			if c.is != nil && !errors.Is(err, c.is) {
				t.Fatalf("errors.Is(%v, %v) = false", err, c.is)
			}
			if c.inMsg != "" && !strings.Contains(err.Error(), c.inMsg) {
				t.Fatalf("error %q does not mention %q", err, c.inMsg)
			}
		})
	}
}

type brokenSource struct{ err error }

func (b brokenSource) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(iotest.ErrReader(b.err)), nil
}

func TestExtract_ReadFailure(t *testing.T) {
	orig := newSource
	defer func() { newSource = orig }()
	gone := errors.New("device gone")
	newSource = func(string) datasource.Source { return brokenSource{err: gone} }

	rows, err := Extract(context.Background(), Source{Path: "films.csv"})
	var xe *Error
	if rows != nil || !errors.As(err, &xe) || xe.Op != "read" || !errors.Is(err, gone) {
		t.Fatalf("rows=%v err=%v", rows, err)
	}
}

func TestHeaderIndex_FirstDuplicateWins(t *testing.T) {
	t.Parallel()

	h := make([]string, 0, len(header)+1)
	for _, c := range header {
		h = append(h, c.(string))
	}
	h = append(h, "title")
	idx, err := headerIndex(h, nil)
	if err != nil {
		t.Fatal(err)
	}
	if idx[1] != film.ColTitle {
		t.Fatalf("idx[1]=%q", idx[1])
	}
	if _, ok := idx[len(h)-1]; ok {
		t.Fatalf("duplicate header must be ignored")
	}
}

func TestCellValue(t *testing.T) {
	t.Parallel()

	cases := map[string]film.Cell{
		"":        nil,
		"   ":     nil,
		"42":      "42",
		" 4.5 ":   "4.5",
		"007":     "007",
		"NaN":     "NaN",
		"12A":     "12A",
		" Alien ": "Alien",
	}
	for in, want := range cases {
		if got := cellValue(in); got != want {
			t.Fatalf("cellValue(%q) = %#v, want %#v", in, got, want)
		}
	}
}
