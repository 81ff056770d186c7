// Package extract reads the film source (an xlsx workbook or a CSV file) into
// film.RawFilm records. Extraction is all-or-nothing: any failure returns an
// *Error and no records.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"

	"filmdw/internal/film"
)

// Source kinds.
const (
	KindXLSX = "xlsx"
	KindCSV  = "csv"
)

// DefaultSheet is the worksheet read when Source.Sheet is empty.
const DefaultSheet = "Films"

// Source locates and describes the input.
type Source struct {
	Kind  string // xlsx or csv; inferred from the extension when empty
	Path  string
	Sheet string // xlsx only

	// HeaderMap renames source headers to canonical column names. Keys are
	// matched case-insensitively.
	HeaderMap map[string]string

	// Comma is the CSV delimiter; ',' when zero.
	Comma rune

	// StrictQuotes rejects bare quotes inside unquoted CSV fields.
	StrictQuotes bool
}

// Error is an ExtractionError: the source could not be read or does not have
// the required shape.
type Error struct {
	Path string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrMissingColumns is wrapped by the *Error returned when the header lacks
// required columns.
var ErrMissingColumns = errors.New("missing required columns")

// required are the columns every source must carry. One of Certificate or
// CertificateID is additionally required.
var required = []string{
	film.ColFilmID, film.ColTitle, film.ColReleaseDate, film.ColBudgetDollars,
	film.ColBoxOfficeDollars, film.ColRunTimeMinutes, film.ColOscarNominations,
	film.ColOscarWins, film.ColDirectorID, film.ColStudioID, film.ColGenreID,
	film.ColCountryID, film.ColLanguageID, film.ColReview,
}

// Extract reads every data row of src. Rows whose cells are all empty are
// skipped.
func Extract(ctx context.Context, src Source) ([]film.RawFilm, error) {
	kind := src.Kind
	if kind == "" {
		kind = kindFromPath(src.Path)
	}

	var (
		rows [][]string
		err  error
	)
	switch kind {
	case KindXLSX:
		rows, err = readXLSX(ctx, src)
	case KindCSV:
		rows, err = readCSV(ctx, src)
	default:
		return nil, &Error{Path: src.Path, Op: "open", Err: fmt.Errorf("unsupported source kind %q", kind)}
	}
	if err != nil {
		var xe *Error
		if errors.As(err, &xe) {
			return nil, err
		}
		return nil, &Error{Path: src.Path, Op: "read", Err: err}
	}
	out, err := decode(ctx, src, rows)
	if err != nil {
		return nil, err
	}
	log.Printf("extract: path=%s kind=%s rows=%d", src.Path, kind, len(out))
	return out, nil
}

func kindFromPath(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".xlsx", ".xlsm":
		return KindXLSX
	case ".csv", ".txt":
		return KindCSV
	}
	return ""
}

// decode maps the header of rows onto canonical columns and converts every
// following row into a RawFilm.
func decode(ctx context.Context, src Source, rows [][]string) ([]film.RawFilm, error) {
	if len(rows) == 0 {
		return nil, &Error{Path: src.Path, Op: "header", Err: errors.New("source is empty")}
	}
	index, err := headerIndex(rows[0], src.HeaderMap)
	if err != nil {
		return nil, &Error{Path: src.Path, Op: "header", Err: err}
	}

	out := make([]film.RawFilm, 0, len(rows)-1)
	for i, rec := range rows[1:] {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, &Error{Path: src.Path, Op: "read", Err: err}
			}
		}
		if blank(rec) {
			continue
		}
		r := film.RawFilm{Line: i + 2}
		for pos, col := range index {
			if pos < len(rec) {
				r.Set(col, cellValue(rec[pos]))
			}
		}
		out = append(out, r)
	}
	return out, nil
}

const utf8BOM = "\uFEFF"

// headerIndex returns source position -> canonical column for every
// recognised header cell. Unknown headers are ignored; when two headers map
// to the same column the first wins.
func headerIndex(header []string, rename map[string]string) (map[int]string, error) {
	fold := cases.Fold()
	canon := make(map[string]string, len(film.Columns))
	for _, c := range film.Columns {
		canon[fold.String(c)] = c
	}
	aliases := make(map[string]string, len(rename))
	for from, to := range rename {
		aliases[fold.String(strings.TrimSpace(from))] = fold.String(strings.TrimSpace(to))
	}

	index := make(map[int]string, len(header))
	seen := make(map[string]bool, len(header))
	for pos, h := range header {
		key := fold.String(strings.TrimSpace(strings.TrimPrefix(h, utf8BOM)))
		if to, ok := aliases[key]; ok {
			key = to
		}
		col, ok := canon[key]
		if !ok || seen[col] {
			continue
		}
		seen[col] = true
		index[pos] = col
	}

	var missing []string
	for _, c := range required {
		if !seen[c] {
			missing = append(missing, c)
		}
	}
	if !seen[film.ColCertificate] && !seen[film.ColCertificateID] {
		missing = append(missing, film.ColCertificate+"|"+film.ColCertificateID)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return index, nil
}

// cellValue converts raw cell text: blank is absent, anything else is kept
// as trimmed text. Numeric columns are coerced later by the transformer and
// the loaders, so text columns such as Title keep leading zeros.
func cellValue(s string) film.Cell {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}

func blank(rec []string) bool {
	for _, s := range rec {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}
