package extract

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/xuri/excelize/v2"

	"filmdw/internal/datasource"
	"filmdw/internal/datasource/file"
)

// newSource is a test seam for the byte source.
var newSource = func(path string) datasource.Source { return file.NewLocal(path) }

// readXLSX returns the rows of the configured sheet, falling back to the
// first sheet when it does not exist. Cells are read unformatted.
func readXLSX(ctx context.Context, src Source) ([][]string, error) {
	rc, err := newSource(src.Path).Open(ctx)
	if err != nil {
		return nil, &Error{Path: src.Path, Op: "open", Err: err}
	}
	defer rc.Close()

	wb, err := excelize.OpenReader(rc)
	if err != nil {
		return nil, &Error{Path: src.Path, Op: "open", Err: err}
	}
	defer func() {
		if cerr := wb.Close(); cerr != nil {
			log.Printf("extract: close workbook path=%s: %v", src.Path, cerr)
		}
	}()

	sheet := src.Sheet
	if sheet == "" {
		sheet = DefaultSheet
	}
	if idx, err := wb.GetSheetIndex(sheet); err != nil || idx < 0 {
		sheets := wb.GetSheetList()
		if len(sheets) == 0 {
			return nil, &Error{Path: src.Path, Op: "sheet", Err: errors.New("workbook has no sheets")}
		}
		log.Printf("extract: sheet=%q not found; using first sheet %q", sheet, sheets[0])
		sheet = sheets[0]
	}

	rows, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &Error{Path: src.Path, Op: "sheet " + sheet, Err: err}
	}
	return rows, nil
}

// readCSV returns every record of a delimited file. Quoting is lenient unless
// src.StrictQuotes is set; rows may vary in width.
func readCSV(ctx context.Context, src Source) ([][]string, error) {
	rc, err := newSource(src.Path).Open(ctx)
	if err != nil {
		return nil, &Error{Path: src.Path, Op: "open", Err: err}
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	if src.Comma != 0 {
		r.Comma = src.Comma
	}
	r.LazyQuotes = !src.StrictQuotes
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(rows)+1, err)
		}
		rows = append(rows, rec)
		if len(rows)%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}
	return rows, nil
}
