// Package transformer cleans raw film rows: it normalizes release dates and
// financial columns and derives profit, ROI and calendar attributes.
//
// Every rule applies to a single row in isolation. Malformed input never
// produces an error; the affected derived field is simply left nil.
package transformer

import (
	"log"
	"time"

	"filmdw/internal/film"
)

// Stats summarizes one Transform call.
type Stats struct {
	Rows           int
	ValidDates     int
	ValidBudgets   int
	ValidBoxOffice int
	Recovered      int // rows whose transform panicked and were left underived
}

// Transform returns one cleaned Film per input row, in input order. It is
// deterministic and has no side effects beyond logging.
func Transform(in []film.RawFilm) ([]film.Film, Stats) {
	out := make([]film.Film, len(in))
	st := Stats{Rows: len(in)}

	for i := range in {
		f, ok := transformRow(in[i])
		if !ok {
			st.Recovered++
		}
		if f.ParsedDate != nil {
			st.ValidDates++
		}
		if f.Budget != nil {
			st.ValidBudgets++
		}
		if f.BoxOffice != nil {
			st.ValidBoxOffice++
		}
		out[i] = f
	}
	return out, st
}

// transformRow derives every computed field of r. A panic while deriving
// degrades to a row with no derived fields; ok reports whether that happened.
func transformRow(r film.RawFilm) (f film.Film, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("transform: line=%d recovered: %v", r.Line, p)
			f = film.Film{RawFilm: r}
			ok = false
		}
	}()

	f.RawFilm = r
	f.ParsedDate = ParseDate(r.ReleaseDate)
	f.Budget = CleanNumeric(r.BudgetDollars)
	f.BoxOffice = CleanNumeric(r.BoxOfficeDollars)
	f.Profit, f.ROI = Derive(f.Budget, f.BoxOffice)
	f.Year, f.Quarter, f.Month, f.MonthName = Calendar(f.ParsedDate)
	return f, true
}

// Derive computes profit (box office minus budget) and ROI (profit over
// budget). Profit needs both operands; ROI additionally needs a strictly
// positive budget.
func Derive(budget, boxOffice *float64) (profit, roi *float64) {
	if budget == nil || boxOffice == nil {
		return nil, nil
	}
	p := *boxOffice - *budget
	profit = &p
	if *budget > 0 {
		r := p / *budget
		roi = &r
	}
	return profit, roi
}

// Calendar splits d into year, quarter (1-4), month (1-12) and English month
// name. All results are nil when d is nil.
func Calendar(d *time.Time) (year, quarter, month *int, monthName *string) {
	if d == nil {
		return nil, nil, nil, nil
	}
	y := d.Year()
	m := int(d.Month())
	q := (m-1)/3 + 1
	name := d.Month().String()
	return &y, &q, &m, &name
}
