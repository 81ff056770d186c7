package pipeline

import (
	"database/sql"
	"io"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Report writes the human-readable run summary: per-stage counts followed by
// the verification totals. Money uses thousands separators and ROI is shown
// as a percentage; aggregates with no value print as N/A.
func Report(w io.Writer, s Summary) error {
	p := message.NewPrinter(language.English)
	ew := &errWriter{w: w}

	ew.printf(p, "job=%s source=%s\n", s.Job, s.Source)
	ew.printf(p, "extracted %d rows: valid dates %d, valid budgets %d, valid box office %d\n",
		s.Extracted, s.Transform.ValidDates, s.Transform.ValidBudgets, s.Transform.ValidBoxOffice)

	ew.printf(p, "%-22s %8s %9s %8s %7s\n", "stage", "rows", "inserted", "skipped", "errors")
	for _, st := range s.Stages {
		ew.printf(p, "%-22s %8d %9d %8d %7d", st.Stage, st.Rows, st.Inserted, st.Skipped, st.Errors)
		if st.Err != nil {
			ew.printf(p, "  FAILED: %v", st.Err)
		}
		ew.printf(p, "\n")
	}

	if s.TotalsErr != nil {
		ew.printf(p, "verification failed: %v\n", s.TotalsErr)
	} else {
		ew.printf(p, "Total films in warehouse: %d\n", s.Totals.Films)
		ew.printf(p, "Total budget: %s\n", money(p, s.Totals.Budget))
		ew.printf(p, "Total box office: %s\n", money(p, s.Totals.BoxOffice))
		ew.printf(p, "Average ROI: %s\n", percent(p, s.Totals.AvgROI))
	}
	if !s.Finished.IsZero() && !s.Started.IsZero() {
		ew.printf(p, "finished in %s\n", s.Finished.Sub(s.Started).Truncate(time.Millisecond))
	}
	return ew.err
}

func money(p *message.Printer, v sql.NullFloat64) string {
	if !v.Valid || v.Float64 == 0 {
		return "N/A"
	}
	return p.Sprintf("$%.0f", v.Float64)
}

func percent(p *message.Printer, v sql.NullFloat64) string {
	if !v.Valid || v.Float64 == 0 {
		return "N/A"
	}
	return p.Sprintf("%.2f%%", v.Float64*100)
}

// errWriter keeps the first write error so Report can print unconditionally.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(p *message.Printer, format string, a ...any) {
	if e.err != nil {
		return
	}
	_, e.err = p.Fprintf(e.w, format, a...)
}
