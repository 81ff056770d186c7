package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	"filmdw/internal/ddl"
	"filmdw/internal/storage"
)

// Totals is the verification aggregate over the fact table. Sums and the
// average are invalid when no row carries a value.
type Totals struct {
	Films     int64
	Budget    sql.NullFloat64
	BoxOffice sql.NullFloat64
	AvgROI    sql.NullFloat64
}

// QueryTotals counts fact rows and aggregates budget, box office and ROI.
func QueryTotals(ctx context.Context, repo storage.Repository) (Totals, error) {
	d := repo.Dialect()
	q := fmt.Sprintf("SELECT COUNT(*), SUM(%s), SUM(%s), AVG(%s) FROM %s",
		d.Quote("BudgetDollars"), d.Quote("BoxOfficeDollars"), d.Quote("ROI"),
		ddl.QuoteFQN(TableFact, d.Quote))

	var t Totals
	if err := repo.QueryRow(ctx, q).Scan(&t.Films, &t.Budget, &t.BoxOffice, &t.AvgROI); err != nil {
		return Totals{}, fmt.Errorf("verification query: %w", err)
	}
	return t, nil
}
