package warehouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"filmdw/internal/film"
)

var errMissingTimeKey = errors.New("missing RunTimeMinutes")

// LoadTime loads DimTime. Rows without a parsed release date are excluded;
// the rest are de-duplicated by RunTimeMinutes, keeping the first.
//
// RunTimeMinutes is a duration, not a calendar key: two films of equal
// length share one DimTime row and the second film's date is dropped. The
// fact table's TimeID follows the same convention, so the keying is kept
// for compatibility with existing warehouses.
func (l *Loader) LoadTime(ctx context.Context, films []film.Film) Result {
	start := time.Now()
	res := Result{Stage: TableTime}
	agg := newErrAgg(l.maxSamples(), l.OnRowError)

	seen := make(map[string]bool)
	var rows []prepared
	for _, f := range films {
		if f.ParsedDate == nil {
			continue
		}
		k := film.Key(f.RunTimeMinutes)
		if seen[k] {
			continue
		}
		seen[k] = true
		res.Rows++

		id, ok, err := film.Int(f.RunTimeMinutes)
		if err == nil && !ok {
			err = errMissingTimeKey
		}
		if err != nil {
			agg.add(&RowError{Stage: TableTime, Key: fmt.Sprint(f.RunTimeMinutes), Line: f.Line, Err: err})
			continue
		}

		d := *f.ParsedDate
		rows = append(rows, prepared{
			key:  fmt.Sprint(id),
			line: f.Line,
			values: []any{
				id,
				time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
				nullInt(f.Year),
				nullInt(f.Quarter),
				nullInt(f.Month),
				nullStr(f.MonthName),
			},
		})
	}

	l.loadIsolated(ctx, &res, agg, timeTable, rows)
	return finish(&res, agg, start)
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func nullStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
