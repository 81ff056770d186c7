package warehouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"filmdw/internal/film"
)

var (
	errMissingFilmID = errors.New("missing FilmID")
	errMissingTitle  = errors.New("missing Title")
)

// LoadFilms loads one DimFilm row per input row; FilmID is already the
// natural key so rows are not de-duplicated here (repeats are conflict
// skips). Certificate comes from CertificateID when present, otherwise from
// Certificate. Title and Review are cut to the configured rune lengths.
func (l *Loader) LoadFilms(ctx context.Context, films []film.Film) Result {
	start := time.Now()
	res := Result{Stage: TableFilm, Rows: len(films)}
	agg := newErrAgg(l.maxSamples(), l.OnRowError)

	titleLen := l.TitleMaxLen
	if titleLen <= 0 {
		titleLen = DefaultTitleMaxLen
	}
	reviewLen := l.ReviewMaxLen
	if reviewLen <= 0 {
		reviewLen = DefaultReviewMaxLen
	}

	rows := make([]prepared, 0, len(films))
	for _, f := range films {
		id, ok, err := film.Int(f.FilmID)
		if err == nil && !ok {
			err = errMissingFilmID
		}
		if err != nil {
			agg.add(&RowError{Stage: TableFilm, Key: fmt.Sprint(f.FilmID), Line: f.Line, Err: err})
			continue
		}
		title, ok := film.String(f.Title)
		if !ok {
			agg.add(&RowError{Stage: TableFilm, Key: fmt.Sprint(id), Line: f.Line, Err: errMissingTitle})
			continue
		}

		rows = append(rows, prepared{
			key:  fmt.Sprint(id),
			line: f.Line,
			values: []any{
				id,
				truncate(title, titleLen),
				nullString(certificate(f.RawFilm)),
				nullString(truncateCell(f.Review, reviewLen)),
			},
		})
	}

	l.loadIsolated(ctx, &res, agg, filmTable, rows)
	return finish(&res, agg, start)
}

// certificate prefers CertificateID over Certificate. Integral numbers are
// rendered without a decimal part.
func certificate(r film.RawFilm) (string, bool) {
	if s, ok := film.String(r.CertificateID); ok {
		return s, true
	}
	return film.String(r.Certificate)
}

func truncateCell(c film.Cell, n int) (string, bool) {
	s, ok := film.String(c)
	if !ok {
		return "", false
	}
	return truncate(s, n), true
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func nullString(s string, ok bool) any {
	if !ok {
		return nil
	}
	return s
}
