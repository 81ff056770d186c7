package warehouse

import (
	"context"
	"fmt"
	"time"

	"filmdw/internal/film"
)

// LoadFacts loads FactFilmPerformance. It must run after every dimension
// stage. Absent dimension IDs become NULL foreign keys and absent Oscar
// counts become 0; malformed IDs or counts make the row a row error.
//
// The whole stage is one transaction (see loadCumulative): a failed commit
// fails the stage and reports nothing inserted.
func (l *Loader) LoadFacts(ctx context.Context, films []film.Film) Result {
	start := time.Now()
	res := Result{Stage: TableFact, Rows: len(films)}
	agg := newErrAgg(l.maxSamples(), l.OnRowError)

	rows := make([]prepared, 0, len(films))
	for _, f := range films {
		vals, key, err := factValues(f)
		if err != nil {
			agg.add(&RowError{Stage: TableFact, Key: key, Line: f.Line, Err: err})
			continue
		}
		rows = append(rows, prepared{key: key, line: f.Line, values: vals})
	}

	l.loadCumulative(ctx, &res, agg, factTable, rows)
	return finish(&res, agg, start)
}

// factValues returns the row in factTable column order.
func factValues(f film.Film) ([]any, string, error) {
	id, ok, err := film.Int(f.FilmID)
	key := fmt.Sprint(f.FilmID)
	if err != nil {
		return nil, key, err
	}
	if !ok {
		return nil, key, errMissingFilmID
	}
	key = fmt.Sprint(id)

	optional := func(name string, c film.Cell) (any, error) {
		v, ok, err := film.Int(c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if !ok {
			return nil, nil
		}
		return v, nil
	}
	count := func(name string, c film.Cell) (any, error) {
		v, _, err := film.Int(c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return v, nil
	}

	vals := make([]any, 0, len(factTable.Columns))
	vals = append(vals, id)
	for _, fk := range []struct {
		name string
		cell film.Cell
	}{
		{film.ColDirectorID, f.DirectorID},
		{film.ColStudioID, f.StudioID},
		{film.ColGenreID, f.GenreID},
		{film.ColCountryID, f.CountryID},
		{film.ColLanguageID, f.LanguageID},
		{"TimeID", f.RunTimeMinutes},
	} {
		v, err := optional(fk.name, fk.cell)
		if err != nil {
			return nil, key, err
		}
		vals = append(vals, v)
	}

	noms, err := count(film.ColOscarNominations, f.OscarNominations)
	if err != nil {
		return nil, key, err
	}
	wins, err := count(film.ColOscarWins, f.OscarWins)
	if err != nil {
		return nil, key, err
	}
	runtime, err := optional(film.ColRunTimeMinutes, f.RunTimeMinutes)
	if err != nil {
		return nil, key, err
	}

	vals = append(vals,
		nullFloat(f.Budget),
		nullFloat(f.BoxOffice),
		noms,
		wins,
		runtime,
		nullFloat(f.Profit),
		nullFloat(f.ROI),
	)
	return vals, key, nil
}
