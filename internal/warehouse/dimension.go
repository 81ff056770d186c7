package warehouse

import (
	"context"
	"fmt"
	"time"

	"filmdw/internal/film"
	"filmdw/internal/storage"
)

// Dimension describes one of the simple ID-plus-name dimensions.
type Dimension struct {
	Label      string // prefix of synthesized names, e.g. "Director"
	Table      string
	IDColumn   string
	NameColumn string
	ID         func(film.RawFilm) film.Cell
}

// Dimensions lists the simple dimensions in load order.
var Dimensions = []Dimension{
	{"Director", TableDirector, "DirectorID", "DirectorName", func(r film.RawFilm) film.Cell { return r.DirectorID }},
	{"Studio", TableStudio, "StudioID", "StudioName", func(r film.RawFilm) film.Cell { return r.StudioID }},
	{"Genre", TableGenre, "GenreID", "GenreName", func(r film.RawFilm) film.Cell { return r.GenreID }},
	{"Country", TableCountry, "CountryID", "CountryName", func(r film.RawFilm) film.Cell { return r.CountryID }},
	{"Language", TableLanguage, "LanguageID", "LanguageName", func(r film.RawFilm) film.Cell { return r.LanguageID }},
}

// PlaceholderName synthesizes the display name of a dimension member. The
// source carries IDs only, so the name is derived from the ID alone.
func PlaceholderName(label string, id int64) string {
	return fmt.Sprintf("%s_%d", label, id)
}

// LoadDimension loads the distinct, non-absent IDs of dim found in films,
// in first-seen order. IDs that are not integers are row errors.
func (l *Loader) LoadDimension(ctx context.Context, films []film.Film, dim Dimension) Result {
	start := time.Now()
	res := Result{Stage: dim.Table}
	agg := newErrAgg(l.maxSamples(), l.OnRowError)

	seen := make(map[string]bool)
	var rows []prepared
	for _, f := range films {
		raw := dim.ID(f.RawFilm)
		k := film.Key(raw)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		res.Rows++

		id, _, err := film.Int(raw)
		if err != nil {
			agg.add(&RowError{Stage: dim.Table, Key: fmt.Sprint(raw), Line: f.Line, Err: err})
			continue
		}
		rows = append(rows, prepared{
			key:    fmt.Sprint(id),
			line:   f.Line,
			values: []any{id, PlaceholderName(dim.Label, id)},
		})
	}

	t := storage.Table{Name: dim.Table, Columns: []string{dim.IDColumn, dim.NameColumn}, Key: dim.IDColumn}
	l.loadIsolated(ctx, &res, agg, t, rows)
	return finish(&res, agg, start)
}
