// Package film defines the row records that flow through the warehouse
// pipeline: RawFilm as read from the source sheet, and Film, the cleaned row
// carrying derived measures and calendar attributes.
//
// Every source field is kept as a Cell so that absence and malformed values
// survive extraction untouched; the transformer and the loaders decide how
// each field is interpreted.
package film

import (
	"strings"
	"time"
)

// Cell is a single raw source value. Extractors only ever produce nil,
// string, float64, int64, bool or time.Time.
type Cell = any

// Canonical source column names.
const (
	ColFilmID           = "FilmID"
	ColTitle            = "Title"
	ColReleaseDate      = "ReleaseDate"
	ColBudgetDollars    = "BudgetDollars"
	ColBoxOfficeDollars = "BoxOfficeDollars"
	ColRunTimeMinutes   = "RunTimeMinutes"
	ColOscarNominations = "OscarNominations"
	ColOscarWins        = "OscarWins"
	ColDirectorID       = "DirectorID"
	ColStudioID         = "StudioID"
	ColGenreID          = "GenreID"
	ColCountryID        = "CountryID"
	ColLanguageID       = "LanguageID"
	ColCertificate      = "Certificate"
	ColCertificateID    = "CertificateID"
	ColReview           = "Review"
)

// Columns lists every column RawFilm understands, in sheet order.
var Columns = []string{
	ColFilmID, ColTitle, ColReleaseDate, ColBudgetDollars, ColBoxOfficeDollars,
	ColRunTimeMinutes, ColOscarNominations, ColOscarWins, ColDirectorID,
	ColStudioID, ColGenreID, ColCountryID, ColLanguageID, ColCertificate,
	ColCertificateID, ColReview,
}

// RawFilm is one source row. Nothing about it is guaranteed: any field may be
// nil, empty or of an unexpected type.
type RawFilm struct {
	// Line is the 1-based source line (the header is line 1).
	Line int

	FilmID     Cell
	DirectorID Cell
	StudioID   Cell
	GenreID    Cell
	CountryID  Cell
	LanguageID Cell

	Title         Cell
	Certificate   Cell
	CertificateID Cell
	Review        Cell

	ReleaseDate Cell

	BudgetDollars    Cell
	BoxOfficeDollars Cell
	RunTimeMinutes   Cell
	OscarNominations Cell
	OscarWins        Cell
}

// Set assigns v to the field named by column (canonical name, matched
// case-insensitively). It reports false for unknown columns.
func (r *RawFilm) Set(column string, v Cell) bool {
	p := r.field(column)
	if p == nil {
		return false
	}
	*p = v
	return true
}

// Get returns the value of the named column, or nil for unknown columns.
func (r *RawFilm) Get(column string) Cell {
	if p := r.field(column); p != nil {
		return *p
	}
	return nil
}

func (r *RawFilm) field(column string) *Cell {
	switch strings.ToLower(strings.TrimSpace(column)) {
	case "filmid":
		return &r.FilmID
	case "title":
		return &r.Title
	case "releasedate":
		return &r.ReleaseDate
	case "budgetdollars":
		return &r.BudgetDollars
	case "boxofficedollars":
		return &r.BoxOfficeDollars
	case "runtimeminutes":
		return &r.RunTimeMinutes
	case "oscarnominations":
		return &r.OscarNominations
	case "oscarwins":
		return &r.OscarWins
	case "directorid":
		return &r.DirectorID
	case "studioid":
		return &r.StudioID
	case "genreid":
		return &r.GenreID
	case "countryid":
		return &r.CountryID
	case "languageid":
		return &r.LanguageID
	case "certificate":
		return &r.Certificate
	case "certificateid":
		return &r.CertificateID
	case "review":
		return &r.Review
	}
	return nil
}

// Film is a cleaned row. Derived fields are nil when they cannot be computed;
// a zero budget or box office is reported as nil, never as 0.
type Film struct {
	RawFilm

	ParsedDate *time.Time

	Budget    *float64
	BoxOffice *float64
	Profit    *float64
	// ROI is only set when Budget is present and strictly positive.
	ROI *float64

	// Calendar attributes of ParsedDate; all nil when ParsedDate is nil.
	Year      *int
	Quarter   *int
	Month     *int
	MonthName *string
}
