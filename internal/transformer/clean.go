package transformer

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"filmdw/internal/film"
)

// serialEpoch is day zero of the spreadsheet serial-date convention.
// 1899-12-30 (not 1900-01-01) absorbs the phantom 1900-02-29.
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// maxSerial is the serial number of 9999-12-31.
const maxSerial = 2958465

// parseIn parses free-form date text.
var parseIn = dateparse.ParseIn

// ParseDate interprets a release-date cell.
//
// Accepted inputs:
//   - time.Time, returned unchanged (so ParseDate is idempotent);
//   - numbers, taken as day offsets from 1899-12-30, fractions as time of day;
//   - strings, via a generic date parser (UTC when no zone is given).
//
// Anything else, anything unparseable, or a date before year 1 yields nil.
func ParseDate(v film.Cell) *time.Time {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return &t
	case *time.Time:
		if t == nil || t.IsZero() {
			return nil
		}
		c := *t
		return &c
	case float64:
		return fromNumber(t)
	case float32:
		return fromNumber(float64(t))
	case int64:
		return fromNumber(float64(t))
	case int:
		return fromNumber(float64(t))
	case string:
		return fromString(t)
	}
	return nil
}

func fromNumber(f float64) *time.Time {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	if math.Abs(f) > maxSerial {
		// Not a serial; compact forms such as 20230115 still parse as text.
		return parseText(strconv.FormatFloat(f, 'f', -1, 64))
	}
	days := math.Floor(f)
	secs := math.Round((f - days) * 24 * 60 * 60)
	d := serialEpoch.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second)
	return inRange(d)
}

func fromString(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && math.Abs(f) <= maxSerial {
		return fromNumber(f)
	}
	return parseText(s)
}

func parseText(s string) *time.Time {
	d, err := parseIn(s, time.UTC)
	if err != nil {
		return nil
	}
	return inRange(d)
}

// inRange drops dates before year 1, which warehouse date columns reject.
func inRange(d time.Time) *time.Time {
	if d.Year() < 1 {
		return nil
	}
	return &d
}

// moneyReplacer strips currency decoration from financial text.
var moneyReplacer = strings.NewReplacer("$", "", ",", "", " ", "", "\u00a0", "")

// CleanNumeric normalizes a financial cell. Absent, blank, zero, negative or
// non-numeric values become nil; everything else is returned as a float.
// The legacy loader kept negative amounts; here a negative budget or box
// office is treated as missing, since both are non-negative by definition.
func CleanNumeric(v film.Cell) *float64 {
	var f float64
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int64:
		f = float64(t)
	case int:
		f = float64(t)
	case string:
		s := moneyReplacer.Replace(strings.TrimSpace(t))
		if s == "" {
			return nil
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = p
	default:
		return nil
	}
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
