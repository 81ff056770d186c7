package film

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// IsAbsent reports whether c carries no value: nil, a blank string, or NaN.
func IsAbsent(c Cell) bool {
	switch v := c.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case float64:
		return math.IsNaN(v)
	case float32:
		return math.IsNaN(float64(v))
	case time.Time:
		return v.IsZero()
	}
	return false
}

// Int interprets c as an integer identifier or count.
//
// Absent cells return ok=false with a nil error. Integral floats (as produced
// by spreadsheets) and decimal strings are accepted; anything else returns an
// error so the caller can treat the row as malformed.
func Int(c Cell) (v int64, ok bool, err error) {
	if IsAbsent(c) {
		return 0, false, nil
	}
	switch t := c.(type) {
	case int:
		return int64(t), true, nil
	case int32:
		return int64(t), true, nil
	case int64:
		return t, true, nil
	case float32:
		return intFromFloat(float64(t))
	case float64:
		return intFromFloat(t)
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, fmt.Errorf("not an integer: %q", s)
		}
		return intFromFloat(f)
	}
	return 0, false, fmt.Errorf("not an integer: %v (%T)", c, c)
}

func intFromFloat(f float64) (int64, bool, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false, fmt.Errorf("not an integer: %v", f)
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false, fmt.Errorf("integer out of range: %v", f)
	}
	return int64(f), true, nil
}

// String renders c as text. Integral floats are printed without a decimal
// part so that numeric spreadsheet cells read back the way they were typed.
func String(c Cell) (string, bool) {
	if IsAbsent(c) {
		return "", false
	}
	switch t := c.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return formatFloat(t), true
	case float32:
		return formatFloat(float64(t)), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case int:
		return strconv.Itoa(t), true
	case time.Time:
		return t.Format("2006-01-02"), true
	}
	return fmt.Sprint(c), true
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Key returns a stable de-duplication key for c. Cells that denote the same
// integer (120, 120.0, "120") share a key; absent cells share the empty key.
func Key(c Cell) string {
	if IsAbsent(c) {
		return ""
	}
	if n, ok, err := Int(c); err == nil && ok {
		return "i:" + strconv.FormatInt(n, 10)
	}
	s, _ := String(c)
	return "s:" + s
}
