package film

import (
	"math"
	"testing"
	"time"
)

func TestInt(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		in      Cell
		want    int64
		wantOK  bool
		wantErr bool
	}{
		{"nil", nil, 0, false, false},
		{"blank", "  ", 0, false, false},
		{"nan", math.NaN(), 0, false, false},
		{"int64", int64(7), 7, true, false},
		{"integral_float", 120.0, 120, true, false},
		{"string", " 42 ", 42, true, false},
		{"float_string", "42.0", 42, true, false},
		{"fractional", 2.5, 0, false, true},
		{"garbage", "abc", 0, false, true},
		{"bool", true, 0, false, true},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			got, ok, err := Int(c.in)
			if (err != nil) != c.wantErr {
				t.Fatalf("Int(%v) err=%v, wantErr=%v", c.in, err, c.wantErr)
			}
			if ok != c.wantOK || got != c.want {
				t.Fatalf("Int(%v) = (%d,%v), want (%d,%v)", c.in, got, ok, c.want, c.wantOK)
			}
		})
	}
}

func TestString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in     Cell
		want   string
		wantOK bool
	}{
		{nil, "", false},
		{"", "", false},
		{" PG ", "PG", true},
		{12.0, "12", true},
		{1.5, "1.5", true},
		{int64(3), "3", true},
		{time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC), "2020-05-01", true},
	}
	for _, c := range cases {
		got, ok := String(c.in)
		if got != c.want || ok != c.wantOK {
			t.Fatalf("String(%v) = (%q,%v), want (%q,%v)", c.in, got, ok, c.want, c.wantOK)
		}
	}
}

func TestKey_EquivalentIntegersShareKey(t *testing.T) {
	t.Parallel()

	if Key(120.0) != Key("120") || Key("120") != Key(int64(120)) {
		t.Fatalf("keys differ: %q %q %q", Key(120.0), Key("120"), Key(int64(120)))
	}
	if Key(nil) != Key("") {
		t.Fatalf("absent keys differ")
	}
	if Key("abc") == Key(nil) {
		t.Fatalf("malformed value must not collide with absent")
	}
}

func TestRawFilm_SetGet(t *testing.T) {
	t.Parallel()

	var r RawFilm
	for i, col := range Columns {
		if !r.Set(col, float64(i)) {
			t.Fatalf("Set(%q) reported unknown column", col)
		}
	}
	if r.Set("Unknown", 1) {
		t.Fatalf("Set accepted an unknown column")
	}
	if got := r.Get("filmid"); got != 0.0 {
		t.Fatalf("Get(filmid) = %v, want 0", got)
	}
	if got := r.Get(ColReview); got != float64(len(Columns)-1) {
		t.Fatalf("Get(Review) = %v", got)
	}
}
