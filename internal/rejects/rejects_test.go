package rejects

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filmdw/internal/warehouse"
)

func TestLog_WritesEveryError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "rejects.csv")
	l, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	l.Add(&warehouse.RowError{Stage: "DimFilm", Key: "abc", Line: 4, Err: errors.New("FilmID: not an integer")})
	l.Add(&warehouse.RowError{Stage: "DimTime", Key: "<nil>", Err: errors.New("missing RunTimeMinutes")})
	l.Add(&warehouse.RowError{Stage: "DimFilm", Key: "7", Line: 9, Err: errors.New(`title "x, y"`)})
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(recs) != 4 || strings.Join(recs[0], ",") != "stage,line,key,error" {
		t.Fatalf("records = %v", recs)
	}
	if got := strings.Join(recs[1], "|"); got != "DimFilm|4|abc|FilmID: not an integer" {
		t.Fatalf("row 1 = %q", got)
	}
	if recs[2][1] != "" {
		t.Fatalf("line must be blank when unknown, got %q", recs[2][1])
	}
	if recs[3][3] != `title "x, y"` {
		t.Fatalf("quoting lost: %q", recs[3][3])
	}

	if l.Total() != 3 || strings.Join(l.Stages(), " ") != "DimFilm=2 DimTime=1" {
		t.Fatalf("total=%d stages=%v", l.Total(), l.Stages())
	}
}

func TestCreate_Unwritable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Create(filepath.Join(blocker, "rejects.csv")); err == nil {
		t.Fatalf("Create under a regular file must fail")
	}
}
