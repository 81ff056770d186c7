// Package rejects writes every row error of a run to a CSV file so rejected
// rows can be fixed at the source and the batch reloaded.
package rejects

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"filmdw/internal/warehouse"
)

// Header is the first record of every reject file.
var Header = []string{"stage", "line", "key", "error"}

// Log appends row errors to a CSV file and counts them per stage.
type Log struct {
	path string

	mu     sync.Mutex
	f      *os.File
	w      *csv.Writer
	counts map[string]int
	err    error
}

// Create creates (or truncates) path, creating parent directories as
// needed, and writes the header.
func Create(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return &Log{path: path, f: f, w: w, counts: map[string]int{}}, nil
}

// Path returns the file being written.
func (l *Log) Path() string { return l.path }

// Add records one row error. Write failures are kept and reported by Close.
func (l *Log) Add(e *warehouse.RowError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[e.Stage]++
	if l.err != nil {
		return
	}
	line := ""
	if e.Line > 0 {
		line = strconv.Itoa(e.Line)
	}
	l.err = l.w.Write([]string{e.Stage, line, e.Key, e.Err.Error()})
}

// Total is the number of errors added.
func (l *Log) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.counts {
		n += c
	}
	return n
}

// Stages returns "stage=count" pairs sorted by stage.
func (l *Log) Stages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.counts))
	for s, c := range l.counts {
		out = append(out, s+"="+strconv.Itoa(c))
	}
	sort.Strings(out)
	return out
}

// Close flushes and closes the file. It returns the first write error.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Flush()
	if l.err == nil {
		l.err = l.w.Error()
	}
	if cerr := l.f.Close(); l.err == nil && cerr != nil {
		l.err = cerr
	}
	if l.err != nil {
		return fmt.Errorf("rejects %s: %w", l.path, l.err)
	}
	return nil
}
