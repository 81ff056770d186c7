package warehouse

import "fmt"

// RowError is a failure confined to one source row. It is counted and
// sampled but never stops a stage.
type RowError struct {
	Stage string
	Key   string // offending key as it appeared in the source
	Line  int    // source line; 0 when the row spans several lines (deduplicated keys)
	Err   error
}

func (e *RowError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d key=%s: %v", e.Stage, e.Line, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: key=%s: %v", e.Stage, e.Key, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// errAgg keeps the first limit errors and counts the rest. Every error is
// also handed to sink when one is set.
type errAgg struct {
	limit int
	count int
	first []*RowError
	sink  func(*RowError)
}

func newErrAgg(limit int, sink func(*RowError)) *errAgg {
	if limit < 0 {
		limit = 0
	}
	return &errAgg{limit: limit, sink: sink}
}

func (a *errAgg) add(e *RowError) {
	if a.count < a.limit {
		a.first = append(a.first, e)
	}
	a.count++
	if a.sink != nil {
		a.sink(e)
	}
}
