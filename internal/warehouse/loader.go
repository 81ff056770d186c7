// Package warehouse loads cleaned film rows into the star schema: seven
// dimension tables followed by FactFilmPerformance.
//
// Every write is insert-or-skip-on-conflict: a key that already exists is
// left untouched, so reloading the same batch changes nothing. Rows are
// written in multi-row batches; when a batch fails it is retried one row at
// a time so that a single bad row costs only itself.
package warehouse

import (
	"context"
	"log"
	"time"

	"filmdw/internal/film"
	"filmdw/internal/storage"
)

// Defaults for Loader fields left at zero.
const (
	DefaultBatchSize    = 500
	DefaultMaxSamples   = 5
	DefaultTitleMaxLen  = 200
	DefaultReviewMaxLen = 500
)

// Loader writes to one warehouse connection. It is not safe for concurrent
// use; stages run one after another.
type Loader struct {
	Repo storage.Repository

	BatchSize    int
	MaxSamples   int
	TitleMaxLen  int
	ReviewMaxLen int

	// OnRowError, when set, receives every row error in addition to the
	// bounded samples kept in Result.
	OnRowError func(*RowError)
}

// Result reports one stage.
type Result struct {
	Stage    string
	Rows     int   // candidate rows after projection, filtering and de-duplication
	Inserted int64 // rows written
	Skipped  int64 // rows whose key already existed
	Errors   int   // row errors
	Samples  []*RowError
	Err      error // stage-level failure (fact commit)
	Duration time.Duration
}

// OK reports whether the stage finished without a stage-level failure.
func (r Result) OK() bool { return r.Err == nil }

// prepared is a row ready for insertion.
type prepared struct {
	key    string
	line   int
	values []any
}

func (l *Loader) batchSize() int {
	if l.BatchSize > 0 {
		return l.BatchSize
	}
	return DefaultBatchSize
}

func (l *Loader) maxSamples() int {
	if l.MaxSamples > 0 {
		return l.MaxSamples
	}
	return DefaultMaxSamples
}

// batches splits rows into chunks no larger than the configured batch size
// or the dialect's parameter limit.
func (l *Loader) batches(t storage.Table, rows []prepared) [][]prepared {
	step := storage.BatchLimit(l.Repo.Dialect(), t, l.batchSize())
	var out [][]prepared
	for start := 0; start < len(rows); start += step {
		end := start + step
		if end > len(rows) {
			end = len(rows)
		}
		out = append(out, rows[start:end])
	}
	return out
}

func values(rows []prepared) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = r.values
	}
	return out
}

// loadIsolated writes rows for a dimension stage. Each batch commits on its
// own; a failed batch is rolled back and its rows retried, each in its own
// transaction.
func (l *Loader) loadIsolated(ctx context.Context, res *Result, agg *errAgg, t storage.Table, rows []prepared) {
	d := l.Repo.Dialect()

	insertCommit := func(batch []prepared) (int64, error) {
		tx, err := l.Repo.Begin(ctx)
		if err != nil {
			return 0, err
		}
		defer tx.Rollback(ctx)
		n, err := storage.InsertIgnore(ctx, tx, d, t, values(batch))
		if err != nil {
			return 0, err
		}
		if err := tx.Commit(ctx); err != nil {
			return 0, err
		}
		return n, nil
	}

	for _, batch := range l.batches(t, rows) {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return
		}
		n, err := insertCommit(batch)
		if err == nil {
			res.Inserted += n
			continue
		}
		if len(batch) > 1 {
			log.Printf("load: stage=%s batch of %d failed, retrying row by row: %v", res.Stage, len(batch), err)
		}
		for _, r := range batch {
			n, err := insertCommit([]prepared{r})
			if err != nil {
				agg.add(&RowError{Stage: res.Stage, Key: r.key, Line: r.line, Err: err})
				continue
			}
			res.Inserted += n
		}
	}
}

// loadCumulative writes rows for the fact stage inside one transaction.
// Each batch, and on failure each row, runs under a savepoint that is rolled
// back on error. Nothing is visible until the single commit at the end; if
// that commit fails the stage reports an error and no inserted rows.
func (l *Loader) loadCumulative(ctx context.Context, res *Result, agg *errAgg, t storage.Table, rows []prepared) {
	d := l.Repo.Dialect()

	tx, err := l.Repo.Begin(ctx)
	if err != nil {
		res.Err = err
		return
	}
	defer tx.Rollback(ctx)

	insertSavepoint := func(batch []prepared) (int64, error) {
		sp, err := tx.Begin(ctx)
		if err != nil {
			return 0, err
		}
		n, err := storage.InsertIgnore(ctx, sp, d, t, values(batch))
		if err != nil {
			if rerr := sp.Rollback(ctx); rerr != nil {
				log.Printf("load: stage=%s rollback savepoint: %v", res.Stage, rerr)
			}
			return 0, err
		}
		return n, sp.Commit(ctx)
	}

	var inserted int64
	for _, batch := range l.batches(t, rows) {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return
		}
		n, err := insertSavepoint(batch)
		if err == nil {
			inserted += n
			continue
		}
		if len(batch) > 1 {
			log.Printf("load: stage=%s batch of %d failed, retrying row by row: %v", res.Stage, len(batch), err)
		}
		for _, r := range batch {
			n, err := insertSavepoint([]prepared{r})
			if err != nil {
				agg.add(&RowError{Stage: res.Stage, Key: r.key, Line: r.line, Err: err})
				continue
			}
			inserted += n
		}
	}

	if err := tx.Commit(ctx); err != nil {
		res.Err = err
		return
	}
	res.Inserted = inserted
}

// finish fills the derived counters of res and logs the stage outcome.
func finish(res *Result, agg *errAgg, start time.Time) Result {
	res.Errors = agg.count
	res.Samples = agg.first
	if res.Err == nil {
		res.Skipped = int64(res.Rows-res.Errors) - res.Inserted
		if res.Skipped < 0 {
			res.Skipped = 0
		}
	}
	res.Duration = time.Since(start)

	log.Printf("load: stage=%s rows=%d inserted=%d skipped=%d errors=%d elapsed=%s",
		res.Stage, res.Rows, res.Inserted, res.Skipped, res.Errors, res.Duration.Truncate(time.Millisecond))
	for _, e := range res.Samples {
		log.Printf("load: %v", e)
	}
	if res.Errors > len(res.Samples) {
		log.Printf("load: stage=%s %d more row errors not shown", res.Stage, res.Errors-len(res.Samples))
	}
	if res.Err != nil {
		log.Printf("load: stage=%s failed: %v", res.Stage, res.Err)
	}
	return *res
}

// LoadAll runs every stage in order: DimTime, DimFilm, the simple
// dimensions, then the fact table. A stage error is recorded in its Result
// and later stages still run.
func (l *Loader) LoadAll(ctx context.Context, films []film.Film) []Result {
	out := make([]Result, 0, len(Dimensions)+3)
	out = append(out, l.LoadTime(ctx, films), l.LoadFilms(ctx, films))
	for _, d := range Dimensions {
		out = append(out, l.LoadDimension(ctx, films, d))
	}
	return append(out, l.LoadFacts(ctx, films))
}
