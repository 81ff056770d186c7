// Package pipeline runs one filmdw batch end to end: extract the source,
// transform every row, then load the star schema into the configured
// warehouse, dimensions first and the fact table last, and finish with a
// verification query.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"filmdw/internal/config"
	"filmdw/internal/datasource/file"
	"filmdw/internal/extract"
	"filmdw/internal/metrics"
	"filmdw/internal/rejects"
	"filmdw/internal/storage"
	"filmdw/internal/transformer"
	"filmdw/internal/warehouse"
)

// Summary reports a completed run.
type Summary struct {
	Job       string
	Source    file.Fingerprint
	Extracted int
	Transform transformer.Stats
	Stages    []warehouse.Result
	Totals    warehouse.Totals
	TotalsErr error
	Started   time.Time
	Finished  time.Time
}

// Failed reports whether any stage failed or the verification query did
// not complete. Row errors alone do not fail a run.
func (s Summary) Failed() bool {
	if s.TotalsErr != nil {
		return true
	}
	for _, st := range s.Stages {
		if !st.OK() {
			return true
		}
	}
	return false
}

// RowErrors is the total number of row errors over all stages.
func (s Summary) RowErrors() int {
	n := 0
	for _, st := range s.Stages {
		n += st.Errors
	}
	return n
}

// Test seams.
var (
	extractFn     = extract.Extract
	openStoreFn   = storage.New
	fingerprintFn = func(ctx context.Context, path string) (file.Fingerprint, error) {
		return file.NewLocal(path).Fingerprint(ctx)
	}
	now = time.Now
)

// Run executes p. It returns an error only when the run could not start
// loading: the source could not be extracted, the warehouse could not be
// opened, or the schema could not be created. Load failures are reported per
// stage in the Summary and the run still reaches the verification query.
// The warehouse connection is closed before Run returns.
func Run(ctx context.Context, p config.Pipeline) (Summary, error) {
	sum := Summary{Job: p.Job, Started: now()}

	fp, err := fingerprintFn(ctx, p.Source.Path)
	if err != nil {
		log.Printf("pipeline: fingerprint unavailable path=%s: %v", p.Source.Path, err)
	}
	sum.Source = fp
	log.Printf("pipeline: job=%s source=%s fingerprint=%s storage=%s", p.Job, p.Source.Path, fp, p.Storage.Kind)

	start := time.Now()
	raw, err := extractFn(ctx, sourceFrom(p.Source))
	metrics.RecordStep(p.Job, "extract", err, time.Since(start))
	if err != nil {
		return finished(&sum), fmt.Errorf("run %s: %w", p.Job, err)
	}
	sum.Extracted = len(raw)
	metrics.RecordRows(p.Job, "extract", metrics.KindExtracted, int64(len(raw)))

	start = time.Now()
	films, st := transformer.Transform(raw)
	metrics.RecordStep(p.Job, "transform", nil, time.Since(start))
	sum.Transform = st
	log.Printf("transform: rows=%d valid_dates=%d valid_budgets=%d valid_box_office=%d recovered=%d",
		st.Rows, st.ValidDates, st.ValidBudgets, st.ValidBoxOffice, st.Recovered)

	start = time.Now()
	repo, err := openStoreFn(ctx, storage.Config{Kind: p.Storage.Kind, DSN: p.Storage.DSN})
	metrics.RecordStep(p.Job, "connect", err, time.Since(start))
	if err != nil {
		return finished(&sum), fmt.Errorf("open storage kind=%s: %w", p.Storage.Kind, err)
	}
	defer repo.Close()

	if p.Storage.CreateSchema {
		start = time.Now()
		err := storage.EnsureTables(ctx, p.Storage.Kind, repo, warehouse.Schema(p.Runtime.TitleMaxLen, p.Runtime.ReviewMaxLen))
		metrics.RecordStep(p.Job, "create_schema", err, time.Since(start))
		if err != nil {
			return finished(&sum), fmt.Errorf("create schema: %w", err)
		}
	}

	l := &warehouse.Loader{
		Repo:         repo,
		BatchSize:    p.Runtime.BatchSize,
		MaxSamples:   p.Runtime.MaxErrorSamples,
		TitleMaxLen:  p.Runtime.TitleMaxLen,
		ReviewMaxLen: p.Runtime.ReviewMaxLen,
	}
	if p.Runtime.RejectFile != "" {
		rl, err := rejects.Create(p.Runtime.RejectFile)
		if err != nil {
			return finished(&sum), fmt.Errorf("reject file: %w", err)
		}
		l.OnRowError = rl.Add
		defer func() {
			if err := rl.Close(); err != nil {
				log.Printf("pipeline: %v", err)
				return
			}
			log.Printf("rejects: path=%s rows=%d %v", rl.Path(), rl.Total(), rl.Stages())
		}()
	}
	sum.Stages = l.LoadAll(ctx, films)
	for _, r := range sum.Stages {
		metrics.RecordStep(p.Job, "load_"+r.Stage, r.Err, r.Duration)
		metrics.RecordRows(p.Job, r.Stage, metrics.KindInserted, r.Inserted)
		metrics.RecordRows(p.Job, r.Stage, metrics.KindSkipped, r.Skipped)
		metrics.RecordRows(p.Job, r.Stage, metrics.KindErrors, int64(r.Errors))
	}

	start = time.Now()
	sum.Totals, sum.TotalsErr = warehouse.QueryTotals(ctx, repo)
	metrics.RecordStep(p.Job, "verify", sum.TotalsErr, time.Since(start))
	if sum.TotalsErr != nil {
		log.Printf("pipeline: %v", sum.TotalsErr)
	}
	return finished(&sum), nil
}

func finished(s *Summary) Summary {
	s.Finished = now()
	return *s
}

// sourceFrom maps the source config onto an extract.Source.
func sourceFrom(s config.Source) extract.Source {
	return extract.Source{
		Kind:      s.Kind,
		Path:      s.Path,
		Sheet:     s.Sheet,
		HeaderMap: s.Options.StringMap("header_map"),
		Comma:     s.Options.Rune("comma", ','),

		StrictQuotes: s.Options.Bool("strict_quotes", false),
	}
}
