// Package sqlstore implements storage.Repository over database/sql. The
// sqlite and mssql backends share it and differ only in their Dialect,
// savepoint syntax and argument conversion.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"filmdw/internal/storage"
)

// Savepoints holds the fmt patterns (one %s for the name) used for nested
// transactions. Release may be empty when the backend has no release
// statement.
type Savepoints struct {
	Create     string
	RollbackTo string
	Release    string
}

// Repository is a database/sql backed storage.Repository.
type Repository struct {
	db      *sql.DB
	dialect storage.Dialect
	sp      Savepoints
	convert func(any) any
}

// Option customizes a Repository.
type Option func(*Repository)

// WithArgConverter rewrites every bind argument before it reaches the driver.
func WithArgConverter(fn func(any) any) Option {
	return func(r *Repository) { r.convert = fn }
}

// New wraps an open *sql.DB.
func New(db *sql.DB, d storage.Dialect, sp Savepoints, opts ...Option) *Repository {
	r := &Repository{db: db, dialect: d, sp: sp}
	for _, o := range opts {
		o(r)
	}
	return r
}

var _ storage.Repository = (*Repository)(nil)

func (r *Repository) Dialect() storage.Dialect { return r.dialect }

func (r *Repository) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", r.dialect.Name(), err)
	}
	return &sqlTx{tx: tx, repo: r, seq: new(int)}, nil
}

func (r *Repository) QueryRow(ctx context.Context, q string, args ...any) storage.Row {
	return r.db.QueryRowContext(ctx, q, r.args(args)...)
}

func (r *Repository) Exec(ctx context.Context, q string) error {
	if _, err := r.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("%s: exec: %w", r.dialect.Name(), err)
	}
	return nil
}

func (r *Repository) Close() { _ = r.db.Close() }

func (r *Repository) args(in []any) []any {
	if r.convert == nil {
		return in
	}
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = r.convert(v)
	}
	return out
}

// sqlTx is either the outer transaction (name == "") or a savepoint inside
// it. All levels share one *sql.Tx.
type sqlTx struct {
	tx   *sql.Tx
	repo *Repository
	name string
	seq  *int
	done bool
}

func (t *sqlTx) Exec(ctx context.Context, q string, args ...any) (int64, error) {
	res, err := t.tx.ExecContext(ctx, q, t.repo.args(args)...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (t *sqlTx) Begin(ctx context.Context) (storage.Tx, error) {
	*t.seq++
	name := fmt.Sprintf("sp%d", *t.seq)
	if _, err := t.tx.ExecContext(ctx, fmt.Sprintf(t.repo.sp.Create, name)); err != nil {
		return nil, fmt.Errorf("savepoint %s: %w", name, err)
	}
	return &sqlTx{tx: t.tx, repo: t.repo, name: name, seq: t.seq}, nil
}

func (t *sqlTx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if t.name == "" {
		return t.tx.Commit()
	}
	if t.repo.sp.Release == "" {
		return nil
	}
	_, err := t.tx.ExecContext(ctx, fmt.Sprintf(t.repo.sp.Release, t.name))
	return err
}

func (t *sqlTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if t.name == "" {
		if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			return err
		}
		return nil
	}
	if _, err := t.tx.ExecContext(ctx, fmt.Sprintf(t.repo.sp.RollbackTo, t.name)); err != nil {
		return err
	}
	// ROLLBACK TO leaves the savepoint open.
	if t.repo.sp.Release != "" {
		_, err := t.tx.ExecContext(ctx, fmt.Sprintf(t.repo.sp.Release, t.name))
		return err
	}
	return nil
}
