// Package postgres registers the "postgres" storage kind using pgx v5.
// Nested transactions map onto pgx savepoints.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"filmdw/internal/ddl"
	"filmdw/internal/storage"
	pgddl "filmdw/internal/storage/postgres/ddl"
)

// maxParams is the protocol limit on bind parameters per statement.
const maxParams = 65535

// Dialect renders Postgres SQL. Identifiers are folded to lower case, so
// mixed-case names address tables created without quotes.
type Dialect struct{}

func (Dialect) Name() string             { return "postgres" }
func (Dialect) Quote(id string) string   { return pgddl.QuoteIdent(id) }
func (Dialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (Dialect) MaxParams() int           { return maxParams }

// InsertIgnore renders INSERT ... ON CONFLICT (key) DO NOTHING.
func (d Dialect) InsertIgnore(t storage.Table, nrows int) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s ON CONFLICT (%s) DO NOTHING",
		ddl.QuoteFQN(t.Name, d.Quote), storage.ColumnList(d, t.Columns),
		storage.Values(d, len(t.Columns), nrows), d.Quote(t.Key))
}

// Repository is a pgxpool-backed storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository connects and pings the server. The returned close function
// releases the pool.
func NewRepository(ctx context.Context, dsn string) (*Repository, func(), error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", describe(err))
	}
	return &Repository{pool: pool}, pool.Close, nil
}

func (r *Repository) Dialect() storage.Dialect { return Dialect{} }

func (r *Repository) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", describe(err))
	}
	return &pgTx{tx: tx}, nil
}

func (r *Repository) QueryRow(ctx context.Context, sql string, args ...any) storage.Row {
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *Repository) Exec(ctx context.Context, sql string) error {
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return describe(err)
	}
	return nil
}

func (r *Repository) Close() { r.pool.Close() }

// pgTx adapts pgx.Tx. Begin on a pgx.Tx creates a savepoint.
type pgTx struct{ tx pgx.Tx }

func (t *pgTx) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := t.tx.Exec(ctx, sql, args...)
	if err != nil {
		return 0, describe(err)
	}
	return tag.RowsAffected(), nil
}

func (t *pgTx) Begin(ctx context.Context) (storage.Tx, error) {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("savepoint: %w", describe(err))
	}
	return &pgTx{tx: sp}, nil
}

func (t *pgTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return describe(err)
	}
	return nil
}

func (t *pgTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return describe(err)
	}
	return nil
}

// describe surfaces the server's detail and SQLSTATE when err is a
// *pgconn.PgError.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%w (%s; %s)", err, pgErr.Detail, pgErr.SQLState())
	}
	return err
}

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

type wrappedRepo struct {
	*Repository
	closeFn func()
}

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDDL("postgres", func(ctx context.Context, repo storage.Repository, defs []ddl.TableDef) error {
		return storage.ExecEach(ctx, repo, defs, func(d ddl.TableDef) (string, error) {
			return pgddl.BuildCreateTableSQL(d.Mapped(pgddl.MapType))
		})
	})
}
