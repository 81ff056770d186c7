// Package sqlite registers the "sqlite" storage kind, backed by the pure-Go
// modernc.org/sqlite driver through database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"filmdw/internal/ddl"
	"filmdw/internal/storage"
	sqliteddl "filmdw/internal/storage/sqlite/ddl"
	"filmdw/internal/storage/sqlstore"
)

// maxVariables is SQLITE_MAX_VARIABLE_NUMBER as compiled into the driver.
const maxVariables = 32766

// Dialect renders SQLite SQL.
type Dialect struct{}

func (Dialect) Name() string           { return "sqlite" }
func (Dialect) Quote(id string) string { return sqliteddl.QuoteIdent(id) }
func (Dialect) Placeholder(int) string { return "?" }
func (Dialect) MaxParams() int         { return maxVariables }

// InsertIgnore renders INSERT ... ON CONFLICT (key) DO NOTHING.
func (d Dialect) InsertIgnore(t storage.Table, nrows int) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s ON CONFLICT (%s) DO NOTHING",
		ddl.QuoteFQN(t.Name, d.Quote), storage.ColumnList(d, t.Columns),
		storage.Values(d, len(t.Columns), nrows), d.Quote(t.Key))
}

var savepoints = sqlstore.Savepoints{
	Create:     "SAVEPOINT %s",
	RollbackTo: "ROLLBACK TO SAVEPOINT %s",
	Release:    "RELEASE SAVEPOINT %s",
}

// Open opens a SQLite database. DSN is passed to the driver as-is, e.g.
// "warehouse.db" or "file:warehouse.db?_pragma=busy_timeout(5000)". The pool
// is pinned to a single connection so that ":memory:" databases and
// transactions see one consistent database.
func Open(ctx context.Context, dsn string) (*sqlstore.Repository, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return sqlstore.New(db, Dialect{}, savepoints, sqlstore.WithArgConverter(toSQLite)), nil
}

// toSQLite stores dates as ISO-8601 text.
func toSQLite(v any) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.UTC().Format(time.RFC3339)
}

// openFn is a test seam.
var openFn = Open

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, err := openFn(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return r, nil
	})
	storage.RegisterDDL("sqlite", func(ctx context.Context, repo storage.Repository, defs []ddl.TableDef) error {
		return storage.ExecEach(ctx, repo, defs, func(d ddl.TableDef) (string, error) {
			return sqliteddl.BuildCreateTableSQL(d.Mapped(sqliteddl.MapType))
		})
	})
}
