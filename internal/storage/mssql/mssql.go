// Package mssql registers the "mssql" storage kind (Microsoft SQL Server via
// go-mssqldb). Conflict skipping uses INSERT ... SELECT ... WHERE NOT EXISTS
// and nested transactions use SAVE TRANSACTION.
package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"filmdw/internal/ddl"
	"filmdw/internal/storage"
	msddl "filmdw/internal/storage/mssql/ddl"
	"filmdw/internal/storage/sqlstore"
)

// maxParams stays under SQL Server's 2100 parameters per request.
const maxParams = 2000

// Dialect renders T-SQL.
type Dialect struct{}

func (Dialect) Name() string             { return "mssql" }
func (Dialect) Quote(id string) string   { return msddl.QuoteIdent(id) }
func (Dialect) Placeholder(n int) string { return "@p" + strconv.Itoa(n) }
func (Dialect) MaxParams() int           { return maxParams }

// InsertIgnore renders:
//
//	INSERT INTO [t] ([a], [b])
//	SELECT v.[a], v.[b] FROM (VALUES (@p1, @p2), ...) AS v ([a], [b])
//	WHERE NOT EXISTS (SELECT 1 FROM [t] WHERE [t].[a] = v.[a])
func (d Dialect) InsertIgnore(t storage.Table, nrows int) string {
	fqn := ddl.QuoteFQN(t.Name, d.Quote)
	cols := storage.ColumnList(d, t.Columns)
	sel := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		sel[i] = "v." + d.Quote(c)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM (VALUES %s) AS v (%s) WHERE NOT EXISTS (SELECT 1 FROM %s AS x WHERE x.%s = v.%s)",
		fqn, cols, strings.Join(sel, ", "),
		storage.Values(d, len(t.Columns), nrows), cols,
		fqn, d.Quote(t.Key), d.Quote(t.Key),
	)
}

var savepoints = sqlstore.Savepoints{
	Create:     "SAVE TRANSACTION %s",
	RollbackTo: "ROLLBACK TRANSACTION %s",
}

// Open validates the DSN, connects and pings the server.
func Open(ctx context.Context, dsn string) (*sqlstore.Repository, error) {
	if _, err := msdsn.Parse(dsn); err != nil {
		return nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", describe(err))
	}
	return sqlstore.New(db, Dialect{}, savepoints), nil
}

// describe adds the server error number when err is an mssql.Error.
func describe(err error) error {
	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return fmt.Errorf("%w (error %d, state %d)", err, msErr.Number, msErr.State)
	}
	return err
}

// openFn is a test seam.
var openFn = Open

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, err := openFn(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return r, nil
	})
	storage.RegisterDDL("mssql", func(ctx context.Context, repo storage.Repository, defs []ddl.TableDef) error {
		return storage.ExecEach(ctx, repo, defs, func(d ddl.TableDef) (string, error) {
			return msddl.BuildCreateTableSQL(d.Mapped(msddl.MapType))
		})
	})
}
