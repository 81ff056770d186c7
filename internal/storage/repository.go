// Package storage contains the storage-agnostic contracts used by the
// warehouse loaders: a Repository that hands out transactions, the SQL
// Dialect of the backend behind it, and a registry through which backends
// make themselves available by kind.
package storage

import "context"

// Row is a single query result.
type Row interface {
	Scan(dest ...any) error
}

// Execer runs a parameterized statement and reports rows affected.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
}

// Tx is a transaction. Begin on a Tx opens a nested transaction backed by a
// savepoint: rolling it back undoes only the work done since it began.
//
// Rollback after a successful Commit is a no-op, so callers can always
// defer Rollback.
type Tx interface {
	Execer
	Begin(ctx context.Context) (Tx, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Repository is an open warehouse connection.
type Repository interface {
	Dialect() Dialect
	Begin(ctx context.Context) (Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
	// Exec runs a statement outside any transaction (DDL).
	Exec(ctx context.Context, sql string) error
	Close()
}
