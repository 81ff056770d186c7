package storage

import (
	"context"
	"fmt"
	"sync"

	"filmdw/internal/ddl"
)

// DDLBootstrapper maps logical table definitions onto a backend's types and
// creates whichever tables do not exist yet. Existing tables are left alone.
type DDLBootstrapper func(ctx context.Context, repo Repository, defs []ddl.TableDef) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) the DDLBootstrapper for kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTables runs the bootstrapper registered for kind.
func EnsureTables(ctx context.Context, kind string, repo Repository, defs []ddl.TableDef) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	return fn(ctx, repo, defs)
}

// ExecEach renders each definition with build and executes it via repo.Exec.
func ExecEach(ctx context.Context, repo Repository, defs []ddl.TableDef, build func(ddl.TableDef) (string, error)) error {
	for _, d := range defs {
		stmt, err := build(d)
		if err != nil {
			return fmt.Errorf("build %s: %w", d.FQN, err)
		}
		if err := repo.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create %s: %w", d.FQN, err)
		}
	}
	return nil
}
