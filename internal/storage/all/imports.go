// Package all wires every built-in storage backend into the storage
// registry. Importing it for side effects makes the "postgres", "mssql" and
// "sqlite" kinds available to storage.New and storage.EnsureTables:
//
//	import _ "filmdw/internal/storage/all"
package all

import (
	_ "filmdw/internal/storage/mssql"
	_ "filmdw/internal/storage/postgres"
	_ "filmdw/internal/storage/sqlite"
)
