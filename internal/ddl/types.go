package ddl

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: column name (unquoted; quoting happens at render time)
//   - SQLType: logical type (int, bigint, smallint, float, date, text,
//     varchar(n)) or a concrete SQL type once mapped by a backend
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - Default: raw default expression
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the table name (FQN, optionally schema-qualified) and an
// ordered list of columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Mapped returns a copy of t with every column type passed through mapType.
func (t TableDef) Mapped(mapType func(string) string) TableDef {
	out := TableDef{FQN: t.FQN, Columns: make([]ColumnDef, len(t.Columns))}
	for i, c := range t.Columns {
		c.SQLType = mapType(c.SQLType)
		out.Columns[i] = c
	}
	return out
}
