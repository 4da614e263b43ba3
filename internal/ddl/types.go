package ddl

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - Type: logical type, mapped to a SQL type by the Dialect
//   - SQLType: explicit SQL type; when set it wins over Type
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - Default: raw default expression (e.g., 'anon', CURRENT_TIMESTAMP)
type ColumnDef struct {
	Name       string
	Type       LogicalType
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the table name and an ordered list of columns. A dotted
// name (e.g., "schema.table") is quoted segment by segment.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// LogicalType is the storage-independent type of a column.
type LogicalType int

const (
	// TypeText is free-form text, also used for JSON fragments.
	TypeText LogicalType = iota
	// TypeReal is a double precision float.
	TypeReal
	// TypeBool is a boolean flag.
	TypeBool
	// TypeKey is a text primary key. Some engines need a bounded length
	// for indexed text columns.
	TypeKey
)

func (t LogicalType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeReal:
		return "real"
	case TypeBool:
		return "bool"
	case TypeKey:
		return "key"
	}
	return "unknown"
}

// Dialect captures what differs between SQL engines for the statements this
// module generates.
type Dialect interface {
	// Name is the storage kind the dialect belongs to (e.g., "sqlite").
	Name() string
	// QuoteIdent quotes a single identifier, escaping embedded quote
	// characters.
	QuoteIdent(id string) string
	// Placeholder returns the bind marker for the n-th argument (1-based).
	Placeholder(n int) string
	// ColumnType maps a logical type to the engine's SQL type.
	ColumnType(t LogicalType) string
}
