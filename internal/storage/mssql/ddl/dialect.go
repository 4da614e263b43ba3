// Package ddl provides the SQL Server dialect for the generic ddl builders.
//
// It maps logical types into SQL Server types:
//
//	TypeText -> NVARCHAR(MAX)
//	TypeKey  -> NVARCHAR(450) (the widest NVARCHAR allowed in a clustered key)
//	TypeReal -> FLOAT
//	TypeBool -> BIT
package ddl

import (
	"strconv"

	gddl "notionsqlite/internal/ddl"
)

// Kind is the storage kind this dialect serves.
const Kind = "mssql"

// Dialect implements ddl.Dialect for SQL Server.
type Dialect struct{}

var _ gddl.Dialect = Dialect{}

func (Dialect) Name() string { return Kind }

// QuoteIdent brackets id, doubling any embedded "]".
func (Dialect) QuoteIdent(id string) string { return gddl.DoubleQuote(id, '[', ']') }

// Placeholder returns go-mssqldb's ordinal marker @pN.
func (Dialect) Placeholder(n int) string { return "@p" + strconv.Itoa(n) }

func (Dialect) ColumnType(t gddl.LogicalType) string {
	switch t {
	case gddl.TypeReal:
		return "FLOAT"
	case gddl.TypeBool:
		return "BIT"
	case gddl.TypeKey:
		return "NVARCHAR(450)"
	default:
		return "NVARCHAR(MAX)"
	}
}
