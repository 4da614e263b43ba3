// Package ddl provides the Postgres dialect for the generic ddl builders.
package ddl

import (
	"strconv"

	"github.com/jackc/pgx/v5"

	gddl "notionsqlite/internal/ddl"
)

// Kind is the storage kind this dialect serves.
const Kind = "postgres"

// Dialect implements ddl.Dialect for Postgres.
//
//	TypeText / TypeKey -> TEXT
//	TypeReal           -> DOUBLE PRECISION
//	TypeBool           -> BOOLEAN
type Dialect struct{}

var _ gddl.Dialect = Dialect{}

func (Dialect) Name() string { return Kind }

// QuoteIdent quotes id with pgx's identifier sanitizer, which doubles
// embedded quotes and strips NUL bytes.
func (Dialect) QuoteIdent(id string) string { return pgx.Identifier{id}.Sanitize() }

func (Dialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (Dialect) ColumnType(t gddl.LogicalType) string {
	switch t {
	case gddl.TypeReal:
		return "DOUBLE PRECISION"
	case gddl.TypeBool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}
