package ansi

import "github.com/leapstack-labs/leapmigrate/pkg/dialect"

func init() {
	dialect.Register(ANSI)
}

// ansiReservedWords are SQL:2016 reserved words likely to collide with column names.
var ansiReservedWords = []string{
	"all", "and", "any", "as", "asc", "between", "by", "case", "cast", "check",
	"column", "constraint", "create", "cross", "current", "current_date",
	"current_time", "current_timestamp", "current_user", "default", "desc",
	"distinct", "else", "end", "except", "exists", "false", "foreign", "from",
	"full", "group", "having", "in", "inner", "intersect", "interval", "is",
	"join", "left", "like", "limit", "natural", "not", "null", "offset", "on",
	"or", "order", "outer", "primary", "references", "right", "row", "rows",
	"select", "table", "then", "to", "true", "union", "unique", "user",
	"using", "value", "values", "when", "where", "with",
}

// ANSI is the base ANSI SQL dialect.
var ANSI = dialect.New(Config).
	Operators(dialect.ANSIOperators).
	WithReservedWords(ansiReservedWords...).
	Build()
