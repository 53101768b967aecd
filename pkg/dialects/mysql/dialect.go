package mysql

import (
	"github.com/leapstack-labs/leapmigrate/pkg/dialect"
)

func init() {
	dialect.Register(MySQL)
}

// mysqlReservedWords is the subset of MySQL 8 reserved words that commonly
// appear as column or table names in migrated schemas.
var mysqlReservedWords = []string{
	"accessible", "add", "all", "alter", "analyze", "and", "as", "asc",
	"before", "between", "bigint", "binary", "blob", "both", "by", "call",
	"cascade", "case", "change", "char", "character", "check", "collate",
	"column", "condition", "constraint", "convert", "create", "cross", "cube",
	"current_date", "current_time", "current_timestamp", "current_user",
	"database", "databases", "default", "delete", "desc", "describe",
	"distinct", "div", "double", "drop", "else", "exists", "explain", "false",
	"fetch", "float", "for", "force", "foreign", "from", "fulltext", "generated",
	"grant", "group", "groups", "having", "if", "ignore", "in", "index",
	"inner", "insert", "int", "integer", "interval", "into", "is", "join",
	"key", "keys", "kill", "lead", "left", "like", "limit", "lines", "load",
	"lock", "long", "match", "mod", "natural", "not", "null", "numeric", "of",
	"on", "option", "or", "order", "outer", "over", "partition", "primary",
	"range", "rank", "read", "real", "references", "regexp", "rename",
	"repeat", "replace", "require", "restrict", "return", "revoke", "right",
	"rlike", "row", "rows", "schema", "select", "set", "show", "signal",
	"smallint", "spatial", "sql", "table", "then", "to", "trigger", "true",
	"union", "unique", "unlock", "unsigned", "update", "usage", "use",
	"using", "values", "varchar", "when", "where", "while", "window", "with",
	"write", "xor", "year_month", "zerofill",
}

// MySQL is the MySQL dialect.
var MySQL = dialect.New(Config).
	Operators(dialect.ANSIOperators).
	WithReservedWords(mysqlReservedWords...).
	Build()
