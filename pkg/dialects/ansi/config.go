// Package ansi provides the base ANSI SQL dialect.
//
// ANSI is the strictest grammar the migrator knows: no :: casts, no ILIKE,
// no QUALIFY and no array types. It is useful as a lowest-common-denominator
// target and as the reference for what "portable" SQL means.
package ansi

import "github.com/leapstack-labs/leapmigrate/pkg/core"

// Config is the ANSI SQL dialect configuration.
var Config = &core.DialectConfig{
	Name: "ansi",
	Identifiers: core.IdentifierConfig{
		Quote:         `"`,
		QuoteEnd:      `"`,
		Escape:        `""`,
		Normalization: core.NormUppercase,
	},
	AutoIncrement:   core.AutoIncrementConfig{Style: core.AutoIncrementIdentity},
	PlaceholderType: "VARCHAR",

	Aggregates: []string{"SUM", "COUNT", "AVG", "MIN", "MAX", "EVERY", "ANY", "SOME"},
	Windows:    []string{"ROW_NUMBER", "RANK", "DENSE_RANK", "PERCENT_RANK", "CUME_DIST", "NTILE", "LAG", "LEAD", "FIRST_VALUE", "LAST_VALUE", "NTH_VALUE"},
	DataTypes: []string{
		"BOOLEAN", "SMALLINT", "INTEGER", "BIGINT", "DECIMAL", "NUMERIC", "REAL",
		"DOUBLE PRECISION", "CHAR", "VARCHAR", "CLOB", "BINARY", "VARBINARY", "BLOB",
		"DATE", "TIME", "TIMESTAMP", "TIMESTAMP WITH TIME ZONE", "INTERVAL",
	},
}
