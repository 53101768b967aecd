// Package duckdb provides the DuckDB SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package duckdb

import "github.com/leapstack-labs/leapmigrate/pkg/core"

// Config is the DuckDB dialect configuration.
// The Builder reads feature flags and auto-wires standard capabilities.
var Config = &core.DialectConfig{
	Name:          "duckdb",
	DefaultSchema: "main",
	Identifiers: core.IdentifierConfig{
		Quote:         `"`,
		QuoteEnd:      `"`,
		Escape:        `""`,
		Normalization: core.NormCaseInsensitive,
	},

	// Framework Features (auto-wired by Builder)
	SupportsQualify:      true,
	SupportsIlike:        true,
	SupportsCastOperator: true,
	SupportsArrays:       true,

	// DuckDB has no column-level auto-increment; sequences are separate
	// objects and are out of scope for table translation.
	AutoIncrement:   core.AutoIncrementConfig{Style: core.AutoIncrementNone},
	PlaceholderType: "VARCHAR",

	Aggregates: []string{
		"SUM", "COUNT", "AVG", "MIN", "MAX", "MEDIAN", "MODE", "QUANTILE",
		"LIST", "ARRAY_AGG", "STRING_AGG", "GROUP_CONCAT", "FIRST", "LAST",
		"ARG_MAX", "ARG_MIN", "BOOL_AND", "BOOL_OR", "COUNT_IF", "ANY_VALUE",
		"STDDEV", "STDDEV_POP", "STDDEV_SAMP", "VARIANCE", "VAR_POP", "VAR_SAMP",
		"APPROX_COUNT_DISTINCT", "HISTOGRAM",
	},
	Windows: []string{
		"ROW_NUMBER", "RANK", "DENSE_RANK", "NTILE", "PERCENT_RANK", "CUME_DIST",
		"LAG", "LEAD", "FIRST_VALUE", "LAST_VALUE", "NTH_VALUE",
	},
	DataTypes: []string{
		"BOOLEAN", "TINYINT", "SMALLINT", "INTEGER", "BIGINT", "HUGEINT",
		"UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT",
		"DECIMAL", "NUMERIC", "REAL", "FLOAT", "DOUBLE",
		"VARCHAR", "TEXT", "BLOB", "DATE", "TIME", "TIMESTAMP", "TIMESTAMPTZ",
		"INTERVAL", "UUID", "JSON", "LIST", "STRUCT", "MAP",
	},
}
