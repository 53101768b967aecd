// Package databricks provides the Databricks SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package databricks

import "github.com/leapstack-labs/leapmigrate/pkg/core"

// Config is the Databricks SQL dialect configuration.
// The Builder reads feature flags and auto-wires standard capabilities.
var Config = &core.DialectConfig{
	Name:          "databricks",
	DefaultSchema: "default",
	Identifiers: core.IdentifierConfig{
		Quote:         "`",
		QuoteEnd:      "`",
		Escape:        "``",
		Normalization: core.NormCaseInsensitive,
	},

	// Framework Features (auto-wired by Builder)
	SupportsQualify:      true,
	SupportsIlike:        true,
	SupportsCastOperator: true,
	// Databricks spells arrays ARRAY<T>, not T[].

	AutoIncrement:   core.AutoIncrementConfig{Style: core.AutoIncrementIdentity},
	PlaceholderType: "STRING",

	Aggregates: []string{
		"SUM", "COUNT", "AVG", "MIN", "MAX", "MEDIAN", "MODE",
		"COLLECT_LIST", "COLLECT_SET", "ARRAY_AGG", "STRING_AGG", "LISTAGG",
		"FIRST", "LAST", "MAX_BY", "MIN_BY", "BOOL_AND", "BOOL_OR", "COUNT_IF",
		"ANY_VALUE", "APPROX_COUNT_DISTINCT", "PERCENTILE", "PERCENTILE_APPROX",
		"STDDEV", "STDDEV_POP", "STDDEV_SAMP", "VARIANCE", "VAR_POP", "VAR_SAMP",
	},
	Windows: []string{
		"ROW_NUMBER", "RANK", "DENSE_RANK", "NTILE", "PERCENT_RANK", "CUME_DIST",
		"LAG", "LEAD", "FIRST_VALUE", "LAST_VALUE", "NTH_VALUE",
	},
	DataTypes: []string{
		"BOOLEAN", "TINYINT", "SMALLINT", "INT", "INTEGER", "BIGINT", "DECIMAL",
		"FLOAT", "DOUBLE", "STRING", "VARCHAR", "CHAR", "BINARY",
		"DATE", "TIMESTAMP", "TIMESTAMP_NTZ", "INTERVAL", "ARRAY", "MAP", "STRUCT", "VARIANT",
	},
}
