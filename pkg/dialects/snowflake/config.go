// Package snowflake provides the Snowflake SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package snowflake

import "github.com/leapstack-labs/leapmigrate/pkg/core"

// Config is the Snowflake SQL dialect configuration.
// The Builder reads feature flags and auto-wires standard capabilities.
var Config = &core.DialectConfig{
	Name:          "snowflake",
	DefaultSchema: "PUBLIC",
	Identifiers: core.IdentifierConfig{
		Quote:         `"`,
		QuoteEnd:      `"`,
		Escape:        `""`,
		Normalization: core.NormUppercase, // Snowflake normalizes to uppercase
	},

	// Framework Features (auto-wired by Builder)
	SupportsQualify:      true,
	SupportsIlike:        true,
	SupportsCastOperator: true, // :: operator
	// Snowflake ARRAY is semi-structured and untyped; TYPE[] is not accepted.

	AutoIncrement: core.AutoIncrementConfig{
		Style:    core.AutoIncrementKeyword,
		Keywords: []string{"AUTOINCREMENT", "IDENTITY"},
	},
	PlaceholderType: "VARCHAR",

	Aggregates: []string{
		"SUM", "COUNT", "AVG", "MIN", "MAX", "MEDIAN", "MODE",
		"LISTAGG", "ARRAY_AGG", "OBJECT_AGG",
		"STDDEV", "STDDEV_POP", "STDDEV_SAMP", "VARIANCE", "VAR_POP", "VAR_SAMP",
		"BOOLAND_AGG", "BOOLOR_AGG", "APPROX_COUNT_DISTINCT", "HLL",
		"PERCENTILE_CONT", "PERCENTILE_DISC", "COUNT_IF", "ANY_VALUE",
	},
	Windows: []string{
		"ROW_NUMBER", "RANK", "DENSE_RANK", "NTILE", "PERCENT_RANK", "CUME_DIST",
		"LAG", "LEAD", "FIRST_VALUE", "LAST_VALUE", "NTH_VALUE", "CONDITIONAL_TRUE_EVENT",
	},
	DataTypes: []string{
		"NUMBER", "DECIMAL", "NUMERIC", "INT", "INTEGER", "BIGINT", "SMALLINT", "TINYINT",
		"FLOAT", "DOUBLE", "REAL", "VARCHAR", "CHAR", "STRING", "TEXT", "BINARY",
		"BOOLEAN", "DATE", "TIME", "TIMESTAMP", "TIMESTAMP_NTZ", "TIMESTAMP_LTZ",
		"TIMESTAMP_TZ", "VARIANT", "OBJECT", "ARRAY", "GEOGRAPHY",
	},
}
