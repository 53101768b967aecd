// Package postgres provides the PostgreSQL SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package postgres

import "github.com/leapstack-labs/leapmigrate/pkg/core"

// Config is the PostgreSQL dialect configuration.
// The Builder reads feature flags and auto-wires standard capabilities.
var Config = &core.DialectConfig{
	Name:          "postgres",
	DefaultSchema: "public",
	Identifiers: core.IdentifierConfig{
		Quote:         `"`,
		QuoteEnd:      `"`,
		Escape:        `""`,
		Normalization: core.NormLowercase, // Postgres normalizes unquoted to lowercase
	},

	// Framework Features (auto-wired by Builder)
	SupportsIlike:        true,
	SupportsCastOperator: true,
	SupportsArrays:       true,
	// PostgreSQL does NOT support QUALIFY.

	// SERIAL/BIGSERIAL are types, not column options; they are handled by the
	// type mapping on import. Export uses identity columns.
	AutoIncrement:   core.AutoIncrementConfig{Style: core.AutoIncrementIdentity},
	PlaceholderType: "TEXT",

	Aggregates: []string{
		"SUM", "COUNT", "AVG", "MIN", "MAX",
		"STDDEV", "STDDEV_POP", "STDDEV_SAMP",
		"VARIANCE", "VAR_POP", "VAR_SAMP",
		"ARRAY_AGG", "STRING_AGG",
		"JSONB_AGG", "JSONB_OBJECT_AGG", "JSON_AGG", "JSON_OBJECT_AGG",
		"BOOL_AND", "BOOL_OR", "EVERY",
		"BIT_AND", "BIT_OR", "BIT_XOR",
		"CORR", "COVAR_POP", "COVAR_SAMP",
		"PERCENTILE_CONT", "PERCENTILE_DISC", "MODE",
	},
	Windows: []string{
		"ROW_NUMBER", "RANK", "DENSE_RANK", "NTILE",
		"PERCENT_RANK", "CUME_DIST",
		"LAG", "LEAD", "FIRST_VALUE", "LAST_VALUE", "NTH_VALUE",
	},
	DataTypes: []string{
		"SMALLINT", "INTEGER", "INT", "BIGINT", "SERIAL", "BIGSERIAL", "SMALLSERIAL",
		"NUMERIC", "DECIMAL", "REAL", "DOUBLE PRECISION", "MONEY",
		"CHAR", "VARCHAR", "CHARACTER VARYING", "TEXT", "BYTEA",
		"BOOLEAN", "DATE", "TIME", "TIMESTAMP", "TIMESTAMPTZ", "INTERVAL",
		"JSON", "JSONB", "UUID", "INET", "CIDR",
	},
}
