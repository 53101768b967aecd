// Package mysql provides the MySQL SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package mysql

import "github.com/leapstack-labs/leapmigrate/pkg/core"

// Config is the MySQL dialect configuration.
//
// MySQL has none of the :: cast, ILIKE or QUALIFY extensions, which makes it
// the dialect most likely to surface rewrite notes.
var Config = &core.DialectConfig{
	Name: "mysql",
	Identifiers: core.IdentifierConfig{
		Quote:         "`",
		QuoteEnd:      "`",
		Escape:        "``",
		Normalization: core.NormCaseInsensitive,
	},
	AutoIncrement: core.AutoIncrementConfig{
		Style:    core.AutoIncrementKeyword,
		Keywords: []string{"AUTO_INCREMENT"},
	},
	PlaceholderType: "TEXT",
	CastTypes: []string{
		"CHAR", "BINARY", "DATE", "DATETIME", "DECIMAL", "DOUBLE", "FLOAT", "JSON",
		"NCHAR", "REAL", "SIGNED", "SIGNED INTEGER", "SIGNED INT", "TIME",
		"UNSIGNED", "UNSIGNED INTEGER", "UNSIGNED INT", "YEAR",
	},
	PipesAsOr:       true,

	Aggregates: []string{
		"SUM", "COUNT", "AVG", "MIN", "MAX", "GROUP_CONCAT",
		"BIT_AND", "BIT_OR", "BIT_XOR", "STD", "STDDEV", "STDDEV_POP", "STDDEV_SAMP",
		"VARIANCE", "VAR_POP", "VAR_SAMP", "JSON_ARRAYAGG", "JSON_OBJECTAGG",
	},
	Windows: []string{
		"ROW_NUMBER", "RANK", "DENSE_RANK", "NTILE", "PERCENT_RANK", "CUME_DIST",
		"LAG", "LEAD", "FIRST_VALUE", "LAST_VALUE", "NTH_VALUE",
	},
	DataTypes: []string{
		"TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT",
		"DECIMAL", "NUMERIC", "FLOAT", "DOUBLE", "BIT", "BOOLEAN",
		"CHAR", "VARCHAR", "TINYTEXT", "TEXT", "MEDIUMTEXT", "LONGTEXT",
		"BINARY", "VARBINARY", "BLOB", "LONGBLOB",
		"DATE", "TIME", "DATETIME", "TIMESTAMP", "YEAR", "JSON", "ENUM", "SET",
	},
}
