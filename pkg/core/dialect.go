package core

// DialectConfig holds the static configuration for a SQL dialect.
// It is pure data without handler functions.
//
// The runtime behavior (keyword and operator tables, quoting) lives in
// pkg/dialect.Dialect, which is built from this config.
type DialectConfig struct {
	// Name is the dialect identifier (e.g., "snowflake", "postgres")
	Name string

	// Identifiers defines quoting and normalization rules
	Identifiers IdentifierConfig

	// DefaultSchema is the default schema name ("public" for Postgres)
	DefaultSchema string

	// Framework features (auto-wired by the Builder)
	SupportsCastOperator bool // expr::type
	SupportsIlike        bool // ILIKE operator
	SupportsQualify      bool // QUALIFY clause
	SupportsArrays       bool // TYPE[] columns and expr[i] access

	// PipesAsOr marks dialects where || is logical OR, so string
	// concatenation must be spelled CONCAT(a, b).
	PipesAsOr bool

	// AutoIncrement describes how an auto-incrementing column is spelled.
	AutoIncrement AutoIncrementConfig

	// PlaceholderType is the column type substituted when a source type has
	// no equivalent. It must be a type the dialect's own grammar accepts.
	PlaceholderType string

	// Function classifications (normalized names)
	Aggregates []string
	Windows    []string

	// DataTypes lists the type names the dialect understands.
	DataTypes []string

	// CastTypes restricts the types CAST may target; empty allows any type.
	// The first entry is the placeholder for casts with no mapping.
	CastTypes []string
}

// AutoIncrementStyle describes how a dialect declares auto-incrementing columns.
type AutoIncrementStyle int

const (
	// AutoIncrementNone means the dialect has no column-level auto-increment.
	AutoIncrementNone AutoIncrementStyle = iota
	// AutoIncrementKeyword is a column option such as AUTO_INCREMENT or AUTOINCREMENT.
	AutoIncrementKeyword
	// AutoIncrementIdentity is GENERATED BY DEFAULT AS IDENTITY.
	AutoIncrementIdentity
)

// String returns the style name.
func (s AutoIncrementStyle) String() string {
	switch s {
	case AutoIncrementKeyword:
		return "keyword"
	case AutoIncrementIdentity:
		return "identity"
	default:
		return "none"
	}
}

// AutoIncrementConfig configures auto-increment spelling.
type AutoIncrementConfig struct {
	Style AutoIncrementStyle
	// Keywords accepted for AutoIncrementKeyword; the first is used when printing.
	Keywords []string
}

// NormalizationStrategy defines how unquoted identifiers are normalized.
type NormalizationStrategy int

const (
	// NormLowercase normalizes unquoted identifiers to lowercase (default SQL behavior).
	NormLowercase NormalizationStrategy = iota
	// NormUppercase normalizes unquoted identifiers to uppercase (Snowflake, Oracle).
	NormUppercase
	// NormCaseSensitive preserves identifier case exactly.
	NormCaseSensitive
	// NormCaseInsensitive normalizes to lowercase for comparison (MySQL, Databricks, DuckDB).
	NormCaseInsensitive
)

// IdentifierConfig defines how identifiers are quoted and normalized.
type IdentifierConfig struct {
	Quote         string                // Quote character: ", `
	QuoteEnd      string                // End quote character (usually same as Quote)
	Escape        string                // Escape sequence: "", ``
	Normalization NormalizationStrategy // How to normalize unquoted identifiers
}
