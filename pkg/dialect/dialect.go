// Package dialect provides SQL dialect configuration and function classification.
//
// This package contains the public contract for dialect definitions used by the
// lexer, parser, printer and rewriter. Concrete dialect implementations are
// registered from pkg/dialects/*/ packages.
package dialect

import (
	"sort"
	"strings"
	"unicode"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/token"
)

// Type classifies how a function affects column lineage.
type Type int

const (
	// LineagePassthrough means all input columns pass through (default for unknown functions).
	LineagePassthrough Type = iota
	// LineageAggregate means many rows aggregate to one value (SUM, COUNT, etc.).
	LineageAggregate
	// LineageWindow means function requires OVER clause (ROW_NUMBER, LAG, etc.).
	LineageWindow
)

// String returns the string representation of Type.
func (t Type) String() string {
	switch t {
	case LineagePassthrough:
		return "passthrough"
	case LineageAggregate:
		return "aggregate"
	case LineageWindow:
		return "window"
	default:
		return "unknown"
	}
}

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Name        string
	Identifiers core.IdentifierConfig

	DefaultSchema   string
	AutoIncrement   core.AutoIncrementConfig
	PlaceholderType string

	features core.DialectConfig

	aggregates    map[string]struct{}
	windows       map[string]struct{}
	reservedWords map[string]struct{}
	dataTypes     []string

	symbols    map[string]token.TokenType // Custom operators: "::" -> TokenDColon
	dynamicKw  map[string]token.TokenType // Custom keywords: "qualify" -> TokenQualify
	precedence map[token.TokenType]int
}

// Config returns the pure data configuration for this dialect.
func (d *Dialect) Config() *core.DialectConfig {
	cfg := d.features
	cfg.Name = d.Name
	cfg.Identifiers = d.Identifiers
	cfg.DefaultSchema = d.DefaultSchema
	cfg.AutoIncrement = d.AutoIncrement
	cfg.PlaceholderType = d.PlaceholderType
	cfg.Aggregates = sortedKeys(d.aggregates)
	cfg.Windows = sortedKeys(d.windows)
	cfg.DataTypes = append([]string(nil), d.dataTypes...)
	return &cfg
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FunctionLineageType returns the lineage classification for a function.
func (d *Dialect) FunctionLineageType(name string) Type {
	normalized := strings.ToUpper(name)
	if _, ok := d.aggregates[normalized]; ok {
		return LineageAggregate
	}
	if _, ok := d.windows[normalized]; ok {
		return LineageWindow
	}
	return LineagePassthrough
}

// IsAggregate returns true if the function is an aggregate function.
func (d *Dialect) IsAggregate(name string) bool {
	return d.FunctionLineageType(name) == LineageAggregate
}

// IsWindow returns true if the function is a window-only function.
func (d *Dialect) IsWindow(name string) bool {
	return d.FunctionLineageType(name) == LineageWindow
}

// NormalizeName normalizes an identifier according to dialect rules.
func (d *Dialect) NormalizeName(name string) string {
	switch d.Identifiers.Normalization {
	case core.NormUppercase:
		return strings.ToUpper(name)
	case core.NormLowercase, core.NormCaseInsensitive:
		return strings.ToLower(name)
	default: // NormCaseSensitive
		return name
	}
}

// DataTypes returns the type names the dialect understands.
func (d *Dialect) DataTypes() []string {
	return d.dataTypes
}

// CastTypeAllowed reports whether CAST may target the named type.
func (d *Dialect) CastTypeAllowed(name string) bool {
	if len(d.features.CastTypes) == 0 {
		return true
	}
	name = strings.ToUpper(name)
	for _, t := range d.features.CastTypes {
		if t == name {
			return true
		}
	}
	return false
}

// CastPlaceholder is the type used for a CAST whose target has no mapping.
func (d *Dialect) CastPlaceholder() string {
	if len(d.features.CastTypes) > 0 && !d.CastTypeAllowed(d.PlaceholderType) {
		return d.features.CastTypes[0]
	}
	return d.PlaceholderType
}

// SupportsCastOperator reports whether expr::type is valid.
func (d *Dialect) SupportsCastOperator() bool { return d.features.SupportsCastOperator }

// SupportsIlike reports whether ILIKE is an operator.
func (d *Dialect) SupportsIlike() bool { return d.features.SupportsIlike }

// SupportsQualify reports whether SELECT accepts a QUALIFY clause.
func (d *Dialect) SupportsQualify() bool { return d.features.SupportsQualify }

// SupportsArrays reports whether TYPE[] columns and expr[i] are valid.
func (d *Dialect) SupportsArrays() bool { return d.features.SupportsArrays }

// PipesAsOr reports whether || means OR rather than concatenation.
func (d *Dialect) PipesAsOr() bool { return d.features.PipesAsOr }

// IsReservedWord returns true if the word needs quoting when used as an identifier.
func (d *Dialect) IsReservedWord(word string) bool {
	_, ok := d.reservedWords[strings.ToLower(word)]
	return ok
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

// QuoteIdentifierIfNeeded quotes an identifier if it is a reserved word or is
// not a plain identifier (contains spaces, punctuation or starts with a digit).
func (d *Dialect) QuoteIdentifierIfNeeded(name string) string {
	if d.IsReservedWord(name) || !isSimpleIdent(name) {
		return d.QuoteIdentifier(name)
	}
	return name
}

func isSimpleIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', unicode.IsLetter(r):
		case unicode.IsDigit(r) && i > 0:
		default:
			return false
		}
	}
	return true
}

// ---------- Parsing Behavior Methods ----------

// Symbols returns the custom operators map for lexer symbol matching.
func (d *Dialect) Symbols() map[string]token.TokenType {
	return d.symbols
}

// LookupKeyword returns the token type for a dynamic keyword.
// Returns the token type and true if found, or IDENT and false if not.
func (d *Dialect) LookupKeyword(name string) (token.TokenType, bool) {
	if t, ok := d.dynamicKw[strings.ToLower(name)]; ok {
		return t, true
	}
	return token.IDENT, false
}

// Precedence returns the precedence level for an operator token.
// Returns PrecedenceNone if the operator is not recognized.
func (d *Dialect) Precedence(t token.TokenType) int {
	if p, ok := d.precedence[t]; ok {
		return p
	}
	return PrecedenceNone
}

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect *Dialect
	config  *core.DialectConfig
}

// New creates a dialect builder from a DialectConfig.
// The builder auto-wires features based on config flags when Build() is called.
func New(cfg *core.DialectConfig) *Builder {
	return &Builder{
		config: cfg,
		dialect: &Dialect{
			Name:            cfg.Name,
			Identifiers:     cfg.Identifiers,
			DefaultSchema:   cfg.DefaultSchema,
			AutoIncrement:   cfg.AutoIncrement,
			PlaceholderType: cfg.PlaceholderType,
			features:        *cfg,
			aggregates:      make(map[string]struct{}),
			windows:         make(map[string]struct{}),
			reservedWords:   make(map[string]struct{}),
			symbols:         make(map[string]token.TokenType),
			dynamicKw:       make(map[string]token.TokenType),
			precedence:      make(map[token.TokenType]int),
		},
	}
}

// WithReservedWords registers words that need quoting when used as identifiers.
func (b *Builder) WithReservedWords(words ...string) *Builder {
	for _, w := range words {
		b.dialect.reservedWords[strings.ToLower(w)] = struct{}{}
	}
	return b
}

// Operators adds operator definitions in bulk.
// If Symbol is provided, it's registered with the lexer.
func (b *Builder) Operators(sets ...[]OperatorDef) *Builder {
	for _, set := range sets {
		for _, op := range set {
			b.dialect.precedence[op.Token] = op.Precedence
			if op.Symbol != "" {
				b.dialect.symbols[op.Symbol] = op.Token
			}
		}
	}
	return b
}

// AddOperator registers a custom operator symbol for the lexer.
func (b *Builder) AddOperator(symbol string, t token.TokenType, precedence int) *Builder {
	b.dialect.symbols[symbol] = t
	b.dialect.precedence[t] = precedence
	return b
}

// AddKeyword registers a dynamic keyword for the lexer.
func (b *Builder) AddKeyword(name string, t token.TokenType) *Builder {
	b.dialect.dynamicKw[strings.ToLower(name)] = t
	return b
}

// Build returns the constructed dialect, auto-wiring features from the
// config flags.
func (b *Builder) Build() *Dialect {
	cfg := b.config
	d := b.dialect

	for _, f := range cfg.Aggregates {
		d.aggregates[strings.ToUpper(f)] = struct{}{}
	}
	for _, f := range cfg.Windows {
		d.windows[strings.ToUpper(f)] = struct{}{}
	}
	d.dataTypes = append(d.dataTypes, cfg.DataTypes...)

	if len(d.precedence) == 0 {
		b.Operators(ANSIOperators)
	}

	if cfg.SupportsQualify {
		b.AddKeyword("QUALIFY", TokenQualify)
	}
	if cfg.SupportsIlike {
		b.AddKeyword("ILIKE", TokenIlike)
		d.precedence[TokenIlike] = PrecedenceComparison
	}
	if cfg.SupportsCastOperator {
		b.AddOperator("::", TokenDColon, PrecedencePostfix)
	}

	return d
}
