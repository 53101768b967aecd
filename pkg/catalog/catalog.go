// Package catalog is the single entry point for dialect knowledge: the
// grammar of every supported dialect and the type and function mappings
// between them.
package catalog

import (
	"fmt"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/dialect"
	"github.com/leapstack-labs/leapmigrate/pkg/mapping"
	"github.com/leapstack-labs/leapmigrate/pkg/parser"
	"github.com/leapstack-labs/leapmigrate/pkg/token"

	// Supported dialects register themselves at init.
	_ "github.com/leapstack-labs/leapmigrate/pkg/dialects/ansi"
	_ "github.com/leapstack-labs/leapmigrate/pkg/dialects/databricks"
	_ "github.com/leapstack-labs/leapmigrate/pkg/dialects/duckdb"
	_ "github.com/leapstack-labs/leapmigrate/pkg/dialects/mysql"
	_ "github.com/leapstack-labs/leapmigrate/pkg/dialects/postgres"
	_ "github.com/leapstack-labs/leapmigrate/pkg/dialects/snowflake"
)

// Grammar is the capability set of one dialect.
type Grammar interface {
	Name() string
	Tokenize(text string) ([]token.Token, error)
	ParseStatement(text string) (core.Stmt, error)
	QuoteIdentifier(name string) string
	IsReserved(word string) bool
}

type grammar struct {
	d *dialect.Dialect
}

func (g grammar) Name() string { return g.d.Name }

func (g grammar) Tokenize(text string) ([]token.Token, error) {
	return parser.Tokenize(text, g.d)
}

func (g grammar) ParseStatement(text string) (core.Stmt, error) {
	return parser.Parse(text, g.d)
}

func (g grammar) QuoteIdentifier(name string) string { return g.d.QuoteIdentifier(name) }

func (g grammar) IsReserved(word string) bool { return g.d.IsReservedWord(word) }

// Catalog combines the dialect registry with the mapping tables. It is
// read-only and safe for concurrent use.
type Catalog struct {
	tables *mapping.Tables
}

// New returns a catalog over the given mapping tables.
func New(tables *mapping.Tables) *Catalog {
	return &Catalog{tables: tables}
}

// Default returns a catalog over the embedded mapping tables.
func Default() (*Catalog, error) {
	tables, err := mapping.Default()
	if err != nil {
		return nil, err
	}
	return New(tables), nil
}

// Load returns a catalog whose embedded tables are overlaid with the user
// mapping file at path. An empty path behaves like Default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	tables, err := mapping.Load(path)
	if err != nil {
		return nil, err
	}
	return New(tables), nil
}

// Dialect resolves a dialect name. Unknown names yield an error matching
// dialect.ErrUnsupportedDialect.
func (c *Catalog) Dialect(name string) (*dialect.Dialect, error) {
	d, err := dialect.Lookup(name)
	if err != nil {
		return nil, err
	}
	if _, ok := c.tables.Table(d.Name); !ok {
		return nil, &dialect.UnsupportedDialectError{Name: name, Available: c.Dialects()}
	}
	return d, nil
}

// Grammar returns the grammar of a dialect.
func (c *Catalog) Grammar(name string) (Grammar, error) {
	d, err := c.Dialect(name)
	if err != nil {
		return nil, err
	}
	return grammar{d: d}, nil
}

// Dialects returns the names of dialects that have both a grammar and
// mapping tables, sorted.
func (c *Catalog) Dialects() []string {
	var out []string
	for _, name := range dialect.List() {
		if _, ok := c.tables.Table(name); ok {
			out = append(out, name)
		}
	}
	return out
}

// ParseStatement parses one statement in the named dialect.
func (c *Catalog) ParseStatement(text, dialectName string) (core.Stmt, error) {
	g, err := c.Grammar(dialectName)
	if err != nil {
		return nil, err
	}
	return g.ParseStatement(text)
}

// MapType translates a type reference between dialects. The array flag is
// not part of the mapping; callers handle it against the target grammar.
func (c *Catalog) MapType(t *core.TypeRef, from, to string) mapping.Result {
	if t == nil {
		return mapping.Result{Outcome: mapping.Unsupported, Note: "missing type"}
	}
	return c.tables.MapType(t.Name, t.Params, from, to)
}

// MapTypeFor translates a type used as a CAST target or key column.
func (c *Catalog) MapTypeFor(t *core.TypeRef, from, to string, use mapping.Usage) mapping.Result {
	if t == nil {
		return mapping.Result{Outcome: mapping.Unsupported, Note: "missing type"}
	}
	return c.tables.MapTypeFor(t.Name, t.Params, from, to, use)
}

// IsAutoIncrementType reports whether t is a serial-style type in the named
// dialect.
func (c *Catalog) IsAutoIncrementType(t *core.TypeRef, dialectName string) bool {
	if t == nil {
		return false
	}
	return c.tables.IsAutoIncrementType(t.Name, dialectName)
}

// MapFunction translates a function name between dialects.
func (c *Catalog) MapFunction(name, from, to string) mapping.Result {
	return c.tables.MapFunction(name, from, to)
}

// Describe returns a one-line summary of a dialect's capabilities.
func (c *Catalog) Describe(name string) (string, error) {
	d, err := c.Dialect(name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s: quote %s, auto-increment %s, placeholder %s",
		d.Name, d.Identifiers.Quote, d.AutoIncrement.Style, d.PlaceholderType), nil
}
