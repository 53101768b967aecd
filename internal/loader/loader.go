// Package loader ingests legacy SQL files into assets.
//
// A source tree is walked for *.sql files in lexicographic order, each file
// is cut into top-level statements, and every statement becomes one Asset.
// Statements are classified from their leading tokens only; full parsing
// happens later so that one malformed statement never stops ingestion.
package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapmigrate/pkg/catalog"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/parser"
	"github.com/leapstack-labs/leapmigrate/pkg/token"
)

// SQLExt is the extension of files picked up from a source tree.
const SQLExt = ".sql"

// Discover returns the SQL files under root in lexicographic order of their
// slash-separated relative paths. A root that is a file is returned as-is.
func Discover(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), SQLExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool {
		return filepath.ToSlash(files[i]) < filepath.ToSlash(files[j])
	})
	return files, nil
}

// Load discovers and splits every SQL file under root into assets written
// in the grammar's dialect.
func Load(root string, g catalog.Grammar) ([]*core.Asset, error) {
	files, err := Discover(root)
	if err != nil {
		return nil, err
	}

	b := newBuilder(g)
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		b.addFile(relPath(root, path), string(content))
	}
	return b.finish(), nil
}

// LoadScript splits a single script held in memory. name stands in for the
// file path in asset names and locations.
func LoadScript(name, script string, g catalog.Grammar) []*core.Asset {
	b := newBuilder(g)
	b.addFile(name, script)
	return b.finish()
}

func relPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && rel != "." {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(filepath.Base(path))
}

// builder assigns unique names across all files of one load. Tables and
// views claim their names before stored queries, so a query file that shares
// a table's name never shadows the table.
type builder struct {
	grammar catalog.Grammar
	assets  []*core.Asset
	wanted  []string
	taken   map[string]bool
}

func newBuilder(g catalog.Grammar) *builder {
	return &builder{grammar: g, taken: make(map[string]bool)}
}

func (b *builder) addFile(path, script string) {
	segments := parser.SplitStatements(script)
	stem := fileStem(path)

	kinds := make([]core.AssetKind, len(segments))
	names := make([]string, len(segments))
	queries := 0
	for i, seg := range segments {
		kinds[i], names[i] = Classify(seg.Text, b.grammar)
		if kinds[i] == core.KindStoredQuery {
			queries++
		}
	}

	n := 0
	for ordinal, seg := range segments {
		name := names[ordinal]
		if kinds[ordinal] == core.KindStoredQuery {
			n++
			name = stem
			if queries > 1 {
				name = stem + "_" + strconv.Itoa(n)
			}
		}
		b.wanted = append(b.wanted, name)
		b.assets = append(b.assets, &core.Asset{
			Kind:    kinds[ordinal],
			Source:  seg.Text,
			Dialect: b.grammar.Name(),
			Path:    path,
			Ordinal: ordinal,
			Line:    seg.Pos.Line,
			Column:  seg.Pos.Column,
		})
	}
}

// finish assigns final names and returns the assets in load order.
func (b *builder) finish() []*core.Asset {
	for _, ddl := range []bool{true, false} {
		for i, a := range b.assets {
			if a.Kind.IsDDL() == ddl {
				a.Name = b.unique(b.wanted[i])
			}
		}
	}
	return b.assets
}

// unique returns name, or name with the smallest numeric suffix not yet used.
func (b *builder) unique(name string) string {
	candidate := name
	for i := 2; b.taken[candidate]; i++ {
		candidate = name + "_" + strconv.Itoa(i)
	}
	b.taken[candidate] = true
	return candidate
}

func fileStem(path string) string {
	base := filepath.Base(filepath.FromSlash(path))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Classify returns the kind of a statement and, for DDL, the key of the
// object it creates. Statements that are not CREATE TABLE or CREATE VIEW are
// stored queries and get no name here. A lexical error past the object name
// does not matter; one before it makes the statement a stored query.
func Classify(text string, g catalog.Grammar) (core.AssetKind, string) {
	toks, _ := g.Tokenize(text)
	c := cursor{toks: toks}

	if !c.match(token.CREATE) {
		return core.KindStoredQuery, ""
	}
	if c.check(token.OR) && c.wordAt(1, "REPLACE") {
		c.pos += 2
	}
	temporary := c.matchWord("TEMP") || c.matchWord("TEMPORARY")
	materialized := c.matchWord("MATERIALIZED")

	var kind core.AssetKind
	switch {
	case c.match(token.TABLE) && !materialized:
		kind = core.KindTable
	case c.matchWord("VIEW") && !temporary:
		kind = core.KindView
	default:
		return core.KindStoredQuery, ""
	}

	if c.matchWord("IF") {
		c.match(token.NOT)
		c.match(token.EXISTS)
	}

	name, ok := c.tableName()
	if !ok {
		return core.KindStoredQuery, ""
	}
	return kind, name.Key()
}

type cursor struct {
	toks []token.Token
	pos  int
}

func (c *cursor) at(i int) token.Token {
	if c.pos+i < len(c.toks) {
		return c.toks[c.pos+i]
	}
	return token.Token{Type: token.EOF}
}

func (c *cursor) check(t token.TokenType) bool { return c.at(0).Type == t }

func (c *cursor) match(t token.TokenType) bool {
	if c.check(t) {
		c.pos++
		return true
	}
	return false
}

func (c *cursor) wordAt(i int, word string) bool {
	tok := c.at(i)
	return tok.Type == token.IDENT && !tok.Quoted && strings.EqualFold(tok.Literal, word)
}

func (c *cursor) matchWord(word string) bool {
	if c.wordAt(0, word) {
		c.pos++
		return true
	}
	return false
}

// tableName reads name ("." name){0,2}.
func (c *cursor) tableName() (*core.TableName, bool) {
	var parts []token.Token
	for {
		tok := c.at(0)
		if tok.Type != token.IDENT {
			return nil, false
		}
		parts = append(parts, tok)
		c.pos++
		if len(parts) == 3 || !c.match(token.DOT) {
			break
		}
	}

	last := parts[len(parts)-1]
	tn := &core.TableName{Name: last.Literal, Quoted: last.Quoted}
	switch len(parts) {
	case 3:
		tn.Catalog, tn.Schema = parts[0].Literal, parts[1].Literal
	case 2:
		tn.Schema = parts[0].Literal
	}
	return tn, true
}
