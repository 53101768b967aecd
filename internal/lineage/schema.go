package lineage

import (
	"sort"
	"strings"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
)

// ColumnKey returns the comparison key of a column name. Unquoted names are
// case-insensitive.
func ColumnKey(name string, quoted bool) string {
	if quoted {
		return name
	}
	return strings.ToLower(name)
}

// Table is the shape of one legacy table.
type Table struct {
	Key     string
	Columns []string // column keys in declaration order
	index   map[string]int
}

// HasColumn reports whether the table declares the column key.
func (t *Table) HasColumn(key string) bool {
	_, ok := t.index[key]
	return ok
}

// Schema is the set of legacy tables declared by Table assets.
type Schema struct {
	tables map[string]*Table
	bare   map[string][]string
}

// NewSchema returns an empty schema.
func NewSchema() *Schema {
	return &Schema{tables: make(map[string]*Table), bare: make(map[string][]string)}
}

// Add records a CREATE TABLE. A second definition of the same key is ignored.
func (s *Schema) Add(stmt *core.CreateTableStmt) {
	if stmt == nil || stmt.Name == nil {
		return
	}
	key := stmt.Name.Key()
	if _, ok := s.tables[key]; ok {
		return
	}
	t := &Table{Key: key, index: make(map[string]int)}
	for _, col := range stmt.Columns {
		ck := ColumnKey(col.Name, col.Quoted)
		t.index[ck] = len(t.Columns)
		t.Columns = append(t.Columns, ck)
	}
	s.tables[key] = t
	b := bareName(key)
	s.bare[b] = append(s.bare[b], key)
}

// Lookup resolves a table key. A qualified key that is not declared falls
// back to its bare name, and a bare key matches a qualified table when only
// one table has that name.
func (s *Schema) Lookup(key string) (*Table, bool) {
	if t, ok := s.tables[key]; ok {
		return t, true
	}
	if candidates := s.bare[bareName(key)]; len(candidates) == 1 {
		return s.tables[candidates[0]], true
	}
	return nil, false
}

// Tables returns every table key, sorted.
func (s *Schema) Tables() []string {
	keys := make([]string, 0, len(s.tables))
	for k := range s.tables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func bareName(key string) string {
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		return key[i+1:]
	}
	return key
}
