package lineage

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
)

// TransformType describes how source columns are transformed.
type TransformType string

const (
	// TransformDirect means the column is a direct copy (no transformation).
	TransformDirect TransformType = ""
	// TransformExpression means the column is derived from an expression.
	TransformExpression TransformType = "EXPR"
)

// SourceRef is one source column of an output column.
type SourceRef struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// ColumnLineage describes the lineage of a single output column.
type ColumnLineage struct {
	Name      string        `json:"name"`
	Sources   []SourceRef   `json:"sources"`
	Transform TransformType `json:"transform,omitempty"`
	Function  string        `json:"function,omitempty"`
}

// scopeEntry is one relation visible in a FROM clause.
type scopeEntry struct {
	alias   string
	table   string           // base table key; empty for CTEs and derived tables
	columns []*ColumnLineage // output columns of a CTE or derived table
}

func (e *scopeEntry) hasColumn(key string, schema *Schema) bool {
	if e.table != "" {
		t, ok := schema.Lookup(e.table)
		return ok && t.HasColumn(key)
	}
	return findColumn(e.columns, key) != nil
}

type scope struct {
	parent  *scope
	ctes    map[string]*scopeEntry
	entries []*scopeEntry
}

func (s *scope) child() *scope {
	return &scope{parent: s, ctes: s.ctes}
}

func (s *scope) lookup(alias string) *scopeEntry {
	for sc := s; sc != nil; sc = sc.parent {
		for _, e := range sc.entries {
			if e.alias == alias {
				return e
			}
		}
	}
	return nil
}

// columnExtractor computes output column lineage of a statement.
type columnExtractor struct {
	schema *Schema
}

// ExtractColumns returns the output column lineage of a view or query. DDL
// for tables has no output columns and yields nil.
func ExtractColumns(stmt core.Stmt, schema *Schema) []*ColumnLineage {
	if schema == nil {
		schema = NewSchema()
	}
	e := &columnExtractor{schema: schema}
	switch s := stmt.(type) {
	case *core.SelectStmt:
		return e.selectStmt(s, &scope{ctes: map[string]*scopeEntry{}})
	case *core.CreateViewStmt:
		cols := e.selectStmt(s.Select, &scope{ctes: map[string]*scopeEntry{}})
		for i, name := range s.Columns {
			if i < len(cols) {
				cols[i].Name = ColumnKey(name, false)
			}
		}
		return cols
	}
	return nil
}

func (e *columnExtractor) selectStmt(stmt *core.SelectStmt, parent *scope) []*ColumnLineage {
	if stmt == nil || stmt.Body == nil {
		return nil
	}
	sc := parent
	if stmt.With != nil {
		ctes := make(map[string]*scopeEntry, len(parent.ctes)+len(stmt.With.CTEs))
		for k, v := range parent.ctes {
			ctes[k] = v
		}
		sc = &scope{parent: parent, ctes: ctes}
		for _, cte := range stmt.With.CTEs {
			key := strings.ToLower(cte.Name)
			entry := &scopeEntry{alias: key}
			// Registered first so a recursive reference resolves to the CTE.
			ctes[key] = entry
			entry.columns = e.selectStmt(cte.Select, sc)
			for i, name := range cte.Columns {
				if i < len(entry.columns) {
					entry.columns[i].Name = ColumnKey(name, false)
				}
			}
		}
	}
	return e.body(stmt.Body, sc)
}

func (e *columnExtractor) body(body *core.SelectBody, parent *scope) []*ColumnLineage {
	var columns []*ColumnLineage
	for i, sc := range body.Cores() {
		cols := e.selectCore(sc, parent)
		if i == 0 {
			columns = cols
			continue
		}
		// Set operations take names from the left and sources from every side.
		for j, col := range columns {
			if j < len(cols) {
				col.Sources = mergeSources(col.Sources, cols[j].Sources)
				col.Transform = TransformExpression
			}
		}
	}
	return columns
}

func (e *columnExtractor) selectCore(c *core.SelectCore, parent *scope) []*ColumnLineage {
	sc := &scope{parent: parent, ctes: parent.ctes}
	if c.From != nil {
		e.addTableRef(sc, c.From.Source)
		for _, j := range c.From.Joins {
			e.addTableRef(sc, j.Right)
		}
	}

	var columns []*ColumnLineage
	for i, item := range c.Columns {
		switch {
		case item.Star:
			for _, entry := range sc.entries {
				columns = append(columns, e.expandStar(entry)...)
			}
		case item.TableStar != "":
			if entry := sc.lookup(strings.ToLower(item.TableStar)); entry != nil {
				columns = append(columns, e.expandStar(entry)...)
			} else {
				columns = append(columns, &ColumnLineage{Name: "*"})
			}
		default:
			col := e.expr(sc, item.Expr)
			col.Name = outputName(item, i)
			columns = append(columns, col)
		}
	}
	return columns
}

func (e *columnExtractor) addTableRef(sc *scope, ref core.TableRef) {
	switch r := ref.(type) {
	case *core.TableName:
		alias := r.Alias
		if alias == "" {
			alias = r.Name
		}
		alias = strings.ToLower(alias)
		if r.Schema == "" {
			if cte, ok := sc.ctes[strings.ToLower(r.Name)]; ok {
				sc.entries = append(sc.entries, &scopeEntry{alias: alias, columns: cte.columns})
				return
			}
		}
		sc.entries = append(sc.entries, &scopeEntry{alias: alias, table: r.Key()})
	case *core.DerivedTable:
		cols := e.selectStmt(r.Select, &scope{ctes: sc.ctes})
		sc.entries = append(sc.entries, &scopeEntry{alias: strings.ToLower(r.Alias), columns: cols})
	}
}

func (e *columnExtractor) expandStar(entry *scopeEntry) []*ColumnLineage {
	if entry.table == "" {
		out := make([]*ColumnLineage, 0, len(entry.columns))
		for _, c := range entry.columns {
			out = append(out, &ColumnLineage{Name: c.Name, Sources: c.Sources, Transform: c.Transform, Function: c.Function})
		}
		return out
	}
	t, ok := e.schema.Lookup(entry.table)
	if !ok {
		return []*ColumnLineage{{Name: "*", Sources: []SourceRef{{Table: entry.table, Column: "*"}}}}
	}
	out := make([]*ColumnLineage, 0, len(t.Columns))
	for _, c := range t.Columns {
		out = append(out, &ColumnLineage{Name: c, Sources: []SourceRef{{Table: t.Key, Column: c}}})
	}
	return out
}

// expr computes the lineage of one select-list expression.
func (e *columnExtractor) expr(sc *scope, expr core.Expr) *ColumnLineage {
	col := &ColumnLineage{Transform: TransformExpression}
	inner := expr
	for {
		p, ok := inner.(*core.ParenExpr)
		if !ok {
			break
		}
		inner = p.Expr
	}
	switch x := inner.(type) {
	case *core.ColumnRef:
		col.Transform = TransformDirect
	case *core.FuncCall:
		col.Function = strings.ToLower(x.Name)
	}

	core.Walk(expr, func(n any) bool {
		switch x := n.(type) {
		case *core.ColumnRef:
			col.Sources = mergeSources(col.Sources, e.resolve(sc, x))
		case *core.SubqueryExpr:
			// Scalar subquery: only its select list feeds the value.
			for _, c := range e.selectStmt(x.Select, sc.child()) {
				col.Sources = mergeSources(col.Sources, c.Sources)
			}
			return false
		case *core.SelectStmt:
			return false
		}
		return true
	})
	return col
}

// resolve maps a column reference to its source columns.
func (e *columnExtractor) resolve(sc *scope, ref *core.ColumnRef) []SourceRef {
	key := ColumnKey(ref.Column, ref.Quoted)

	var entry *scopeEntry
	if ref.Table != "" {
		entry = sc.lookup(strings.ToLower(ref.Table))
	} else {
		entry = e.unqualified(sc, key)
	}
	if entry == nil {
		return nil
	}
	if entry.table != "" {
		return []SourceRef{{Table: entry.table, Column: key}}
	}
	if c := findColumn(entry.columns, key); c != nil {
		return c.Sources
	}
	return nil
}

// unqualified finds the single relation an unqualified column belongs to,
// searching outwards through enclosing scopes.
func (e *columnExtractor) unqualified(sc *scope, key string) *scopeEntry {
	for s := sc; s != nil; s = s.parent {
		if s == sc && len(s.entries) == 1 {
			return s.entries[0]
		}
		var match *scopeEntry
		count := 0
		for _, entry := range s.entries {
			if entry.hasColumn(key, e.schema) {
				match = entry
				count++
			}
		}
		if count == 1 {
			return match
		}
		if count > 1 {
			return nil
		}
	}
	return nil
}

func findColumn(cols []*ColumnLineage, key string) *ColumnLineage {
	for _, c := range cols {
		if c.Name == key {
			return c
		}
	}
	return nil
}

// outputName infers the name a select item exposes.
func outputName(item core.SelectItem, index int) string {
	if item.Alias != "" {
		return ColumnKey(item.Alias, false)
	}
	return inferColumnName(item.Expr, index)
}

func inferColumnName(expr core.Expr, index int) string {
	switch ex := expr.(type) {
	case *core.ColumnRef:
		return ColumnKey(ex.Column, ex.Quoted)
	case *core.FuncCall:
		return strings.ToLower(ex.Name)
	case *core.CastExpr:
		return inferColumnName(ex.Expr, index)
	case *core.ParenExpr:
		return inferColumnName(ex.Expr, index)
	default:
		return "column" + strconv.Itoa(index+1)
	}
}

// mergeSources appends b to a, skipping duplicates.
func mergeSources(a, b []SourceRef) []SourceRef {
	for _, s := range b {
		dup := false
		for _, have := range a {
			if have == s {
				dup = true
				break
			}
		}
		if !dup {
			a = append(a, s)
		}
	}
	return a
}
