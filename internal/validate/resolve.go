package validate

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapmigrate/internal/lineage"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/token"
)

// references resolves the legacy statement's table and column references
// against the legacy schema.
func (c *check) references() {
	for _, key := range c.in.Unresolved {
		c.verdict.Add(core.Finding{
			Code:     core.CodeUnresolvedTable,
			Severity: core.SeverityInfo,
			Message:  fmt.Sprintf("table %s is not defined by any migrated asset", key),
			Pos:      token.Position{Line: 1, Column: 1},
		})
	}
	if c.in.Schema == nil {
		return
	}

	switch s := c.in.Source.(type) {
	case *core.CreateTableStmt:
		c.foreignKeys(s)
	case *core.CreateViewStmt:
		r := c.newResolver(s)
		r.selectStmt(s.Select, nil)
	case *core.SelectStmt:
		r := c.newResolver(s)
		r.selectStmt(s, nil)
	}
}

func (c *check) foreignKeys(s *core.CreateTableStmt) {
	checkRef := func(ref *core.ForeignKeyRef, pos token.Position) {
		if ref == nil || ref.Table == nil {
			return
		}
		t, ok := c.in.Schema.Lookup(ref.Table.Key())
		if !ok {
			return
		}
		for _, col := range ref.Columns {
			if !t.HasColumn(lineage.ColumnKey(col, false)) && !t.HasColumn(col) {
				c.fail(core.CodeColumnNotFound, pos,
					fmt.Sprintf("foreign key references %s.%s, which does not exist", t.Key, col))
			}
		}
	}
	for _, col := range s.Columns {
		for _, cc := range col.Constraints {
			checkRef(cc.Ref, cc.Pos())
		}
	}
	for _, tc := range s.Constraints {
		checkRef(tc.Ref, tc.Pos())
	}
}

// frame is one SELECT's FROM clause. A nil table marks a relation whose
// columns are not known: a CTE, a derived table or an undeclared table.
type frame struct {
	rels    map[string]*lineage.Table
	aliases map[string]bool
}

type resolver struct {
	c    *check
	ctes map[string]bool
}

func (c *check) newResolver(stmt core.Stmt) *resolver {
	ctes := make(map[string]bool)
	core.Walk(stmt, func(n any) bool {
		if cte, ok := n.(*core.CTE); ok {
			ctes[strings.ToLower(cte.Name)] = true
		}
		return true
	})
	return &resolver{c: c, ctes: ctes}
}

func (r *resolver) selectStmt(s *core.SelectStmt, outer []*frame) {
	if s == nil {
		return
	}
	if s.With != nil {
		for _, cte := range s.With.CTEs {
			r.selectStmt(cte.Select, outer)
		}
	}
	for b := s.Body; b != nil; b = b.Right {
		r.selectCore(b.Left, outer)
	}
}

func (r *resolver) selectCore(sc *core.SelectCore, outer []*frame) {
	if sc == nil {
		return
	}
	f := &frame{rels: make(map[string]*lineage.Table), aliases: make(map[string]bool)}
	if sc.From != nil {
		r.addRelation(f, sc.From.Source, outer)
		for _, j := range sc.From.Joins {
			r.addRelation(f, j.Right, outer)
		}
	}
	for _, item := range sc.Columns {
		if item.Alias != "" {
			f.aliases[strings.ToLower(item.Alias)] = true
		}
	}

	scopes := append([]*frame{f}, outer...)
	for _, item := range sc.Columns {
		r.expr(item.Expr, scopes)
	}
	if sc.From != nil {
		for _, j := range sc.From.Joins {
			r.expr(j.Condition, scopes)
		}
	}
	r.expr(sc.Where, scopes)
	for _, e := range sc.GroupBy {
		r.expr(e, scopes)
	}
	r.expr(sc.Having, scopes)
	r.expr(sc.Qualify, scopes)
	for _, o := range sc.OrderBy {
		r.expr(o.Expr, scopes)
	}
}

func (r *resolver) addRelation(f *frame, ref core.TableRef, outer []*frame) {
	switch t := ref.(type) {
	case *core.TableName:
		alias := t.Alias
		if alias == "" {
			alias = t.Name
		}
		var table *lineage.Table
		if t.Schema != "" || !r.ctes[strings.ToLower(t.Name)] {
			table, _ = r.c.in.Schema.Lookup(t.Key())
		}
		f.rels[strings.ToLower(alias)] = table
	case *core.DerivedTable:
		r.selectStmt(t.Select, outer)
		f.rels[strings.ToLower(t.Alias)] = nil
	}
}

// expr checks the column references of e. Subqueries open their own scope
// nested inside scopes.
func (r *resolver) expr(e core.Expr, scopes []*frame) {
	if e == nil {
		return
	}
	core.Walk(e, func(n any) bool {
		switch x := n.(type) {
		case *core.SelectStmt:
			r.selectStmt(x, scopes)
			return false
		case *core.ColumnRef:
			r.columnRef(x, scopes)
		}
		return true
	})
}

func (r *resolver) columnRef(ref *core.ColumnRef, scopes []*frame) {
	key := lineage.ColumnKey(ref.Column, ref.Quoted)

	if ref.Table != "" {
		qualifier := strings.ToLower(ref.Table)
		if i := strings.LastIndexByte(qualifier, '.'); i >= 0 {
			qualifier = qualifier[i+1:]
		}
		for _, f := range scopes {
			t, ok := f.rels[qualifier]
			if !ok {
				continue
			}
			if t != nil && !t.HasColumn(key) {
				r.c.fail(core.CodeColumnNotFound, ref.Pos(),
					fmt.Sprintf("column %s.%s does not exist in table %s", ref.Table, ref.Column, t.Key))
			}
			return
		}
		return
	}

	if len(scopes) > 0 && scopes[0].aliases[strings.ToLower(ref.Column)] {
		return
	}

	// Unqualified references are only checked when exactly one relation is
	// visible and its columns are known.
	var only *lineage.Table
	visible := 0
	for _, f := range scopes {
		for _, t := range f.rels {
			visible++
			only = t
		}
	}
	if visible == 1 && only != nil && !only.HasColumn(key) {
		r.c.fail(core.CodeColumnNotFound, ref.Pos(),
			fmt.Sprintf("column %s does not exist in table %s", ref.Column, only.Key))
	}
}
