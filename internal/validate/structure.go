package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapmigrate/internal/lineage"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/token"
)

// structure compares the legacy statement with the re-parsed translation.
func (c *check) structure(target core.Stmt) {
	switch src := c.in.Source.(type) {
	case *core.CreateTableStmt:
		dst, ok := target.(*core.CreateTableStmt)
		if !ok {
			c.fail(core.CodeRewriteProducedInvalidSQL, src.Pos(), "translated statement is no longer a CREATE TABLE")
			return
		}
		c.tables(src, dst)
	case *core.CreateViewStmt, *core.SelectStmt:
		if kindOf(src) != kindOf(target) {
			c.fail(core.CodeRewriteProducedInvalidSQL, src.Pos(), "translated statement changed kind")
			return
		}
		c.outputs(src, target)
		c.referencedTables(src, target)
	}
}

func kindOf(s core.Stmt) string {
	switch s.(type) {
	case *core.CreateTableStmt:
		return "table"
	case *core.CreateViewStmt:
		return "view"
	case *core.SelectStmt:
		return "query"
	default:
		return fmt.Sprintf("%T", s)
	}
}

// ---------- Tables ----------

func (c *check) tables(src, dst *core.CreateTableStmt) {
	if len(src.Columns) != len(dst.Columns) {
		c.mismatch(core.CodeColumnCountMismatch, src.Pos(), "",
			fmt.Sprintf("table has %d columns, translation has %d", len(src.Columns), len(dst.Columns)))
	}

	n := min(len(src.Columns), len(dst.Columns))
	for i := range n {
		c.column(src.Columns[i], dst.Columns[i], i)
	}
	c.constraintSet(src, dst)
}

func (c *check) column(s, d *core.ColumnDef, i int) {
	pos := s.Pos()
	if lineage.ColumnKey(s.Name, s.Quoted) != lineage.ColumnKey(d.Name, d.Quoted) {
		c.mismatch(core.CodeColumnMismatch, pos, s.Name,
			fmt.Sprintf("column %d is %s, translation has %s", i+1, s.Name, d.Name))
		return
	}
	if s.Has(core.ConstraintNotNull) != d.Has(core.ConstraintNotNull) {
		c.mismatch(core.CodeColumnMismatch, pos, s.Name,
			fmt.Sprintf("nullability of %s changed", s.Name))
	}
	if s.Has(core.ConstraintDefault) != d.Has(core.ConstraintDefault) {
		c.mismatch(core.CodeColumnMismatch, pos, s.Name,
			fmt.Sprintf("default of %s added or removed", s.Name))
	}
	from, to := c.in.Asset.Dialect, c.in.Translation.TargetDialect
	srcAuto := s.Has(core.ConstraintAutoIncrement) || c.v.catalog.IsAutoIncrementType(s.Type, from)
	dstAuto := d.Has(core.ConstraintAutoIncrement) || c.v.catalog.IsAutoIncrementType(d.Type, to)
	if srcAuto != dstAuto {
		c.mismatch(core.CodeColumnMismatch, pos, s.Name,
			fmt.Sprintf("auto-increment of %s changed", s.Name))
	}
}

// constraintEntry is one normalized constraint: its kind, the columns it
// covers and, for foreign keys, the referenced table and columns.
type constraintEntry struct {
	key     string
	subject string
	pos     token.Position
}

func (c *check) constraintSet(src, dst *core.CreateTableStmt) {
	have := constraintEntries(dst)
	counts := make(map[string]int, len(have))
	for _, e := range have {
		counts[e.key]++
	}

	for _, e := range constraintEntries(src) {
		if counts[e.key] > 0 {
			counts[e.key]--
			continue
		}
		c.mismatch(core.CodeConstraintMismatch, e.pos, e.subject, "constraint missing from translation: "+e.key)
	}

	// Whatever is left was added by the translation. Positions of the
	// translated statement are not source positions, so these attach to the
	// table itself.
	for _, e := range have {
		if counts[e.key] > 0 {
			counts[e.key]--
			c.mismatch(core.CodeConstraintMismatch, src.Pos(), e.subject, "constraint added by translation: "+e.key)
		}
	}
}

func constraintEntries(stmt *core.CreateTableStmt) []constraintEntry {
	var out []constraintEntry
	for _, col := range stmt.Columns {
		cols := []string{col.Name}
		for _, cc := range col.Constraints {
			switch cc.Kind {
			case core.ConstraintPrimaryKey, core.ConstraintUnique, core.ConstraintNotNull:
				out = append(out, constraintEntry{key: constraintKey(cc.Kind, cols, nil), subject: col.Name, pos: cc.Pos()})
			case core.ConstraintForeignKey:
				out = append(out, constraintEntry{key: constraintKey(cc.Kind, cols, cc.Ref), subject: col.Name, pos: cc.Pos()})
			case core.ConstraintCheck:
				out = append(out, constraintEntry{key: constraintKey(cc.Kind, checkColumns(cc.Check), nil), subject: col.Name, pos: cc.Pos()})
			}
		}
	}
	for _, tc := range stmt.Constraints {
		cols := tc.Columns
		if tc.Kind == core.ConstraintCheck {
			cols = checkColumns(tc.Check)
		}
		subject := ""
		if len(cols) > 0 {
			subject = cols[0]
		}
		out = append(out, constraintEntry{key: constraintKey(tc.Kind, cols, tc.Ref), subject: subject, pos: tc.Pos()})
	}
	return out
}

func constraintKey(kind core.ConstraintKind, cols []string, ref *core.ForeignKeyRef) string {
	key := string(kind) + " (" + strings.ToLower(strings.Join(cols, ", ")) + ")"
	if ref != nil && ref.Table != nil {
		key += " REFERENCES " + ref.Table.Key() + " (" + strings.ToLower(strings.Join(ref.Columns, ", ")) + ")"
	}
	return key
}

// checkColumns returns the sorted column names a CHECK expression reads.
func checkColumns(e core.Expr) []string {
	seen := make(map[string]bool)
	core.Walk(e, func(n any) bool {
		if ref, ok := n.(*core.ColumnRef); ok {
			seen[lineage.ColumnKey(ref.Column, ref.Quoted)] = true
		}
		return true
	})
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ---------- Views and queries ----------

// output is one column a view or query exposes. name is empty when the
// column is an unaliased expression whose name the engine picks.
type output struct {
	name string
	pos  token.Position
}

func outputsOf(stmt core.Stmt) []output {
	var sel *core.SelectStmt
	switch s := stmt.(type) {
	case *core.CreateViewStmt:
		if len(s.Columns) > 0 {
			out := make([]output, len(s.Columns))
			for i, name := range s.Columns {
				out[i] = output{name: strings.ToLower(name), pos: s.Pos()}
			}
			return out
		}
		sel = s.Select
	case *core.SelectStmt:
		sel = s
	}
	if sel == nil || sel.Body == nil || sel.Body.Left == nil {
		return nil
	}

	// The leftmost branch of a set operation names the columns.
	sc := sel.Body.Left
	out := make([]output, len(sc.Columns))
	for i, item := range sc.Columns {
		o := output{pos: sc.Pos()}
		if item.Expr != nil {
			o.pos = item.Expr.Pos()
		}
		switch {
		case item.Star:
			o.name = "*"
		case item.TableStar != "":
			o.name = strings.ToLower(item.TableStar) + ".*"
		case item.Alias != "":
			o.name = lineage.ColumnKey(item.Alias, false)
		default:
			if ref, ok := item.Expr.(*core.ColumnRef); ok {
				o.name = lineage.ColumnKey(ref.Column, ref.Quoted)
			}
		}
		out[i] = o
	}
	return out
}

func (c *check) outputs(src, dst core.Stmt) {
	want, got := outputsOf(src), outputsOf(dst)
	if len(want) != len(got) {
		c.mismatch(core.CodeColumnCountMismatch, src.Pos(), "",
			fmt.Sprintf("select list has %d columns, translation has %d", len(want), len(got)))
	}
	for i := range min(len(want), len(got)) {
		w, g := want[i], got[i]
		if w.name == "" || g.name == "" || w.name == g.name {
			continue
		}
		c.mismatch(core.CodeColumnMismatch, w.pos, w.name,
			fmt.Sprintf("output column %d is %s, translation has %s", i+1, w.name, g.name))
	}
}

func (c *check) referencedTables(src, dst core.Stmt) {
	want, got := lineage.References(src), lineage.References(dst)
	for _, key := range difference(want, got) {
		c.mismatch(core.CodeReferenceMismatch, src.Pos(), key, "translation no longer reads "+key)
	}
	for _, key := range difference(got, want) {
		c.mismatch(core.CodeReferenceMismatch, src.Pos(), key, "translation reads "+key+" which the original does not")
	}
}

// difference returns the entries of a missing from b. Both are sorted.
func difference(a, b []string) []string {
	var out []string
	for _, s := range a {
		i := sort.SearchStrings(b, s)
		if i == len(b) || b[i] != s {
			out = append(out, s)
		}
	}
	return out
}
