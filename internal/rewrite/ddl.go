package rewrite

import (
	"strings"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/mapping"
)

func (r *run) createTable(s *core.CreateTableStmt) *core.CreateTableStmt {
	out := &core.CreateTableStmt{
		NodeInfo:    s.NodeInfo,
		OrReplace:   s.OrReplace,
		Temporary:   s.Temporary,
		IfNotExists: s.IfNotExists,
		Name:        cloneTableName(s.Name),
	}
	keys := keyColumns(s)
	for _, col := range s.Columns {
		out.Columns = append(out.Columns, r.columnDef(col, keys[strings.ToLower(col.Name)]))
	}
	for _, tc := range s.Constraints {
		out.Constraints = append(out.Constraints, r.tableConstraint(tc))
	}
	return out
}

// keyColumns returns the lowercased names of columns that back a primary
// key, unique or foreign key constraint.
func keyColumns(s *core.CreateTableStmt) map[string]bool {
	keys := make(map[string]bool)
	for _, col := range s.Columns {
		if col.Has(core.ConstraintPrimaryKey) || col.Has(core.ConstraintUnique) || col.Has(core.ConstraintForeignKey) {
			keys[strings.ToLower(col.Name)] = true
		}
	}
	for _, tc := range s.Constraints {
		switch tc.Kind {
		case core.ConstraintPrimaryKey, core.ConstraintUnique, core.ConstraintForeignKey:
			for _, name := range tc.Columns {
				keys[strings.ToLower(name)] = true
			}
		}
	}
	return keys
}

func (r *run) columnDef(c *core.ColumnDef, key bool) *core.ColumnDef {
	use := mapping.UseColumn
	if key {
		use = mapping.UseKey
	}
	typ, res := r.mapType(c.Type, c.Name, use)
	out := &core.ColumnDef{NodeInfo: c.NodeInfo, Name: c.Name, Quoted: c.Quoted, Type: typ}

	autoInc := c.Constraint(core.ConstraintAutoIncrement)
	for _, cc := range c.Constraints {
		if cc.Kind == core.ConstraintAutoIncrement {
			continue
		}
		out.Constraints = append(out.Constraints, r.columnConstraint(cc))
	}

	fromType := autoInc == nil && res.AutoIncrement
	if fromType {
		// The source spelled auto-increment as a type (SERIAL).
		autoInc = &core.ColumnConstraint{NodeInfo: core.At(c.Type.Pos()), Kind: core.ConstraintAutoIncrement}
	}
	if autoInc != nil {
		if ai := r.autoIncrement(c, autoInc); ai != nil {
			out.Constraints = insertAutoIncrement(out.Constraints, ai)
			if fromType {
				r.note(core.SeverityWarning, core.CodeLossyAutoIncrement, c.Type.Pos(), c.Name,
					"%s on %s mapped to %s %s; the implicit sequence and its default are not carried over",
					c.Type.String(), c.Name, typeString(typ), r.autoIncrementSpelling())
			}
		}
	}
	return out
}

// autoIncrementSpelling names the target's auto-increment option in notes.
func (r *run) autoIncrementSpelling() string {
	ai := r.rw.to.AutoIncrement
	if ai.Style == core.AutoIncrementIdentity {
		return "GENERATED BY DEFAULT AS IDENTITY"
	}
	return keywordOf(ai)
}

// insertAutoIncrement places the auto-increment option before key and
// reference constraints, where every dialect's grammar accepts it.
func insertAutoIncrement(cs []*core.ColumnConstraint, ai *core.ColumnConstraint) []*core.ColumnConstraint {
	at := len(cs)
	for i, cc := range cs {
		if cc.Kind == core.ConstraintPrimaryKey || cc.Kind == core.ConstraintUnique ||
			cc.Kind == core.ConstraintForeignKey || cc.Kind == core.ConstraintCheck {
			at = i
			break
		}
	}
	out := make([]*core.ColumnConstraint, 0, len(cs)+1)
	out = append(out, cs[:at]...)
	out = append(out, ai)
	return append(out, cs[at:]...)
}

// autoIncrement translates an auto-increment option into the target's style.
// It returns nil when the target has none; the column is then a plain
// integer column and an error note records the gap.
func (r *run) autoIncrement(col *core.ColumnDef, c *core.ColumnConstraint) *core.ColumnConstraint {
	target := r.rw.to
	switch target.AutoIncrement.Style {
	case core.AutoIncrementNone:
		r.note(core.SeverityError, core.CodeMappingGap, c.Pos(), col.Name,
			"%s has no auto-increment columns; %s emitted as a plain integer column", target.Name, col.Name)
		return nil
	case core.AutoIncrementKeyword:
		if c.Always {
			r.note(core.SeverityWarning, core.CodeLossyAutoIncrement, c.Pos(), col.Name,
				"GENERATED ALWAYS on %s became %s, which accepts explicit values", col.Name, keywordOf(target.AutoIncrement))
		}
	}
	return &core.ColumnConstraint{NodeInfo: c.NodeInfo, Name: c.Name, Kind: core.ConstraintAutoIncrement, Always: c.Always}
}

func keywordOf(ai core.AutoIncrementConfig) string {
	if len(ai.Keywords) > 0 {
		return ai.Keywords[0]
	}
	return "auto-increment"
}

func (r *run) columnConstraint(c *core.ColumnConstraint) *core.ColumnConstraint {
	return &core.ColumnConstraint{
		NodeInfo: c.NodeInfo,
		Name:     c.Name,
		Kind:     c.Kind,
		Default:  r.expr(c.Default),
		Check:    r.expr(c.Check),
		Ref:      cloneRef(c.Ref),
		Always:   c.Always,
	}
}

func (r *run) tableConstraint(c *core.TableConstraint) *core.TableConstraint {
	return &core.TableConstraint{
		NodeInfo: c.NodeInfo,
		Name:     c.Name,
		Kind:     c.Kind,
		Columns:  cloneStrings(c.Columns),
		Check:    r.expr(c.Check),
		Ref:      cloneRef(c.Ref),
	}
}

func (r *run) createView(s *core.CreateViewStmt) *core.CreateViewStmt {
	out := &core.CreateViewStmt{
		NodeInfo:     s.NodeInfo,
		OrReplace:    s.OrReplace,
		Materialized: s.Materialized,
		IfNotExists:  s.IfNotExists,
		Name:         cloneTableName(s.Name),
		Columns:      cloneStrings(s.Columns),
		Select:       r.selectStmt(s.Select),
	}
	return out
}

func cloneRef(ref *core.ForeignKeyRef) *core.ForeignKeyRef {
	if ref == nil {
		return nil
	}
	return &core.ForeignKeyRef{
		Table:    cloneTableName(ref.Table),
		Columns:  cloneStrings(ref.Columns),
		OnDelete: ref.OnDelete,
		OnUpdate: ref.OnUpdate,
	}
}

func cloneTableName(t *core.TableName) *core.TableName {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
