package format

import (
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/token"
)

func (p *Printer) formatCreateTable(stmt *core.CreateTableStmt) {
	p.kw(token.CREATE)
	if stmt.OrReplace {
		p.space()
		p.kw(token.OR)
		p.keyword(" REPLACE")
	}
	if stmt.Temporary {
		p.keyword(" TEMPORARY")
	}
	p.space()
	p.kw(token.TABLE)
	if stmt.IfNotExists {
		p.keyword(" IF NOT EXISTS")
	}
	p.space()
	p.formatTableName(stmt.Name)
	p.write(" (")
	p.writeln()

	p.indent()
	count := len(stmt.Columns) + len(stmt.Constraints)
	p.formatList(count, func(i int) {
		if i < len(stmt.Columns) {
			p.formatColumnDef(stmt.Columns[i])
			return
		}
		p.formatTableConstraint(stmt.Constraints[i-len(stmt.Columns)])
	}, ",", true)
	p.writeln()
	p.dedent()
	p.write(")")
}

func (p *Printer) formatColumnDef(col *core.ColumnDef) {
	p.ident(col.Name, col.Quoted)
	p.space()
	p.formatTypeRef(col.Type)
	for _, c := range col.Constraints {
		p.formatColumnConstraint(c)
	}
}

func (p *Printer) formatColumnConstraint(c *core.ColumnConstraint) {
	if c.Kind == core.ConstraintAutoIncrement && !p.hasAutoIncrement() {
		return
	}
	p.space()
	if c.Name != "" {
		p.kw(token.CONSTRAINT)
		p.space()
		p.ident(c.Name, false)
		p.space()
	}

	switch c.Kind {
	case core.ConstraintDefault:
		p.kw(token.DEFAULT)
		p.space()
		p.formatExpr(c.Default)
	case core.ConstraintCheck:
		p.kw(token.CHECK)
		p.write(" (")
		p.formatExpr(c.Check)
		p.write(")")
	case core.ConstraintForeignKey:
		p.formatReferences(c.Ref)
	case core.ConstraintAutoIncrement:
		p.formatAutoIncrement(c)
	default:
		p.keyword(string(c.Kind))
	}
}

func (p *Printer) hasAutoIncrement() bool {
	return p.dialect != nil && p.dialect.AutoIncrement.Style != core.AutoIncrementNone
}

// formatAutoIncrement spells auto-increment the way the target dialect does.
func (p *Printer) formatAutoIncrement(c *core.ColumnConstraint) {
	ai := p.dialect.AutoIncrement
	switch ai.Style {
	case core.AutoIncrementKeyword:
		if len(ai.Keywords) > 0 {
			p.keyword(ai.Keywords[0])
		}
	case core.AutoIncrementIdentity:
		if c.Always {
			p.keyword("GENERATED ALWAYS AS IDENTITY")
		} else {
			p.keyword("GENERATED BY DEFAULT AS IDENTITY")
		}
	}
}

func (p *Printer) formatTableConstraint(tc *core.TableConstraint) {
	if tc.Name != "" {
		p.kw(token.CONSTRAINT)
		p.space()
		p.ident(tc.Name, false)
		p.space()
	}

	switch tc.Kind {
	case core.ConstraintPrimaryKey, core.ConstraintUnique:
		p.keyword(string(tc.Kind))
		p.space()
		p.identList(tc.Columns)
	case core.ConstraintForeignKey:
		p.keyword(string(tc.Kind))
		p.space()
		p.identList(tc.Columns)
		p.space()
		p.formatReferences(tc.Ref)
	case core.ConstraintCheck:
		p.kw(token.CHECK)
		p.write(" (")
		p.formatExpr(tc.Check)
		p.write(")")
	}
}

func (p *Printer) formatReferences(ref *core.ForeignKeyRef) {
	if ref == nil {
		return
	}
	p.kw(token.REFERENCES)
	p.space()
	p.formatTableName(ref.Table)
	if len(ref.Columns) > 0 {
		p.space()
		p.identList(ref.Columns)
	}
	if ref.OnDelete != "" {
		p.keyword(" ON DELETE ")
		p.keyword(ref.OnDelete)
	}
	if ref.OnUpdate != "" {
		p.keyword(" ON UPDATE ")
		p.keyword(ref.OnUpdate)
	}
}

func (p *Printer) formatCreateView(stmt *core.CreateViewStmt) {
	p.kw(token.CREATE)
	if stmt.OrReplace {
		p.space()
		p.kw(token.OR)
		p.keyword(" REPLACE")
	}
	if stmt.Materialized {
		p.keyword(" MATERIALIZED")
	}
	p.keyword(" VIEW")
	if stmt.IfNotExists {
		p.keyword(" IF NOT EXISTS")
	}
	p.space()
	p.formatTableName(stmt.Name)
	if len(stmt.Columns) > 0 {
		p.space()
		p.identList(stmt.Columns)
	}
	p.space()
	p.kw(token.AS)
	p.writeln()
	p.formatSelectStmt(stmt.Select)
}
