package format

import (
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/token"
)

func (p *Printer) formatSelectStmt(stmt *core.SelectStmt) {
	if stmt == nil {
		return
	}

	if stmt.With != nil {
		p.formatWithClause(stmt.With)
	}

	if stmt.Body != nil {
		p.formatSelectBody(stmt.Body)
	}
}

func (p *Printer) formatWithClause(with *core.WithClause) {
	p.kw(token.WITH)
	if with.Recursive {
		p.space()
		p.kw(token.RECURSIVE)
	}
	p.writeln()

	p.indent()
	p.formatList(len(with.CTEs), func(i int) {
		cte := with.CTEs[i]
		p.ident(cte.Name, false)
		if len(cte.Columns) > 0 {
			p.space()
			p.identList(cte.Columns)
		}
		p.space()
		p.kw(token.AS)
		p.write(" (")
		p.writeln()

		p.indent()
		p.formatSelectStmt(cte.Select)
		p.dedent()

		p.write(")")
	}, ",", true)
	p.writeln()
	p.dedent()
}

func (p *Printer) formatSelectBody(body *core.SelectBody) {
	if body == nil {
		return
	}

	p.formatSelectCore(body.Left)

	if body.Op != core.SetOpNone && body.Right != nil {
		p.keyword(string(body.Op))
		if body.All {
			p.space()
			p.kw(token.ALL)
		}
		p.writeln()
		p.formatSelectBody(body.Right)
	}
}

func (p *Printer) formatSelectCore(sc *core.SelectCore) {
	if sc == nil {
		return
	}

	// SELECT [DISTINCT]
	p.kw(token.SELECT)
	if sc.Distinct {
		p.space()
		p.kw(token.DISTINCT)
	}
	p.writeln()

	p.indent()
	p.formatList(len(sc.Columns), func(i int) { p.formatSelectItem(sc.Columns[i]) }, ",", true)
	p.writeln()
	p.dedent()

	if sc.From != nil {
		p.kw(token.FROM)
		p.space()
		p.formatFromClause(sc.From)
		p.writeln()
	}

	p.formatBlock([]token.TokenType{token.WHERE}, func() { p.formatExpr(sc.Where) }, sc.Where != nil)
	p.formatBlock([]token.TokenType{token.GROUP, token.BY}, func() {
		p.formatList(len(sc.GroupBy), func(i int) { p.formatExpr(sc.GroupBy[i]) }, ",", true)
	}, len(sc.GroupBy) > 0)
	p.formatBlock([]token.TokenType{token.HAVING}, func() { p.formatExpr(sc.Having) }, sc.Having != nil)
	if sc.Qualify != nil {
		p.keyword("QUALIFY")
		p.writeln()
		p.indent()
		p.formatExpr(sc.Qualify)
		p.dedent()
		p.writeln()
	}
	p.formatBlock([]token.TokenType{token.ORDER, token.BY}, func() {
		p.formatList(len(sc.OrderBy), func(i int) { p.formatOrderByItem(sc.OrderBy[i]) }, ",", true)
	}, len(sc.OrderBy) > 0)

	if sc.Limit != nil {
		p.kw(token.LIMIT)
		p.space()
		p.formatExpr(sc.Limit)
		p.writeln()
	}
	if sc.Offset != nil {
		p.kw(token.OFFSET)
		p.space()
		p.formatExpr(sc.Offset)
		p.writeln()
	}
}

// formatBlock prints a clause keyword on its own line followed by its
// indented body.
func (p *Printer) formatBlock(keywords []token.TokenType, body func(), present bool) {
	if !present {
		return
	}
	p.kw(keywords...)
	p.writeln()
	p.indent()
	body()
	p.dedent()
	p.writeln()
}

func (p *Printer) formatSelectItem(item core.SelectItem) {
	if item.Star {
		p.write("*")
		return
	}
	if item.TableStar != "" {
		p.ident(item.TableStar, false)
		p.write(".*")
		return
	}

	p.formatExpr(item.Expr)
	if item.Alias != "" {
		p.space()
		p.kw(token.AS)
		p.space()
		p.ident(item.Alias, false)
	}
}

func (p *Printer) formatFromClause(from *core.FromClause) {
	if from == nil {
		return
	}

	p.formatTableRef(from.Source)

	for _, join := range from.Joins {
		if join.Type == core.JoinComma {
			p.write(", ")
			p.formatTableRef(join.Right)
			continue
		}
		p.writeln()
		p.formatJoin(join)
	}
}

func (p *Printer) formatTableRef(ref core.TableRef) {
	switch t := ref.(type) {
	case *core.TableName:
		p.formatTableName(t)
		if t.Alias != "" {
			p.space()
			p.ident(t.Alias, false)
		}
	case *core.DerivedTable:
		p.formatDerivedTable(t)
	}
}

// formatTableName prints catalog.schema.name without the alias.
func (p *Printer) formatTableName(t *core.TableName) {
	if t == nil {
		return
	}
	if t.Catalog != "" {
		p.ident(t.Catalog, false)
		p.write(".")
	}
	if t.Schema != "" {
		p.ident(t.Schema, false)
		p.write(".")
	}
	p.ident(t.Name, t.Quoted)
}

func (p *Printer) formatDerivedTable(t *core.DerivedTable) {
	p.write("(")
	p.writeln()
	p.indent()
	p.formatSelectStmt(t.Select)
	p.dedent()
	p.write(")")
	if t.Alias != "" {
		p.space()
		p.ident(t.Alias, false)
	}
}

func (p *Printer) formatJoin(join *core.Join) {
	if join == nil {
		return
	}

	switch join.Type {
	case core.JoinInner:
		// Plain "JOIN" for inner (most common, cleaner output)
		p.kw(token.JOIN)
	default:
		// JoinType string IS the keyword
		p.keyword(string(join.Type))
		p.space()
		p.kw(token.JOIN)
	}
	p.space()

	p.formatTableRef(join.Right)

	if len(join.Using) > 0 {
		p.writeln()
		p.indent()
		p.kw(token.USING)
		p.space()
		p.identList(join.Using)
		p.dedent()
	} else if join.Condition != nil {
		p.writeln()
		p.indent()
		p.kw(token.ON)
		p.space()
		p.formatExpr(join.Condition)
		p.dedent()
	}
}

func (p *Printer) formatOrderByItem(item core.OrderByItem) {
	p.formatExpr(item.Expr)
	if item.Desc {
		p.space()
		p.kw(token.DESC)
	}
	if item.NullsFirst != nil {
		p.space()
		p.kw(token.NULLS)
		p.space()
		if *item.NullsFirst {
			p.keyword("FIRST")
		} else {
			p.keyword("LAST")
		}
	}
}
