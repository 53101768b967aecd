package parser

import (
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/token"
)

// FROM clause parsing: table references, derived tables, JOINs.
//
// Grammar:
//
//	from_clause   → table_ref (join)*
//	table_ref     → table_name | derived_table
//	table_name    → [catalog "."] [schema "."] identifier [[AS] identifier]
//	derived_table → "(" select_stmt ")" [AS] identifier
//	join          → join_type JOIN table_ref [ON expr | USING "(" ident_list ")"] | "," table_ref
//	join_type     → [INNER] | LEFT [OUTER] | RIGHT [OUTER] | FULL [OUTER] | CROSS

// parseFromClause parses the FROM clause.
func (p *Parser) parseFromClause() *core.FromClause {
	from := &core.FromClause{NodeInfo: core.At(p.token.Pos)}
	from.Source = p.parseTableRef()

	for !p.failed() {
		join := p.parseJoin()
		if join == nil {
			break
		}
		from.Joins = append(from.Joins, join)
	}

	return from
}

// parseTableRef parses a table reference.
func (p *Parser) parseTableRef() core.TableRef {
	if p.check(token.LPAREN) {
		return p.parseDerivedTable()
	}
	table := p.parseQualifiedName()
	table.Alias = p.parseAlias()
	return table
}

// parseQualifiedName parses a possibly qualified object name without alias.
func (p *Parser) parseQualifiedName() *core.TableName {
	table := &core.TableName{NodeInfo: core.At(p.token.Pos)}

	if !p.check(token.IDENT) {
		p.unexpected("table name")
		return table
	}

	parts := []token.Token{p.token}
	p.nextToken()

	for p.match(token.DOT) {
		if !p.check(token.IDENT) {
			p.unexpected("identifier")
			return table
		}
		parts = append(parts, p.token)
		p.nextToken()
	}

	switch len(parts) {
	case 1:
		table.Name = parts[0].Literal
	case 2:
		table.Schema = parts[0].Literal
		table.Name = parts[1].Literal
	case 3:
		table.Catalog = parts[0].Literal
		table.Schema = parts[1].Literal
		table.Name = parts[2].Literal
	default:
		p.addError("too many name parts")
	}
	table.Quoted = parts[len(parts)-1].Quoted

	return table
}

// parseAlias parses an optional [AS] alias.
func (p *Parser) parseAlias() string {
	if p.match(token.AS) {
		if !p.check(token.IDENT) {
			p.unexpected("alias")
			return ""
		}
	} else if !p.check(token.IDENT) {
		return ""
	}
	alias := p.token.Literal
	p.nextToken()
	return alias
}

// parseDerivedTable parses a derived table (subquery in FROM).
func (p *Parser) parseDerivedTable() *core.DerivedTable {
	derived := &core.DerivedTable{NodeInfo: core.At(p.token.Pos)}
	p.expect(token.LPAREN)
	derived.Select = p.parseSelectStmt()
	p.expect(token.RPAREN)
	derived.Alias = p.parseAlias()
	return derived
}

// parseJoin parses a JOIN clause. Returns nil when no join follows.
func (p *Parser) parseJoin() *core.Join {
	join := &core.Join{NodeInfo: core.At(p.token.Pos)}

	// Comma join (implicit cross join)
	if p.match(token.COMMA) {
		join.Type = core.JoinComma
		join.Right = p.parseTableRef()
		return join
	}

	switch p.token.Type {
	case token.JOIN:
		join.Type = core.JoinInner
	case token.INNER:
		join.Type = core.JoinInner
		p.nextToken()
	case token.LEFT, token.RIGHT, token.FULL:
		join.Type = core.JoinType(p.token.Type.String())
		p.nextToken()
		p.match(token.OUTER)
	case token.CROSS:
		join.Type = core.JoinCross
		p.nextToken()
	default:
		return nil
	}

	if !p.expect(token.JOIN) {
		return nil
	}

	join.Right = p.parseTableRef()

	switch {
	case p.match(token.ON):
		join.Condition = p.requireExpr()
	case p.check(token.USING):
		p.nextToken()
		join.Using = p.parseIdentList()
	}
	return join
}
