package parser

import (
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/dialect"
	"github.com/leapstack-labs/leapmigrate/pkg/token"
)

// Statement parsing: WITH clause, CTEs, SELECT body, SELECT list, ORDER BY.
//
// Grammar:
//
//	select_stmt   → [WITH [RECURSIVE] cte_list] select_body
//	cte_list      → cte ("," cte)*
//	cte           → identifier ["(" ident_list ")"] AS "(" select_stmt ")"
//	select_body   → select_core [(UNION|INTERSECT|EXCEPT) [ALL|DISTINCT] select_body]
//	select_list   → select_item ("," select_item)*
//	select_item   → "*" | table "." "*" | expr [[AS] identifier]
//	order_list    → order_item ("," order_item)*
//	order_item    → expr [ASC|DESC] [NULLS FIRST|LAST]

// parseStatement dispatches on the leading keyword.
func (p *Parser) parseStatement() core.Stmt {
	switch p.token.Type {
	case token.SELECT, token.WITH:
		return p.parseSelectStmt()
	case token.CREATE:
		return p.parseCreate()
	default:
		p.unexpectedf(ErrUnsupportedStatement)
		return nil
	}
}

// parseSelectStmt parses a complete query.
func (p *Parser) parseSelectStmt() *core.SelectStmt {
	stmt := &core.SelectStmt{NodeInfo: core.At(p.token.Pos)}

	if p.check(token.WITH) {
		stmt.With = p.parseWithClause()
	}

	stmt.Body = p.parseSelectBody()
	return stmt
}

// parseWithClause parses a WITH clause with CTEs.
func (p *Parser) parseWithClause() *core.WithClause {
	with := &core.WithClause{NodeInfo: core.At(p.token.Pos)}
	p.expect(token.WITH)

	if p.match(token.RECURSIVE) {
		with.Recursive = true
	}

	for !p.failed() {
		with.CTEs = append(with.CTEs, p.parseCTE())
		if !p.match(token.COMMA) {
			break
		}
	}

	return with
}

// parseCTE parses a single CTE.
func (p *Parser) parseCTE() *core.CTE {
	cte := &core.CTE{NodeInfo: core.At(p.token.Pos)}

	if !p.check(token.IDENT) {
		p.unexpected("CTE name")
		return cte
	}
	cte.Name = p.token.Literal
	p.nextToken()

	if p.check(token.LPAREN) {
		cte.Columns = p.parseIdentList()
	}

	p.expect(token.AS)
	p.expect(token.LPAREN)
	cte.Select = p.parseSelectStmt()
	p.expect(token.RPAREN)

	return cte
}

// parseSelectBody parses a SELECT body with possible set operations.
func (p *Parser) parseSelectBody() *core.SelectBody {
	body := &core.SelectBody{NodeInfo: core.At(p.token.Pos)}
	body.Left = p.parseSelectCore()

	switch p.token.Type {
	case token.UNION:
		body.Op = core.SetOpUnion
	case token.INTERSECT:
		body.Op = core.SetOpIntersect
	case token.EXCEPT:
		body.Op = core.SetOpExcept
	default:
		return body
	}
	p.nextToken()
	if p.match(token.ALL) {
		body.All = true
	} else {
		p.match(token.DISTINCT) // optional
	}

	// Parse the right side (recursively for chained operations)
	body.Right = p.parseSelectBody()
	return body
}

// parseSelectCore parses a single SELECT clause and its trailing clauses.
func (p *Parser) parseSelectCore() *core.SelectCore {
	sc := &core.SelectCore{NodeInfo: core.At(p.token.Pos)}
	if !p.expect(token.SELECT) {
		return sc
	}

	if p.match(token.DISTINCT) {
		sc.Distinct = true
	} else {
		p.match(token.ALL)
	}

	sc.Columns = p.parseSelectList()

	if p.match(token.FROM) {
		sc.From = p.parseFromClause()
	}

	if p.match(token.WHERE) {
		sc.Where = p.requireExpr()
	}

	if p.match(token.GROUP) {
		p.expect(token.BY)
		sc.GroupBy = p.parseExpressionList()
	}

	if p.match(token.HAVING) {
		sc.Having = p.requireExpr()
	}

	if p.check(dialect.TokenQualify) {
		if !p.dialect.SupportsQualify() {
			p.unexpected("QUALIFY")
			return sc
		}
		p.nextToken()
		sc.Qualify = p.requireExpr()
	}

	if p.match(token.ORDER) {
		p.expect(token.BY)
		sc.OrderBy = p.parseOrderByList()
	}

	if p.match(token.LIMIT) {
		sc.Limit = p.requireExpr()
	}

	if p.match(token.OFFSET) {
		sc.Offset = p.requireExpr()
	}

	return sc
}

// requireExpr parses an expression and reports a missing one.
func (p *Parser) requireExpr() core.Expr {
	expr := p.parseExpression()
	if expr == nil && !p.failed() {
		p.unexpected("expression")
	}
	return expr
}

// parseSelectList parses the SELECT list.
func (p *Parser) parseSelectList() []core.SelectItem {
	var items []core.SelectItem

	for !p.failed() {
		items = append(items, p.parseSelectItem())
		if !p.match(token.COMMA) {
			break
		}
	}

	return items
}

// parseSelectItem parses a single SELECT item.
func (p *Parser) parseSelectItem() core.SelectItem {
	item := core.SelectItem{}

	// SELECT *
	if p.check(token.STAR) {
		item.Star = true
		p.nextToken()
		return item
	}

	// SELECT t.*
	if p.check(token.IDENT) && p.checkPeek(token.DOT) && p.peek2.Type == token.STAR {
		item.TableStar = p.token.Literal
		p.nextToken() // table
		p.nextToken() // .
		p.nextToken() // *
		return item
	}

	item.Expr = p.requireExpr()

	if p.match(token.AS) {
		if p.check(token.IDENT) || token.IsKeyword(p.token.Type) {
			item.Alias = p.token.Literal
			p.nextToken()
		} else {
			p.unexpected("alias")
		}
	} else if p.check(token.IDENT) {
		item.Alias = p.token.Literal
		p.nextToken()
	}

	return item
}

// parseOrderByList parses an ORDER BY list.
func (p *Parser) parseOrderByList() []core.OrderByItem {
	var items []core.OrderByItem

	for !p.failed() {
		item := core.OrderByItem{Expr: p.requireExpr()}

		if p.match(token.DESC) {
			item.Desc = true
		} else {
			p.match(token.ASC)
		}

		if p.match(token.NULLS) {
			nullsFirst := true
			switch {
			case p.matchWord("FIRST"):
			case p.matchWord("LAST"):
				nullsFirst = false
			default:
				p.unexpected("FIRST or LAST")
			}
			item.NullsFirst = &nullsFirst
		}

		items = append(items, item)

		if !p.match(token.COMMA) {
			break
		}
	}

	return items
}

// parseIdentList parses "(" identifier ("," identifier)* ")".
func (p *Parser) parseIdentList() []string {
	p.expect(token.LPAREN)
	var names []string
	for !p.failed() {
		if !p.check(token.IDENT) {
			p.unexpected("identifier")
			break
		}
		names = append(names, p.token.Literal)
		p.nextToken()
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	return names
}
