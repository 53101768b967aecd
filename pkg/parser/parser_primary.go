package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/dialect"
	"github.com/leapstack-labs/leapmigrate/pkg/token"
)

// Primary expression parsing: literals, column refs, function calls.
//
// Grammar:
//
//	primary       → literal | typed_literal | column_ref | func_call | paren_expr
//	                | subquery | case_expr | cast_expr | exists_expr
//	literal       → NUMBER | STRING | TRUE | FALSE | NULL
//	typed_literal → (DATE | TIME | TIMESTAMP | INTERVAL) STRING
//	column_ref    → [table "."] column | [schema "." table "."] column
//	func_call     → identifier "(" [DISTINCT] [expr_list | "*"] ")" [OVER window_spec]
//	window_spec   → "(" [PARTITION BY expr_list] [ORDER BY order_list] [frame] ")"
//	frame         → (ROWS | RANGE) (bound | BETWEEN bound AND bound)

// typedLiteralTypes are the type names that may prefix a string literal.
var typedLiteralTypes = map[string]bool{
	"DATE": true, "TIME": true, "TIMESTAMP": true, "TIMESTAMPTZ": true, "INTERVAL": true,
}

// parsePrimary parses primary expressions.
func (p *Parser) parsePrimary() core.Expr {
	pos := p.token.Pos
	switch p.token.Type {
	case token.NUMBER:
		lit := &core.Literal{NodeInfo: core.At(pos), Type: core.LiteralNumber, Value: p.token.Literal}
		p.nextToken()
		return lit

	case token.STRING:
		lit := &core.Literal{NodeInfo: core.At(pos), Type: core.LiteralString, Value: p.token.Literal}
		p.nextToken()
		return lit

	case token.TRUE, token.FALSE:
		lit := &core.Literal{NodeInfo: core.At(pos), Type: core.LiteralBool, Value: strings.ToLower(p.token.Literal)}
		p.nextToken()
		return lit

	case token.NULL:
		p.nextToken()
		return &core.Literal{NodeInfo: core.At(pos), Type: core.LiteralNull, Value: "NULL"}

	case token.CASE:
		return p.parseCaseExpr()

	case token.CAST:
		return p.parseCastExpr()

	case token.EXISTS:
		return p.parseExistsExpr(pos, false)

	case token.IDENT:
		return p.parseIdentifierExpr()

	case token.LEFT, token.RIGHT:
		// LEFT(s, n) and RIGHT(s, n) are functions despite being join keywords.
		if p.checkPeek(token.LPAREN) {
			name := p.token.Literal
			p.nextToken()
			return p.parseFuncCall(pos, name)
		}

	case token.LPAREN:
		return p.parseParenExpr()
	}

	p.unexpected("expression")
	return nil
}

// parseIdentifierExpr parses an identifier which could be a column ref,
// function call or typed literal.
func (p *Parser) parseIdentifierExpr() core.Expr {
	tok := p.token
	p.nextToken()

	if !tok.Quoted {
		// Check if it's a function call
		if p.check(token.LPAREN) {
			return p.parseFuncCall(tok.Pos, tok.Literal)
		}
		// DATE '2024-01-01' is shorthand for CAST('2024-01-01' AS DATE)
		if upper := strings.ToUpper(tok.Literal); typedLiteralTypes[upper] && p.check(token.STRING) {
			lit := &core.Literal{NodeInfo: core.At(p.token.Pos), Type: core.LiteralString, Value: p.token.Literal}
			p.nextToken()
			return &core.CastExpr{NodeInfo: core.At(tok.Pos), Expr: lit, Type: &core.TypeRef{NodeInfo: core.At(tok.Pos), Name: upper}}
		}
		// CURRENT_TIMESTAMP and friends are calls without parentheses.
		if upper := strings.ToUpper(tok.Literal); core.IsNiladic(upper) && !p.check(token.DOT) {
			return &core.FuncCall{NodeInfo: core.At(tok.Pos), Name: upper}
		}
	}

	// Qualified column reference: table.column or schema.table.column
	if p.check(token.DOT) {
		return p.parseQualifiedColumnRef(tok)
	}

	return &core.ColumnRef{NodeInfo: core.At(tok.Pos), Column: tok.Literal, Quoted: tok.Quoted}
}

// parseQualifiedColumnRef parses a qualified column reference.
func (p *Parser) parseQualifiedColumnRef(first token.Token) core.Expr {
	parts := []token.Token{first}

	for p.match(token.DOT) {
		// table.*
		if p.check(token.STAR) {
			p.nextToken()
			return &core.StarExpr{NodeInfo: core.At(first.Pos), Table: parts[len(parts)-1].Literal}
		}
		if !p.check(token.IDENT) {
			p.unexpected("column name")
			return nil
		}
		parts = append(parts, p.token)
		p.nextToken()
	}

	last := parts[len(parts)-1]
	ref := &core.ColumnRef{NodeInfo: core.At(first.Pos), Column: last.Literal, Quoted: last.Quoted}
	if len(parts) >= 2 {
		// schema.table.column keeps only the table qualifier
		ref.Table = parts[len(parts)-2].Literal
	}
	return ref
}

// parseFuncCall parses a function call.
func (p *Parser) parseFuncCall(pos token.Position, name string) core.Expr {
	fn := &core.FuncCall{NodeInfo: core.At(pos), Name: strings.ToUpper(name)}

	p.expect(token.LPAREN)

	// COUNT(*) or other aggregate(*)
	if p.check(token.STAR) {
		fn.Star = true
		p.nextToken()
	} else if !p.check(token.RPAREN) {
		if p.match(token.DISTINCT) {
			fn.Distinct = true
		}
		fn.Args = p.parseExpressionList()
	}

	if !p.expect(token.RPAREN) {
		return nil
	}

	// OVER clause (window function)
	if p.match(token.OVER) {
		fn.Window = p.parseWindowSpec()
	}

	return fn
}

// parseWindowSpec parses the parenthesized window after OVER.
func (p *Parser) parseWindowSpec() *core.WindowSpec {
	spec := &core.WindowSpec{}
	if !p.expect(token.LPAREN) {
		return spec
	}

	if p.match(token.PARTITION) {
		p.expect(token.BY)
		spec.PartitionBy = p.parseExpressionList()
	}

	if p.match(token.ORDER) {
		p.expect(token.BY)
		spec.OrderBy = p.parseOrderByList()
	}

	if p.check(token.ROWS) || p.check(token.RANGE) {
		spec.Frame = p.parseFrameSpec()
	}

	p.expect(token.RPAREN)
	return spec
}

// parseFrameSpec parses ROWS/RANGE frame bounds.
func (p *Parser) parseFrameSpec() *core.FrameSpec {
	frame := &core.FrameSpec{Type: core.FrameRows}
	if p.check(token.RANGE) {
		frame.Type = core.FrameRange
	}
	p.nextToken()

	if p.match(token.BETWEEN) {
		frame.Start = p.parseFrameBound()
		p.expect(token.AND)
		frame.End = p.parseFrameBound()
	} else {
		frame.Start = p.parseFrameBound()
	}
	return frame
}

// parseFrameBound parses one frame bound.
func (p *Parser) parseFrameBound() *core.FrameBound {
	switch {
	case p.match(token.UNBOUNDED):
		if p.match(token.PRECEDING) {
			return &core.FrameBound{Type: core.FrameUnboundedPreceding}
		}
		p.expect(token.FOLLOWING)
		return &core.FrameBound{Type: core.FrameUnboundedFollowing}

	case p.match(token.CURRENT):
		p.expect(token.ROW)
		return &core.FrameBound{Type: core.FrameCurrentRow}
	}

	bound := &core.FrameBound{Offset: p.parseExpressionWithPrecedence(dialect.PrecedenceAddition)}
	if p.match(token.PRECEDING) {
		bound.Type = core.FrameExprPreceding
	} else {
		p.expect(token.FOLLOWING)
		bound.Type = core.FrameExprFollowing
	}
	return bound
}

// parseCaseExpr parses CASE [operand] WHEN ... THEN ... [ELSE ...] END.
func (p *Parser) parseCaseExpr() core.Expr {
	c := &core.CaseExpr{NodeInfo: core.At(p.token.Pos)}
	p.expect(token.CASE)

	if !p.check(token.WHEN) {
		c.Operand = p.parseExpression()
	}

	for p.match(token.WHEN) {
		when := core.WhenClause{Condition: p.parseExpression()}
		p.expect(token.THEN)
		when.Result = p.parseExpression()
		c.Whens = append(c.Whens, when)
		if p.failed() {
			return nil
		}
	}
	if len(c.Whens) == 0 {
		p.unexpected("WHEN")
		return nil
	}

	if p.match(token.ELSE) {
		c.Else = p.parseExpression()
	}

	if !p.expect(token.END) {
		return nil
	}
	return c
}

// parseCastExpr parses CAST(expr AS type).
func (p *Parser) parseCastExpr() core.Expr {
	cast := &core.CastExpr{NodeInfo: core.At(p.token.Pos)}
	p.expect(token.CAST)
	p.expect(token.LPAREN)
	cast.Expr = p.parseExpression()
	p.expect(token.AS)
	cast.Type = p.parseTypeRef()
	p.checkCastType(cast.Type)
	if !p.expect(token.RPAREN) {
		return nil
	}
	return cast
}

// parseExistsExpr parses [NOT] EXISTS (subquery); NOT is already consumed.
func (p *Parser) parseExistsExpr(pos token.Position, not bool) core.Expr {
	p.expect(token.EXISTS)
	p.expect(token.LPAREN)
	exists := &core.ExistsExpr{NodeInfo: core.At(pos), Not: not, Select: p.parseSelectStmt()}
	if !p.expect(token.RPAREN) {
		return nil
	}
	return exists
}

// parseParenExpr parses a parenthesized expression or scalar subquery.
func (p *Parser) parseParenExpr() core.Expr {
	pos := p.token.Pos
	p.expect(token.LPAREN)

	if p.check(token.SELECT) || p.check(token.WITH) {
		sub := &core.SubqueryExpr{NodeInfo: core.At(pos), Select: p.parseSelectStmt()}
		if !p.expect(token.RPAREN) {
			return nil
		}
		return sub
	}

	inner := p.parseExpression()
	if inner == nil || !p.expect(token.RPAREN) {
		return nil
	}
	return &core.ParenExpr{NodeInfo: core.At(pos), Expr: inner}
}

// checkCastType rejects CAST targets the dialect does not accept.
func (p *Parser) checkCastType(t *core.TypeRef) {
	if p.failed() || t == nil || p.dialect.CastTypeAllowed(t.Name) {
		return
	}
	p.errors = append(p.errors, &ParseError{
		Pos:     t.Pos(),
		Message: fmt.Sprintf(ErrUnsupportedCastType, t.Name, p.dialect.Name),
	})
}
