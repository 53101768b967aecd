package parser

import (
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/dialect"
	"github.com/leapstack-labs/leapmigrate/pkg/token"
)

// Expression precedence parsing using Pratt parser with dialect-aware precedence.
//
// Precedence levels (from the dialect package):
//
//	PrecedenceNone       = 0
//	PrecedenceOr         = 1
//	PrecedenceAnd        = 2
//	PrecedenceNot        = 3
//	PrecedenceComparison = 4  (=, <>, <, >, <=, >=, IS, IN, BETWEEN, LIKE, ILIKE)
//	PrecedenceAddition   = 5  (+, -, ||)
//	PrecedenceMultiply   = 6  (*, /, %)
//	PrecedenceUnary      = 7  (-, +)
//	PrecedencePostfix    = 8  (::, [])
//
// The parser uses dialect.Precedence() to look up operator precedence, so an
// operator the dialect does not register (ILIKE in MySQL, :: in ANSI) ends the
// expression and is then reported as unsupported by the caller.

// parseExpression parses an expression using precedence climbing.
func (p *Parser) parseExpression() core.Expr {
	return p.parseExpressionWithPrecedence(dialect.PrecedenceNone + 1)
}

// parseExpressionWithPrecedence implements Pratt parsing with dialect-aware precedence.
func (p *Parser) parseExpressionWithPrecedence(minPrecedence int) core.Expr {
	left := p.parsePrefixExpr()
	if left == nil {
		return nil
	}

	for !p.failed() {
		prec := p.dialect.Precedence(p.token.Type)
		if prec == dialect.PrecedenceNone || prec < minPrecedence {
			break
		}
		left = p.parseInfixExpr(left, prec)
		if left == nil {
			break
		}
	}

	return left
}

// parsePrefixExpr parses prefix expressions (unary operators and primary expressions).
func (p *Parser) parsePrefixExpr() core.Expr {
	pos := p.token.Pos
	switch p.token.Type {
	case token.NOT:
		if p.checkPeek(token.EXISTS) {
			p.nextToken() // consume NOT
			return p.parseExistsExpr(pos, true)
		}
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(dialect.PrecedenceNot)
		return &core.UnaryExpr{NodeInfo: core.At(pos), Op: token.NOT, Expr: expr}

	case token.MINUS, token.PLUS:
		op := p.token.Type
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(dialect.PrecedenceUnary)
		return &core.UnaryExpr{NodeInfo: core.At(pos), Op: op, Expr: expr}

	default:
		return p.parsePrimary()
	}
}

// parseInfixExpr parses an infix expression given the left operand and current precedence.
func (p *Parser) parseInfixExpr(left core.Expr, prec int) core.Expr {
	pos := p.token.Pos
	switch p.token.Type {
	case token.NOT:
		// NOT IN, NOT BETWEEN, NOT LIKE, NOT ILIKE
		return p.parseNotInfixExpr(left)

	case token.IS:
		return p.parseIsExpr(left)

	case token.IN:
		p.nextToken()
		return p.parseInExpr(left, false)

	case token.BETWEEN:
		p.nextToken()
		return p.parseBetweenExpr(left, false)

	case token.LIKE:
		p.nextToken()
		return p.parseLikeExpr(left, false, core.OpLike)

	case dialect.TokenIlike:
		p.nextToken()
		return p.parseLikeExpr(left, false, core.OpILike)

	case dialect.TokenDColon:
		p.nextToken()
		typ := p.parseTypeRef()
		p.checkCastType(typ)
		return &core.CastExpr{NodeInfo: core.At(pos), Expr: left, Type: typ, DoubleColon: true}

	case token.LBRACKET:
		p.nextToken()
		idx := &core.IndexExpr{NodeInfo: core.At(pos), Expr: left, Index: p.parseExpression()}
		p.expect(token.RBRACKET)
		return idx
	}

	// Standard binary operators
	op := p.token
	p.nextToken()

	// Parse right operand with higher precedence (left-associative)
	right := p.parseExpressionWithPrecedence(prec + 1)
	if right == nil {
		return nil
	}

	return &core.BinaryExpr{NodeInfo: core.At(op.Pos), Left: left, Op: op.Type, Right: right}
}

// parseNotInfixExpr handles NOT as an infix modifier (NOT IN, NOT BETWEEN, NOT LIKE).
func (p *Parser) parseNotInfixExpr(left core.Expr) core.Expr {
	p.nextToken() // consume NOT

	switch p.token.Type {
	case token.IN:
		p.nextToken()
		return p.parseInExpr(left, true)

	case token.BETWEEN:
		p.nextToken()
		return p.parseBetweenExpr(left, true)

	case token.LIKE:
		p.nextToken()
		return p.parseLikeExpr(left, true, core.OpLike)

	case dialect.TokenIlike:
		if !p.dialect.SupportsIlike() {
			p.unexpected("IN, BETWEEN or LIKE")
			return nil
		}
		p.nextToken()
		return p.parseLikeExpr(left, true, core.OpILike)

	default:
		p.unexpected("IN, BETWEEN, LIKE, or ILIKE after NOT")
		return nil
	}
}

// parseIsExpr parses IS [NOT] NULL / IS [NOT] TRUE / IS [NOT] FALSE.
func (p *Parser) parseIsExpr(left core.Expr) core.Expr {
	pos := p.token.Pos
	p.nextToken() // consume IS

	isNot := p.match(token.NOT)

	switch p.token.Type {
	case token.NULL:
		p.nextToken()
		return &core.IsNullExpr{NodeInfo: core.At(pos), Expr: left, Not: isNot}

	case token.TRUE:
		p.nextToken()
		return &core.IsBoolExpr{NodeInfo: core.At(pos), Expr: left, Not: isNot, Value: true}

	case token.FALSE:
		p.nextToken()
		return &core.IsBoolExpr{NodeInfo: core.At(pos), Expr: left, Not: isNot, Value: false}

	default:
		p.unexpected("NULL, TRUE, or FALSE after IS")
		return nil
	}
}

// parseInExpr parses an IN expression.
func (p *Parser) parseInExpr(left core.Expr, not bool) core.Expr {
	in := &core.InExpr{NodeInfo: core.At(p.token.Pos), Expr: left, Not: not}
	if !p.expect(token.LPAREN) {
		return nil
	}

	if p.check(token.SELECT) || p.check(token.WITH) {
		in.Query = p.parseSelectStmt()
	} else {
		in.Values = p.parseExpressionList()
	}

	p.expect(token.RPAREN)
	return in
}

// parseBetweenExpr parses a BETWEEN expression.
func (p *Parser) parseBetweenExpr(left core.Expr, not bool) core.Expr {
	between := &core.BetweenExpr{NodeInfo: core.At(p.token.Pos), Expr: left, Not: not}
	// Parse bounds at addition precedence to avoid capturing AND
	between.Low = p.parseExpressionWithPrecedence(dialect.PrecedenceAddition)
	p.expect(token.AND)
	between.High = p.parseExpressionWithPrecedence(dialect.PrecedenceAddition)
	return between
}

// parseLikeExpr parses a LIKE/ILIKE expression.
func (p *Parser) parseLikeExpr(left core.Expr, not bool, op core.LikeOp) core.Expr {
	like := &core.LikeExpr{NodeInfo: core.At(p.token.Pos), Expr: left, Not: not, Op: op}
	like.Pattern = p.parseExpressionWithPrecedence(dialect.PrecedenceAddition)
	return like
}

// parseExpressionList parses a comma-separated list of expressions.
func (p *Parser) parseExpressionList() []core.Expr {
	var exprs []core.Expr
	for {
		expr := p.parseExpression()
		if expr == nil {
			break
		}
		exprs = append(exprs, expr)
		if !p.match(token.COMMA) {
			break
		}
	}
	return exprs
}
