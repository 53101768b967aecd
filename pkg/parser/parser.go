// Package parser provides SQL parsing with dialect-aware syntax validation.
//
// # Usage
//
//	d, err := dialect.Lookup("postgres")
//	stmt, err := parser.Parse("SELECT a, b FROM t", d)
//
// The parser requires a dialect. The dialect decides which identifier quote
// character is accepted and whether the ::, ILIKE, QUALIFY, array and
// auto-increment extensions are part of the grammar. Extensions of other
// dialects are rejected with a "not supported" error naming the construct.
//
// # Grammar Overview
//
//	statement     → select_stmt | create_table | create_view
//	select_stmt   → [WITH cte_list] select_body
//	select_body   → select_core [(UNION|INTERSECT|EXCEPT) [ALL] select_body]
//	select_core   → SELECT [DISTINCT] select_list [FROM from_clause]
//	                [WHERE expr] [GROUP BY expr_list] [HAVING expr]
//	                [QUALIFY expr] [ORDER BY order_list] [LIMIT expr] [OFFSET expr]
//	create_table  → CREATE [OR REPLACE] [TEMP] TABLE [IF NOT EXISTS] name "(" element_list ")"
//	create_view   → CREATE [OR REPLACE] [MATERIALIZED] VIEW [IF NOT EXISTS] name ["(" ident_list ")"] AS select_stmt
//
// See each file for detailed grammar rules for that section.
package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/dialect"
	"github.com/leapstack-labs/leapmigrate/pkg/token"
)

// Parser parses SQL into an AST.
type Parser struct {
	lexer   *Lexer
	token   token.Token // current token
	peek    token.Token // lookahead token
	peek2   token.Token // second lookahead token
	errors  []error
	dialect *dialect.Dialect // required
}

// NewParser creates a new parser for the given SQL input with dialect support.
func NewParser(sql string, d *dialect.Dialect) *Parser {
	p := &Parser{
		lexer:   NewLexer(sql, d),
		dialect: d,
	}
	// Read three tokens to initialize current, peek, and peek2
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a single statement in the given dialect. A trailing semicolon
// is allowed; anything after it is an error.
func Parse(sql string, d *dialect.Dialect) (core.Stmt, error) {
	if d == nil {
		return nil, dialect.ErrDialectRequired
	}
	p := NewParser(sql, d)
	if p.check(token.EOF) {
		p.addError(ErrEmptyStatement)
		return nil, p.errors[0]
	}

	stmt := p.parseStatement()
	p.match(token.SEMICOLON)
	if !p.check(token.EOF) {
		p.unexpectedf(ErrTrailingInput)
	}

	if err := p.firstError(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// ParseSelect parses a query statement. It fails if the input is DDL.
func ParseSelect(sql string, d *dialect.Dialect) (*core.SelectStmt, error) {
	stmt, err := Parse(sql, d)
	if err != nil {
		return nil, err
	}
	sel, ok := stmt.(*core.SelectStmt)
	if !ok {
		return nil, &ParseError{Pos: stmt.Pos(), Message: "expected a query, found DDL"}
	}
	return sel, nil
}

// firstError returns the earliest lexical error, falling back to the first
// parse error. Lexical errors usually cause the parse errors that follow them.
func (p *Parser) firstError() error {
	if len(p.lexer.Errors) > 0 {
		return p.lexer.Errors[0]
	}
	if len(p.errors) > 0 {
		return p.errors[0]
	}
	return nil
}

// Dialect returns the parser's dialect.
func (p *Parser) Dialect() *dialect.Dialect {
	return p.dialect
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t token.TokenType) bool {
	return p.peek.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.unexpected(t.String())
	return false
}

// isWord reports whether tok is the unquoted identifier word (case-insensitive).
// Used for soft keywords such as VIEW, KEY and REPLACE that stay valid as names.
func isWord(tok token.Token, word string) bool {
	return tok.Type == token.IDENT && !tok.Quoted && strings.EqualFold(tok.Literal, word)
}

// checkWord returns true if the current token is the soft keyword word.
func (p *Parser) checkWord(word string) bool {
	return isWord(p.token, word)
}

// matchWord consumes the soft keyword word if present.
func (p *Parser) matchWord(word string) bool {
	if p.checkWord(word) {
		p.nextToken()
		return true
	}
	return false
}

// expectWord consumes the soft keyword word, otherwise adds an error.
func (p *Parser) expectWord(word string) bool {
	if p.matchWord(word) {
		return true
	}
	p.unexpected(word)
	return false
}

// failed reports whether an error has been recorded. Loops use it to stop
// early instead of cascading errors.
func (p *Parser) failed() bool {
	return len(p.errors) > 0 || len(p.lexer.Errors) > 0
}

// addError adds a parse error at the current token.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &ParseError{
		Pos:     p.token.Pos,
		Message: msg,
	})
}

// unexpected reports the current token as unexpected. Extension tokens the
// dialect does not support get a dedicated message.
func (p *Parser) unexpected(expected string) {
	if msg, ok := p.unsupported(p.token.Type); ok {
		p.addError(msg)
		return
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), expected))
}

// unexpectedf reports the current token using a single-verb format.
func (p *Parser) unexpectedf(format string) {
	if msg, ok := p.unsupported(p.token.Type); ok {
		p.addError(msg)
		return
	}
	p.addError(fmt.Sprintf(format, describe(p.token)))
}

// unsupported returns the "not supported" message for an extension token
// that lexed but is not part of this dialect's grammar.
func (p *Parser) unsupported(t token.TokenType) (string, bool) {
	switch t {
	case dialect.TokenQualify:
		if !p.dialect.SupportsQualify() {
			return fmt.Sprintf(ErrUnsupportedClause, "QUALIFY", p.dialect.Name), true
		}
	case dialect.TokenIlike:
		if !p.dialect.SupportsIlike() {
			return fmt.Sprintf(ErrUnsupportedOperator, "ILIKE", p.dialect.Name), true
		}
	case dialect.TokenDColon:
		if !p.dialect.SupportsCastOperator() {
			return fmt.Sprintf(ErrUnsupportedOperator, "::", p.dialect.Name), true
		}
	}
	return "", false
}

// describe renders a token for error messages.
func describe(tok token.Token) string {
	switch tok.Type {
	case token.IDENT, token.NUMBER:
		return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
	case token.STRING:
		return "string literal"
	case token.ILLEGAL:
		return fmt.Sprintf("%q", tok.Literal)
	default:
		return tok.Type.String()
	}
}
