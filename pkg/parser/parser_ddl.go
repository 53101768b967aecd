package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/dialect"
	"github.com/leapstack-labs/leapmigrate/pkg/token"
)

// DDL parsing: CREATE TABLE and CREATE VIEW.
//
// Grammar:
//
//	create        → CREATE [OR REPLACE] [TEMP|TEMPORARY] [MATERIALIZED] (TABLE | VIEW) ...
//	element_list  → element ("," element)*
//	element       → column_def | table_constraint
//	column_def    → identifier type_ref column_constraint*
//	type_ref      → identifier [identifier] ["(" param ("," param)* ")"] [WITH[OUT] TIME ZONE] ["[" "]"]
//	column_constraint → [CONSTRAINT identifier]
//	                    ( NOT NULL | NULL | PRIMARY KEY | UNIQUE | DEFAULT expr
//	                    | CHECK "(" expr ")" | REFERENCES table_name ["(" ident_list ")"] fk_action*
//	                    | auto_increment )
//	table_constraint  → [CONSTRAINT identifier]
//	                    ( PRIMARY KEY "(" ident_list ")" | UNIQUE "(" ident_list ")"
//	                    | FOREIGN KEY "(" ident_list ")" REFERENCES ... | CHECK "(" expr ")" )
//
// auto_increment is dialect-specific: a keyword (AUTO_INCREMENT, AUTOINCREMENT,
// IDENTITY) or GENERATED {ALWAYS | BY DEFAULT} AS IDENTITY.

// autoIncrementWords are every spelling any dialect uses, so a foreign
// spelling can be reported by name.
var autoIncrementWords = []string{"AUTO_INCREMENT", "AUTOINCREMENT", "IDENTITY", "GENERATED"}

// multiWordTypes maps a type's first word to the words that may follow it.
var multiWordTypes = map[string][]string{
	"DOUBLE":    {"PRECISION"},
	"CHARACTER": {"VARYING"},
	"CHAR":      {"VARYING"},
	"NATIONAL":  {"CHARACTER", "CHAR"},
	"BIT":       {"VARYING"},
	"SIGNED":    {"INTEGER", "INT"},
	"UNSIGNED":  {"INTEGER", "INT"},
}

// parseCreate parses CREATE TABLE or CREATE VIEW.
func (p *Parser) parseCreate() core.Stmt {
	pos := p.token.Pos
	p.expect(token.CREATE)

	orReplace := false
	if p.check(token.OR) && isWord(p.peek, "REPLACE") {
		p.nextToken()
		p.nextToken()
		orReplace = true
	}

	temporary := p.matchWord("TEMP") || p.matchWord("TEMPORARY")
	materialized := p.matchWord("MATERIALIZED")

	switch {
	case p.check(token.TABLE) && !materialized:
		p.nextToken()
		stmt := &core.CreateTableStmt{NodeInfo: core.At(pos), OrReplace: orReplace, Temporary: temporary}
		stmt.IfNotExists = p.parseIfNotExists()
		stmt.Name = p.parseQualifiedName()
		p.parseTableElements(stmt)
		return stmt

	case p.checkWord("VIEW") && !temporary:
		p.nextToken()
		stmt := &core.CreateViewStmt{NodeInfo: core.At(pos), OrReplace: orReplace, Materialized: materialized}
		stmt.IfNotExists = p.parseIfNotExists()
		stmt.Name = p.parseQualifiedName()
		if p.check(token.LPAREN) {
			stmt.Columns = p.parseIdentList()
		}
		p.expect(token.AS)
		stmt.Select = p.parseSelectStmt()
		return stmt

	default:
		p.unexpected("TABLE or VIEW")
		return nil
	}
}

// parseIfNotExists consumes IF NOT EXISTS.
func (p *Parser) parseIfNotExists() bool {
	if p.checkWord("IF") && p.checkPeek(token.NOT) && p.peek2.Type == token.EXISTS {
		p.nextToken()
		p.nextToken()
		p.nextToken()
		return true
	}
	return false
}

// parseTableElements parses the parenthesized column and constraint list.
func (p *Parser) parseTableElements(stmt *core.CreateTableStmt) {
	if !p.expect(token.LPAREN) {
		return
	}

	for !p.failed() {
		switch p.token.Type {
		case token.CONSTRAINT, token.PRIMARY, token.UNIQUE, token.FOREIGN, token.CHECK:
			stmt.Constraints = append(stmt.Constraints, p.parseTableConstraint())
		default:
			stmt.Columns = append(stmt.Columns, p.parseColumnDef())
		}
		if !p.match(token.COMMA) {
			break
		}
	}

	p.expect(token.RPAREN)
}

// parseColumnDef parses a column definition.
func (p *Parser) parseColumnDef() *core.ColumnDef {
	col := &core.ColumnDef{NodeInfo: core.At(p.token.Pos)}
	if !p.check(token.IDENT) {
		p.unexpected("column name")
		return col
	}
	col.Name = p.token.Literal
	col.Quoted = p.token.Quoted
	p.nextToken()

	col.Type = p.parseTypeRef()

	for !p.failed() {
		c := p.parseColumnConstraint()
		if c == nil {
			break
		}
		col.Constraints = append(col.Constraints, c)
	}
	return col
}

// parseColumnConstraint parses one column constraint, or returns nil when
// the next token does not start one.
func (p *Parser) parseColumnConstraint() *core.ColumnConstraint {
	c := &core.ColumnConstraint{NodeInfo: core.At(p.token.Pos)}

	if p.match(token.CONSTRAINT) {
		if !p.check(token.IDENT) {
			p.unexpected("constraint name")
			return nil
		}
		c.Name = p.token.Literal
		p.nextToken()
	}

	switch {
	case p.check(token.NOT) && p.checkPeek(token.NULL):
		p.nextToken()
		p.nextToken()
		c.Kind = core.ConstraintNotNull

	case p.match(token.NULL):
		c.Kind = core.ConstraintNull

	case p.match(token.PRIMARY):
		p.expectWord("KEY")
		c.Kind = core.ConstraintPrimaryKey

	case p.match(token.UNIQUE):
		c.Kind = core.ConstraintUnique

	case p.match(token.DEFAULT):
		c.Kind = core.ConstraintDefault
		c.Default = p.parseExpressionWithPrecedence(dialect.PrecedenceAddition)
		if c.Default == nil && !p.failed() {
			p.unexpected("default value")
		}

	case p.match(token.CHECK):
		c.Kind = core.ConstraintCheck
		p.expect(token.LPAREN)
		c.Check = p.requireExpr()
		p.expect(token.RPAREN)

	case p.check(token.REFERENCES):
		c.Kind = core.ConstraintForeignKey
		c.Ref = p.parseReferences()

	case p.isAutoIncrementWord():
		if !p.parseAutoIncrement(c) {
			return nil
		}

	default:
		if c.Name != "" {
			p.unexpected("constraint")
		}
		return nil
	}

	return c
}

// isAutoIncrementWord reports whether the current token spells auto-increment
// in any dialect.
func (p *Parser) isAutoIncrementWord() bool {
	for _, w := range autoIncrementWords {
		if p.checkWord(w) {
			return true
		}
	}
	return false
}

// parseAutoIncrement parses the dialect's auto-increment spelling. Spellings
// of other dialects are reported as unsupported syntax.
func (p *Parser) parseAutoIncrement(c *core.ColumnConstraint) bool {
	ai := p.dialect.AutoIncrement
	word := strings.ToUpper(p.token.Literal)
	c.Kind = core.ConstraintAutoIncrement

	switch ai.Style {
	case core.AutoIncrementKeyword:
		for _, kw := range ai.Keywords {
			if word == kw {
				p.nextToken()
				p.skipAutoIncrementOptions()
				return true
			}
		}

	case core.AutoIncrementIdentity:
		if word == "GENERATED" {
			p.nextToken()
			if p.matchWord("ALWAYS") {
				c.Always = true
			} else {
				p.expect(token.BY)
				p.expect(token.DEFAULT)
			}
			p.expect(token.AS)
			p.expectWord("IDENTITY")
			if p.check(token.LPAREN) {
				p.skipParens()
			}
			return !p.failed()
		}
	}

	p.addError(fmt.Sprintf(ErrUnsupportedSyntax, word, p.dialect.Name))
	return false
}

// skipAutoIncrementOptions skips seed/step options: (1, 1) or START 1 INCREMENT 1.
func (p *Parser) skipAutoIncrementOptions() {
	if p.check(token.LPAREN) {
		p.skipParens()
		return
	}
	if p.matchWord("START") {
		p.match(token.WITH)
		p.expect(token.NUMBER)
		if p.matchWord("INCREMENT") {
			p.match(token.BY)
			p.expect(token.NUMBER)
		}
	}
}

// skipParens consumes a balanced parenthesized token run.
func (p *Parser) skipParens() {
	depth := 0
	for !p.check(token.EOF) {
		switch p.token.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
		}
		p.nextToken()
		if depth == 0 {
			return
		}
	}
	p.unexpected(")")
}

// parseTableConstraint parses a table-level constraint.
func (p *Parser) parseTableConstraint() *core.TableConstraint {
	tc := &core.TableConstraint{NodeInfo: core.At(p.token.Pos)}

	if p.match(token.CONSTRAINT) {
		if !p.check(token.IDENT) {
			p.unexpected("constraint name")
			return tc
		}
		tc.Name = p.token.Literal
		p.nextToken()
	}

	switch {
	case p.match(token.PRIMARY):
		p.expectWord("KEY")
		tc.Kind = core.ConstraintPrimaryKey
		tc.Columns = p.parseIdentList()

	case p.match(token.UNIQUE):
		tc.Kind = core.ConstraintUnique
		tc.Columns = p.parseIdentList()

	case p.match(token.FOREIGN):
		p.expectWord("KEY")
		tc.Kind = core.ConstraintForeignKey
		tc.Columns = p.parseIdentList()
		tc.Ref = p.parseReferences()

	case p.match(token.CHECK):
		tc.Kind = core.ConstraintCheck
		p.expect(token.LPAREN)
		tc.Check = p.requireExpr()
		p.expect(token.RPAREN)

	default:
		p.unexpected("PRIMARY KEY, UNIQUE, FOREIGN KEY or CHECK")
	}
	return tc
}

// parseReferences parses REFERENCES table [(cols)] [ON DELETE action] [ON UPDATE action].
func (p *Parser) parseReferences() *core.ForeignKeyRef {
	ref := &core.ForeignKeyRef{}
	if !p.expect(token.REFERENCES) {
		return ref
	}
	ref.Table = p.parseQualifiedName()
	if p.check(token.LPAREN) {
		ref.Columns = p.parseIdentList()
	}

	for p.check(token.ON) && !p.failed() {
		p.nextToken()
		switch {
		case p.matchWord("DELETE"):
			ref.OnDelete = p.parseReferentialAction()
		case p.matchWord("UPDATE"):
			ref.OnUpdate = p.parseReferentialAction()
		default:
			p.unexpected("DELETE or UPDATE")
		}
	}
	return ref
}

// parseReferentialAction parses CASCADE | RESTRICT | SET NULL | SET DEFAULT | NO ACTION.
func (p *Parser) parseReferentialAction() string {
	switch {
	case p.matchWord("CASCADE"):
		return "CASCADE"
	case p.matchWord("RESTRICT"):
		return "RESTRICT"
	case p.matchWord("SET"):
		if p.match(token.NULL) {
			return "SET NULL"
		}
		p.expect(token.DEFAULT)
		return "SET DEFAULT"
	case p.matchWord("NO"):
		p.expectWord("ACTION")
		return "NO ACTION"
	default:
		p.unexpected("referential action")
		return ""
	}
}

// parseTypeRef parses a data type reference.
func (p *Parser) parseTypeRef() *core.TypeRef {
	t := &core.TypeRef{NodeInfo: core.At(p.token.Pos)}
	if !p.check(token.IDENT) || p.token.Quoted {
		p.unexpected("data type")
		return t
	}

	words := []string{strings.ToUpper(p.token.Literal)}
	p.nextToken()
	for _, next := range multiWordTypes[words[0]] {
		if p.matchWord(next) {
			words = append(words, next)
			if next == "CHARACTER" || next == "CHAR" {
				if p.matchWord("VARYING") {
					words = append(words, "VARYING")
				}
			}
			break
		}
	}
	if p.checkWord("UNSIGNED") || p.checkWord("SIGNED") {
		words = append(words, strings.ToUpper(p.token.Literal))
		p.nextToken()
	}

	if p.check(token.LPAREN) {
		p.nextToken()
		for !p.failed() {
			switch {
			case p.check(token.NUMBER), p.check(token.IDENT) && !p.token.Quoted:
				t.Params = append(t.Params, strings.ToUpper(p.token.Literal))
				p.nextToken()
			default:
				p.unexpected("type parameter")
			}
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN)
	}

	if zone := p.parseTimeZoneSuffix(); zone != "" {
		words = append(words, zone)
	}

	if p.check(token.LBRACKET) && p.checkPeek(token.RBRACKET) {
		if !p.dialect.SupportsArrays() {
			p.addError(fmt.Sprintf(ErrUnsupportedSyntax, "array type", p.dialect.Name))
			return t
		}
		p.nextToken()
		p.nextToken()
		t.Array = true
	}

	t.Name = strings.Join(words, " ")
	return t
}

// parseTimeZoneSuffix consumes WITH TIME ZONE / WITHOUT TIME ZONE.
func (p *Parser) parseTimeZoneSuffix() string {
	switch {
	case p.check(token.WITH) && isWord(p.peek, "TIME") && isWord(p.peek2, "ZONE"):
		p.nextToken()
		p.nextToken()
		p.nextToken()
		return "WITH TIME ZONE"
	case p.checkWord("WITHOUT") && isWord(p.peek, "TIME") && isWord(p.peek2, "ZONE"):
		p.nextToken()
		p.nextToken()
		p.nextToken()
		return "WITHOUT TIME ZONE"
	}
	return ""
}
