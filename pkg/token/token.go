// Package token defines the token types for SQL parsing.
//
// Core tokens shared by every dialect are defined as constants (IDs 0-999) for
// switch performance. Dialect-specific tokens (ILIKE, QUALIFY, ::) are
// registered dynamically via Register().
package token

import "fmt"

// TokenType represents the type of a lexical token.
//
//nolint:revive // Accept stutter as token.TokenType is clear and widely used
type TokenType int32

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	IDENT  // identifier
	NUMBER // 123, 45.67, 1e10
	STRING // 'hello'

	// Operators
	PLUS      // +
	MINUS     // -
	STAR      // *
	SLASH     // /
	PERCENT   // %
	DPIPE     // ||
	EQ        // =
	NE        // != or <>
	LT        // <
	GT        // >
	LE        // <=
	GE        // >=
	DOT       // .
	COMMA     // ,
	SEMICOLON // ;
	LPAREN    // (
	RPAREN    // )
	LBRACKET  // [
	RBRACKET  // ]

	// Keywords (alphabetical)
	ALL
	AND
	AS
	ASC
	BETWEEN
	BY
	CASE
	CAST
	CHECK
	CONSTRAINT
	CREATE
	CROSS
	CURRENT
	DEFAULT
	DESC
	DISTINCT
	ELSE
	END
	EXCEPT
	EXISTS
	FALSE
	FOLLOWING
	FOREIGN
	FROM
	FULL
	GROUP
	HAVING
	IN
	INNER
	INTERSECT
	IS
	JOIN
	LEFT
	LIKE
	LIMIT
	NOT
	NULL
	NULLS
	OFFSET
	ON
	OR
	ORDER
	OUTER
	OVER
	PARTITION
	PRECEDING
	PRIMARY
	RANGE
	RECURSIVE
	REFERENCES
	RIGHT
	ROW
	ROWS
	SELECT
	TABLE
	THEN
	TRUE
	UNBOUNDED
	UNION
	UNIQUE
	USING
	WHEN
	WHERE
	WITH

	// Sentinel - dynamic tokens start after this
	maxBuiltin TokenType = 999
)

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := getDynamicName(t); ok {
		return name
	}
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// tokenNames maps builtin token types to their string representations.
var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",

	IDENT:  "IDENT",
	NUMBER: "NUMBER",
	STRING: "STRING",

	PLUS:      "+",
	MINUS:     "-",
	STAR:      "*",
	SLASH:     "/",
	PERCENT:   "%",
	DPIPE:     "||",
	EQ:        "=",
	NE:        "<>",
	LT:        "<",
	GT:        ">",
	LE:        "<=",
	GE:        ">=",
	DOT:       ".",
	COMMA:     ",",
	SEMICOLON: ";",
	LPAREN:    "(",
	RPAREN:    ")",
	LBRACKET:  "[",
	RBRACKET:  "]",

	ALL:        "ALL",
	AND:        "AND",
	AS:         "AS",
	ASC:        "ASC",
	BETWEEN:    "BETWEEN",
	BY:         "BY",
	CASE:       "CASE",
	CAST:       "CAST",
	CHECK:      "CHECK",
	CONSTRAINT: "CONSTRAINT",
	CREATE:     "CREATE",
	CROSS:      "CROSS",
	CURRENT:    "CURRENT",
	DEFAULT:    "DEFAULT",
	DESC:       "DESC",
	DISTINCT:   "DISTINCT",
	ELSE:       "ELSE",
	END:        "END",
	EXCEPT:     "EXCEPT",
	EXISTS:     "EXISTS",
	FALSE:      "FALSE",
	FOLLOWING:  "FOLLOWING",
	FOREIGN:    "FOREIGN",
	FROM:       "FROM",
	FULL:       "FULL",
	GROUP:      "GROUP",
	HAVING:     "HAVING",
	IN:         "IN",
	INNER:      "INNER",
	INTERSECT:  "INTERSECT",
	IS:         "IS",
	JOIN:       "JOIN",
	LEFT:       "LEFT",
	LIKE:       "LIKE",
	LIMIT:      "LIMIT",
	NOT:        "NOT",
	NULL:       "NULL",
	NULLS:      "NULLS",
	OFFSET:     "OFFSET",
	ON:         "ON",
	OR:         "OR",
	ORDER:      "ORDER",
	OUTER:      "OUTER",
	OVER:       "OVER",
	PARTITION:  "PARTITION",
	PRECEDING:  "PRECEDING",
	PRIMARY:    "PRIMARY",
	RANGE:      "RANGE",
	RECURSIVE:  "RECURSIVE",
	REFERENCES: "REFERENCES",
	RIGHT:      "RIGHT",
	ROW:        "ROW",
	ROWS:       "ROWS",
	SELECT:     "SELECT",
	TABLE:      "TABLE",
	THEN:       "THEN",
	TRUE:       "TRUE",
	UNBOUNDED:  "UNBOUNDED",
	UNION:      "UNION",
	UNIQUE:     "UNIQUE",
	USING:      "USING",
	WHEN:       "WHEN",
	WHERE:      "WHERE",
	WITH:       "WITH",
}

// keywords maps lowercase keyword strings to their token types.
var keywords = map[string]TokenType{
	"all":        ALL,
	"and":        AND,
	"as":         AS,
	"asc":        ASC,
	"between":    BETWEEN,
	"by":         BY,
	"case":       CASE,
	"cast":       CAST,
	"check":      CHECK,
	"constraint": CONSTRAINT,
	"create":     CREATE,
	"cross":      CROSS,
	"current":    CURRENT,
	"default":    DEFAULT,
	"desc":       DESC,
	"distinct":   DISTINCT,
	"else":       ELSE,
	"end":        END,
	"except":     EXCEPT,
	"exists":     EXISTS,
	"false":      FALSE,
	"following":  FOLLOWING,
	"foreign":    FOREIGN,
	"from":       FROM,
	"full":       FULL,
	"group":      GROUP,
	"having":     HAVING,
	"in":         IN,
	"inner":      INNER,
	"intersect":  INTERSECT,
	"is":         IS,
	"join":       JOIN,
	"left":       LEFT,
	"like":       LIKE,
	"limit":      LIMIT,
	"not":        NOT,
	"null":       NULL,
	"nulls":      NULLS,
	"offset":     OFFSET,
	"on":         ON,
	"or":         OR,
	"order":      ORDER,
	"outer":      OUTER,
	"over":       OVER,
	"partition":  PARTITION,
	"preceding":  PRECEDING,
	"primary":    PRIMARY,
	"range":      RANGE,
	"recursive":  RECURSIVE,
	"references": REFERENCES,
	"right":      RIGHT,
	"row":        ROW,
	"rows":       ROWS,
	"select":     SELECT,
	"table":      TABLE,
	"then":       THEN,
	"true":       TRUE,
	"unbounded":  UNBOUNDED,
	"union":      UNION,
	"unique":     UNIQUE,
	"using":      USING,
	"when":       WHEN,
	"where":      WHERE,
	"with":       WITH,
}

// LookupIdent returns the token type for the given lowercase identifier.
// If the identifier is a keyword, the keyword token type is returned.
// Otherwise, IDENT is returned.
// This only checks builtin keywords; dialect keywords are resolved by the lexer.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword returns true if the token type is a builtin keyword.
func IsKeyword(t TokenType) bool {
	return t >= ALL && t <= WITH
}

// IsOperator returns true if the token type is an operator or punctuation.
func IsOperator(t TokenType) bool {
	return t >= PLUS && t <= RBRACKET
}

// Token represents a lexical token with position information.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
	// Quoted is set for identifiers written with delimiters ("x", `x`).
	Quoted bool
}
