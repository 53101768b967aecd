package parser

import (
	"fmt"

	"github.com/leapstack-labs/leapmigrate/pkg/token"
)

// ParseError represents a parsing error with position information.
type ParseError struct {
	Pos     token.Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// LexError represents a lexical analysis error.
type LexError struct {
	Pos     token.Position
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexer error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Common error messages
const (
	ErrUnexpectedToken     = "unexpected token %s, expected %s"
	ErrUnterminatedString  = "unterminated string literal"
	ErrUnterminatedIdent   = "unterminated quoted identifier"
	ErrUnterminatedComment = "unterminated block comment"
	ErrEmptyStatement      = "empty statement"
	ErrTrailingInput       = "unexpected %s after end of statement"

	// Dialect-specific error messages
	ErrUnsupportedClause    = "%s is not supported in %s dialect"
	ErrUnsupportedOperator  = "operator %s is not supported in %s dialect"
	ErrUnsupportedSyntax    = "%s syntax is not supported in %s dialect"
	ErrUnsupportedCastType  = "CAST to %s is not supported in %s dialect"
	ErrUnsupportedStatement = "unsupported statement starting with %s; expected SELECT, WITH or CREATE TABLE/VIEW"
)
