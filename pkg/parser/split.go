package parser

import (
	"strings"

	"github.com/leapstack-labs/leapmigrate/pkg/token"
)

// Segment is one statement cut from a script.
type Segment struct {
	// Text is the statement without its terminating semicolon.
	Text string
	// Pos is the position of Text's first byte within the script.
	Pos token.Position
}

// SplitStatements cuts a script into statements on top-level semicolons.
// Semicolons inside string literals, quoted identifiers and comments do not
// split. Segments holding only whitespace and comments are dropped.
func SplitStatements(script string) []Segment {
	var (
		out   []Segment
		start = 0
		line  = 1
		col   = 1
		// position of script[start]
		startPos = token.Position{Line: 1, Column: 1}
	)

	emit := func(end int) {
		if text := script[start:end]; !isBlankSQL(text) {
			lead := len(text) - len(strings.TrimLeft(text, " \t\r\n\f"))
			pos := advance(startPos, text[:lead])
			out = append(out, Segment{
				Text: strings.TrimRight(text[lead:], " \t\r\n\f"),
				Pos:  pos,
			})
		}
	}

	for i := 0; i < len(script); i++ {
		ch := script[i]
		switch {
		case ch == '\'' || ch == '"' || ch == '`':
			j := skipQuoted(script, i, ch)
			line, col = advancePos(line, col, script[i:j])
			i = j - 1
			continue
		case ch == '-' && i+1 < len(script) && script[i+1] == '-':
			j := strings.IndexByte(script[i:], '\n')
			if j < 0 {
				j = len(script) - i
			}
			line, col = advancePos(line, col, script[i:i+j])
			i += j - 1
			continue
		case ch == '/' && i+1 < len(script) && script[i+1] == '*':
			j := strings.Index(script[i+2:], "*/")
			end := len(script)
			if j >= 0 {
				end = i + 2 + j + 2
			}
			line, col = advancePos(line, col, script[i:end])
			i = end - 1
			continue
		case ch == ';':
			emit(i)
			start = i + 1
			startPos = token.Position{Line: line, Column: col + 1, Offset: i + 1}
		}
		if ch == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	emit(len(script))

	return out
}

// skipQuoted returns the index just past the literal opened at script[i].
// A doubled delimiter is an escaped delimiter.
func skipQuoted(script string, i int, q byte) int {
	for j := i + 1; j < len(script); j++ {
		if script[j] == q {
			if j+1 < len(script) && script[j+1] == q {
				j++
				continue
			}
			return j + 1
		}
	}
	return len(script)
}

// advancePos moves line/col over text.
func advancePos(line, col int, text string) (int, int) {
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

// advance moves a position over text.
func advance(pos token.Position, text string) token.Position {
	pos.Line, pos.Column = advancePos(pos.Line, pos.Column, text)
	pos.Offset += len(text)
	return pos
}

// isBlankSQL reports whether text holds only whitespace and comments.
func isBlankSQL(text string) bool {
	for i := 0; i < len(text); i++ {
		switch ch := text[i]; {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '\f':
		case ch == '-' && i+1 < len(text) && text[i+1] == '-':
			j := strings.IndexByte(text[i:], '\n')
			if j < 0 {
				return true
			}
			i += j
		case ch == '/' && i+1 < len(text) && text[i+1] == '*':
			j := strings.Index(text[i+2:], "*/")
			if j < 0 {
				return true
			}
			i += 2 + j + 1
		default:
			return false
		}
	}
	return true
}
