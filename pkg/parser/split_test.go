package parser_test

import (
	"testing"

	"github.com/leapstack-labs/leapmigrate/pkg/parser"
	"github.com/leapstack-labs/leapmigrate/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	script := `-- customers
CREATE TABLE customers (id INT, note TEXT DEFAULT 'a;b');

/* view; with semicolon in comment */
CREATE VIEW v AS SELECT "odd;name" FROM customers;
  ;
-- trailing comment only
`
	segs := parser.SplitStatements(script)
	require.Len(t, segs, 2)

	assert.Equal(t, "-- customers\nCREATE TABLE customers (id INT, note TEXT DEFAULT 'a;b')", segs[0].Text)
	assert.Equal(t, token.Position{Line: 1, Column: 1, Offset: 0}, segs[0].Pos)

	assert.Equal(t, `/* view; with semicolon in comment */
CREATE VIEW v AS SELECT "odd;name" FROM customers`, segs[1].Text)
	assert.Equal(t, 4, segs[1].Pos.Line)
	assert.Equal(t, 1, segs[1].Pos.Column)
}

func TestSplitStatements_NoTerminator(t *testing.T) {
	segs := parser.SplitStatements("SELECT 1")
	require.Len(t, segs, 1)
	assert.Equal(t, "SELECT 1", segs[0].Text)
}

func TestSplitStatements_SameLine(t *testing.T) {
	segs := parser.SplitStatements("SELECT 1; SELECT 2;")
	require.Len(t, segs, 2)
	assert.Equal(t, token.Position{Line: 1, Column: 11, Offset: 10}, segs[1].Pos)
}
