package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupIdent(t *testing.T) {
	tests := []struct {
		in   string
		want TokenType
	}{
		{"select", SELECT},
		{"references", REFERENCES},
		{"primary", PRIMARY},
		{"customer_id", IDENT},
		// soft keywords stay identifiers so they can name columns
		{"key", IDENT},
		{"view", IDENT},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, LookupIdent(tt.in))
		})
	}
}

func TestTokenClassification(t *testing.T) {
	assert.True(t, IsKeyword(CREATE))
	assert.True(t, IsKeyword(WITH))
	assert.False(t, IsKeyword(IDENT))
	assert.True(t, IsOperator(SEMICOLON))
	assert.False(t, IsOperator(SELECT))
	assert.Equal(t, "<>", NE.String())
	assert.Equal(t, "TOKEN(998)", TokenType(998).String())
}

func TestPosition(t *testing.T) {
	p := Position{Line: 2, Column: 5, Offset: 12}
	assert.Equal(t, "2:5", p.String())
	assert.Equal(t, "-", Position{}.String())

	base := Position{Line: 10, Column: 3, Offset: 200}
	assert.Equal(t, Position{Line: 11, Column: 5, Offset: 212}, p.Shift(base))
	first := Position{Line: 1, Column: 4, Offset: 3}
	assert.Equal(t, Position{Line: 10, Column: 6, Offset: 203}, first.Shift(base))
}
