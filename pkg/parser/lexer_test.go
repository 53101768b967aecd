package parser_test

import (
	"testing"

	"github.com/leapstack-labs/leapmigrate/pkg/dialect"
	"github.com/leapstack-labs/leapmigrate/pkg/dialects/mysql"
	"github.com/leapstack-labs/leapmigrate/pkg/dialects/postgres"
	"github.com/leapstack-labs/leapmigrate/pkg/parser"
	"github.com/leapstack-labs/leapmigrate/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTypes(toks []token.Token) []token.TokenType {
	out := make([]token.TokenType, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func TestTokenize_Postgres(t *testing.T) {
	toks, err := parser.Tokenize(`SELECT o.amount::numeric, "Order" -- trailing
FROM t WHERE name ILIKE 'it''s'`, postgres.Postgres)
	require.NoError(t, err)

	assert.Equal(t, []token.TokenType{
		token.SELECT, token.IDENT, token.DOT, token.IDENT, dialect.TokenDColon, token.IDENT,
		token.COMMA, token.IDENT,
		token.FROM, token.IDENT, token.WHERE, token.IDENT, dialect.TokenIlike, token.STRING,
		token.EOF,
	}, tokenTypes(toks))

	assert.Equal(t, "Order", toks[7].Literal)
	assert.True(t, toks[7].Quoted)
	assert.Equal(t, "it's", toks[13].Literal)
	assert.Equal(t, 2, toks[8].Pos.Line)
	assert.Equal(t, 1, toks[8].Pos.Column)
}

func TestTokenize_MySQLQuoting(t *testing.T) {
	toks, err := parser.Tokenize("SELECT `key`, \"text\" FROM t", mysql.MySQL)
	require.NoError(t, err)

	assert.Equal(t, token.IDENT, toks[1].Type)
	assert.Equal(t, "key", toks[1].Literal)
	assert.True(t, toks[1].Quoted)
	assert.Equal(t, token.STRING, toks[3].Type)
}

func TestTokenize_BacktickIllegalInPostgres(t *testing.T) {
	_, err := parser.Tokenize("SELECT `key` FROM t", postgres.Postgres)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1, column 8")
}

func TestTokenize_UnterminatedString(t *testing.T) {
	_, err := parser.Tokenize("SELECT 'abc", postgres.Postgres)
	require.Error(t, err)
	assert.Contains(t, err.Error(), parser.ErrUnterminatedString)
}

func TestTokenize_ForeignKeywordsStillLex(t *testing.T) {
	toks, err := parser.Tokenize("a ILIKE b", mysql.MySQL)
	require.NoError(t, err)
	assert.Equal(t, dialect.TokenIlike, toks[1].Type)

	toks, err = parser.Tokenize("a::int", mysql.MySQL)
	require.NoError(t, err)
	assert.Equal(t, dialect.TokenDColon, toks[1].Type)
}
