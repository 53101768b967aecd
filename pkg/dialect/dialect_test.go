package dialect

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *core.DialectConfig {
	return &core.DialectConfig{
		Name: "test",
		Identifiers: core.IdentifierConfig{
			Quote: `"`, QuoteEnd: `"`, Escape: `""`,
			Normalization: core.NormLowercase,
		},
		Aggregates: []string{"sum", "COUNT"},
		Windows:    []string{"ROW_NUMBER"},
	}
}

func TestLineageTypeString(t *testing.T) {
	tests := []struct {
		lineageType Type
		want        string
	}{
		{LineagePassthrough, "passthrough"},
		{LineageAggregate, "aggregate"},
		{LineageWindow, "window"},
		{Type(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.lineageType.String())
		})
	}
}

func TestFunctionLineageType(t *testing.T) {
	d := New(testConfig()).Build()

	assert.Equal(t, LineageAggregate, d.FunctionLineageType("SUM"))
	assert.Equal(t, LineageAggregate, d.FunctionLineageType("count"))
	assert.Equal(t, LineageWindow, d.FunctionLineageType("row_number"))
	assert.Equal(t, LineagePassthrough, d.FunctionLineageType("upper"))
}

func TestBuild_AutoWiresFeatures(t *testing.T) {
	plain := New(testConfig()).Build()
	_, ok := plain.LookupKeyword("ilike")
	assert.False(t, ok)
	assert.Empty(t, plain.Symbols())
	assert.Equal(t, PrecedenceAnd, plain.Precedence(token.AND))

	cfg := testConfig()
	cfg.SupportsIlike = true
	cfg.SupportsQualify = true
	cfg.SupportsCastOperator = true
	rich := New(cfg).Build()

	tok, ok := rich.LookupKeyword("ILIKE")
	require.True(t, ok)
	assert.Equal(t, TokenIlike, tok)
	assert.Equal(t, PrecedenceComparison, rich.Precedence(TokenIlike))

	tok, ok = rich.LookupKeyword("qualify")
	require.True(t, ok)
	assert.Equal(t, TokenQualify, tok)

	assert.Equal(t, TokenDColon, rich.Symbols()["::"])
	assert.Equal(t, PrecedencePostfix, rich.Precedence(TokenDColon))
	assert.True(t, rich.SupportsCastOperator())
	assert.False(t, rich.SupportsArrays())
}

func TestQuoteIdentifier(t *testing.T) {
	d := New(testConfig()).WithReservedWords("order", "user").Build()

	tests := []struct {
		in   string
		want string
	}{
		{"amount", "amount"},
		{"order", `"order"`},
		{"USER", `"USER"`},
		{"first name", `"first name"`},
		{"9lives", `"9lives"`},
		{`we"ird`, `"we""ird"`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, d.QuoteIdentifierIfNeeded(tt.in))
		})
	}
}

func TestNormalizeName(t *testing.T) {
	cfg := testConfig()
	cfg.Identifiers.Normalization = core.NormUppercase
	assert.Equal(t, "ORDERS", New(cfg).Build().NormalizeName("Orders"))

	cfg.Identifiers.Normalization = core.NormCaseSensitive
	assert.Equal(t, "Orders", New(cfg).Build().NormalizeName("Orders"))
}

func TestConfig_RoundTrip(t *testing.T) {
	cfg := testConfig()
	cfg.PlaceholderType = "TEXT"
	cfg.AutoIncrement = core.AutoIncrementConfig{Style: core.AutoIncrementKeyword, Keywords: []string{"AUTO_INCREMENT"}}
	d := New(cfg).Build()

	got := d.Config()
	assert.Equal(t, "test", got.Name)
	assert.Equal(t, "TEXT", got.PlaceholderType)
	assert.Equal(t, core.AutoIncrementKeyword, got.AutoIncrement.Style)
	assert.Equal(t, []string{"COUNT", "SUM"}, got.Aggregates)
}

func TestRegistry(t *testing.T) {
	cfg := testConfig()
	cfg.Name = "Registry_Test"
	Register(New(cfg).Build())

	d, ok := Get("registry_test")
	require.True(t, ok)
	assert.Equal(t, "Registry_Test", d.Name)
	assert.Contains(t, List(), "registry_test")

	_, err := Lookup("cobol")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedDialect))
	var ude *UnsupportedDialectError
	require.ErrorAs(t, err, &ude)
	assert.Equal(t, "cobol", ude.Name)
	assert.Contains(t, ude.Available, "registry_test")

	_, err = Lookup("  ")
	assert.ErrorIs(t, err, ErrDialectRequired)
}
