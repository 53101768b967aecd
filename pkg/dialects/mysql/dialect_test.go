package mysql

import (
	"testing"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQLDialect(t *testing.T) {
	d, ok := dialect.Get("MySQL")
	require.True(t, ok)
	assert.Same(t, MySQL, d)

	assert.False(t, d.SupportsQualify())
	assert.False(t, d.SupportsIlike())
	assert.False(t, d.SupportsCastOperator())
	assert.Empty(t, d.Symbols())

	_, ok = d.LookupKeyword("ilike")
	assert.False(t, ok)

	assert.Equal(t, "`key`", d.QuoteIdentifierIfNeeded("key"))
	assert.Equal(t, "`a``b`", d.QuoteIdentifier("a`b"))
	assert.Equal(t, core.AutoIncrementKeyword, d.AutoIncrement.Style)
	assert.Equal(t, []string{"AUTO_INCREMENT"}, d.AutoIncrement.Keywords)
}
