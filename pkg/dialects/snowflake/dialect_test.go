package snowflake

import (
	"testing"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnowflakeDialect(t *testing.T) {
	d, ok := dialect.Get("snowflake")
	require.True(t, ok)
	assert.Same(t, Snowflake, d)

	assert.True(t, d.SupportsQualify())
	assert.True(t, d.SupportsIlike())
	assert.True(t, d.SupportsCastOperator())
	assert.False(t, d.SupportsArrays())

	_, ok = d.LookupKeyword("QUALIFY")
	assert.True(t, ok)
	assert.Equal(t, dialect.TokenDColon, d.Symbols()["::"])

	assert.Equal(t, core.AutoIncrementKeyword, d.AutoIncrement.Style)
	assert.Equal(t, "AUTOINCREMENT", d.AutoIncrement.Keywords[0])
	assert.Equal(t, "VARCHAR", d.PlaceholderType)
	assert.Equal(t, "ORDERS", d.NormalizeName("orders"))
	assert.Equal(t, `"ORDER"`, d.QuoteIdentifierIfNeeded("ORDER"))
	assert.True(t, d.IsAggregate("listagg"))
}
