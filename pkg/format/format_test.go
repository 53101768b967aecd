package format_test

import (
	"testing"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/dialect"
	"github.com/leapstack-labs/leapmigrate/pkg/dialects/duckdb"
	"github.com/leapstack-labs/leapmigrate/pkg/dialects/mysql"
	"github.com/leapstack-labs/leapmigrate/pkg/dialects/postgres"
	"github.com/leapstack-labs/leapmigrate/pkg/dialects/snowflake"
	"github.com/leapstack-labs/leapmigrate/pkg/format"
	"github.com/leapstack-labs/leapmigrate/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat_Select(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		from     *dialect.Dialect
		to       *dialect.Dialect
		expected string
	}{
		{
			name:  "where clause",
			input: "SELECT a, b FROM t WHERE x = 1",
			from:  postgres.Postgres,
			to:    postgres.Postgres,
			expected: `SELECT
  a,
  b
FROM t
WHERE
  x = 1
`,
		},
		{
			name:  "left join",
			input: "SELECT a.x FROM a LEFT JOIN b ON a.id = b.id",
			from:  postgres.Postgres,
			to:    postgres.Postgres,
			expected: `SELECT
  a.x
FROM a
LEFT JOIN b
  ON a.id = b.id
`,
		},
		{
			name:  "cast operator kept when supported",
			input: "SELECT amount::numeric(10,2) AS amt FROM t",
			from:  postgres.Postgres,
			to:    snowflake.Snowflake,
			expected: `SELECT
  amount::NUMERIC(10, 2) AS amt
FROM t
`,
		},
		{
			name:  "cast operator spelled out otherwise",
			input: "SELECT amount::numeric(10,2) AS amt FROM t",
			from:  postgres.Postgres,
			to:    mysql.MySQL,
			expected: "SELECT\n  CAST(amount AS NUMERIC(10, 2)) AS amt\nFROM t\n",
		},
		{
			name:  "quoted identifiers use target quotes",
			input: `SELECT "User Name" FROM t`,
			from:  postgres.Postgres,
			to:    mysql.MySQL,
			expected: "SELECT\n  `User Name`\nFROM t\n",
		},
		{
			name:  "string escapes",
			input: "SELECT 'it''s' FROM t ORDER BY a DESC LIMIT 5",
			from:  postgres.Postgres,
			to:    postgres.Postgres,
			expected: `SELECT
  'it''s'
FROM t
ORDER BY
  a DESC
LIMIT 5
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := parser.Parse(tt.input, tt.from)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, format.Format(stmt, tt.to))
		})
	}
}

func TestFormat_CreateTableAutoIncrement(t *testing.T) {
	stmt, err := parser.Parse(
		"CREATE TABLE t (id INT AUTO_INCREMENT PRIMARY KEY, name VARCHAR(20) NOT NULL DEFAULT 'x')",
		mysql.MySQL)
	require.NoError(t, err)

	tests := []struct {
		name     string
		to       *dialect.Dialect
		expected string
	}{
		{"snowflake keyword", snowflake.Snowflake, `CREATE TABLE t (
  id INT AUTOINCREMENT PRIMARY KEY,
  name VARCHAR(20) NOT NULL DEFAULT 'x'
)
`},
		{"postgres identity", postgres.Postgres, `CREATE TABLE t (
  id INT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
  name VARCHAR(20) NOT NULL DEFAULT 'x'
)
`},
		{"duckdb has none", duckdb.DuckDB, `CREATE TABLE t (
  id INT PRIMARY KEY,
  name VARCHAR(20) NOT NULL DEFAULT 'x'
)
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, format.Format(stmt, tt.to))
		})
	}
}

func TestFormat_TableConstraints(t *testing.T) {
	stmt, err := parser.Parse(`CREATE TABLE orders (
  id INTEGER,
  customer_id INTEGER REFERENCES customers (id) ON DELETE CASCADE,
  CONSTRAINT orders_pk PRIMARY KEY (id),
  CHECK (id > 0)
)`, postgres.Postgres)
	require.NoError(t, err)

	assert.Equal(t, `CREATE TABLE orders (
  id INTEGER,
  customer_id INTEGER REFERENCES customers (id) ON DELETE CASCADE,
  CONSTRAINT orders_pk PRIMARY KEY (id),
  CHECK (id > 0)
)
`, format.Format(stmt, postgres.Postgres))
}

func TestType(t *testing.T) {
	assert.Equal(t, "TIMESTAMP(3) WITH TIME ZONE",
		format.Type(&core.TypeRef{Name: "TIMESTAMP WITH TIME ZONE", Params: []string{"3"}}))
	assert.Equal(t, "TEXT[]", format.Type(&core.TypeRef{Name: "TEXT", Array: true}))
	assert.Equal(t, "", format.Type(nil))
}

func TestExpr(t *testing.T) {
	stmt, err := parser.ParseSelect("SELECT CASE WHEN a > 1 THEN 'x' END FROM t", postgres.Postgres)
	require.NoError(t, err)

	got := format.Expr(stmt.Body.Left.Columns[0].Expr, postgres.Postgres)
	assert.Equal(t, "CASE WHEN a > 1 THEN 'x' END", got)
}

// Formatted output must re-parse in the same dialect and format identically.
func TestFormat_RoundTrip(t *testing.T) {
	inputs := []struct {
		sql string
		d   *dialect.Dialect
	}{
		{`WITH r AS (SELECT id, SUM(x) AS s FROM t GROUP BY id HAVING SUM(x) > 1)
SELECT r.id, r.s FROM r JOIN u USING (id) WHERE r.s BETWEEN 1 AND 10 AND u.name NOT LIKE 'a%' OR u.id IN (1, 2, 3)`, postgres.Postgres},
		{"SELECT id FROM t QUALIFY ROW_NUMBER() OVER (PARTITION BY g ORDER BY id DESC NULLS LAST) = 1", snowflake.Snowflake},
		{"SELECT tags[1], name ILIKE 'x%' FROM t, u WHERE NOT EXISTS (SELECT 1 FROM v)", duckdb.DuckDB},
		{"CREATE OR REPLACE VIEW v (a, b) AS SELECT x, COUNT(DISTINCT y) FROM t GROUP BY x", postgres.Postgres},
		{"CREATE TABLE `k` (`key` INT UNSIGNED AUTO_INCREMENT, d DECIMAL(10, 2) DEFAULT -1)", mysql.MySQL},
	}

	for _, in := range inputs {
		stmt, err := parser.Parse(in.sql, in.d)
		require.NoError(t, err, in.sql)

		first := format.Format(stmt, in.d)
		again, err := parser.Parse(first, in.d)
		require.NoError(t, err, first)
		assert.Equal(t, first, format.Format(again, in.d))
	}
}
