package parser_test

import (
	"testing"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/dialect"
	"github.com/leapstack-labs/leapmigrate/pkg/dialects/ansi"
	"github.com/leapstack-labs/leapmigrate/pkg/dialects/duckdb"
	"github.com/leapstack-labs/leapmigrate/pkg/dialects/mysql"
	"github.com/leapstack-labs/leapmigrate/pkg/dialects/postgres"
	"github.com/leapstack-labs/leapmigrate/pkg/dialects/snowflake"
	"github.com/leapstack-labs/leapmigrate/pkg/parser"
	"github.com/leapstack-labs/leapmigrate/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSelect(t *testing.T, sql string, d *dialect.Dialect) *core.SelectStmt {
	t.Helper()
	stmt, err := parser.ParseSelect(sql, d)
	require.NoError(t, err)
	require.NotNil(t, stmt)
	return stmt
}

func TestParse_SelectShape(t *testing.T) {
	stmt := mustSelect(t, `
WITH recent AS (
    SELECT customer_id, SUM(amount) AS total
    FROM orders
    WHERE created_at >= DATE '2024-01-01'
    GROUP BY customer_id
)
SELECT c.name, r.total
FROM customers c
LEFT JOIN recent r ON r.customer_id = c.id
WHERE c.active IS TRUE AND c.id NOT IN (SELECT id FROM banned)
ORDER BY r.total DESC NULLS LAST
LIMIT 10`, postgres.Postgres)

	require.NotNil(t, stmt.With)
	assert.Equal(t, "recent", stmt.With.CTEs[0].Name)

	cte := stmt.With.CTEs[0].Select.Body.Left
	assert.Equal(t, "total", cte.Columns[1].Alias)
	cast, ok := cte.Where.(*core.BinaryExpr).Right.(*core.CastExpr)
	require.True(t, ok, "typed literal becomes a cast")
	assert.Equal(t, "DATE", cast.Type.Name)

	core0 := stmt.Body.Left
	assert.Equal(t, "customers", core0.From.Source.(*core.TableName).Name)
	assert.Equal(t, "c", core0.From.Source.(*core.TableName).Alias)
	require.Len(t, core0.From.Joins, 1)
	assert.Equal(t, core.JoinLeft, core0.From.Joins[0].Type)

	and := core0.Where.(*core.BinaryExpr)
	assert.Equal(t, token.AND, and.Op)
	in := and.Right.(*core.InExpr)
	assert.True(t, in.Not)
	require.NotNil(t, in.Query)

	require.Len(t, core0.OrderBy, 1)
	assert.True(t, core0.OrderBy[0].Desc)
	require.NotNil(t, core0.OrderBy[0].NullsFirst)
	assert.False(t, *core0.OrderBy[0].NullsFirst)
	assert.NotNil(t, core0.Limit)
}

func TestParse_SetOperationsAndWindows(t *testing.T) {
	stmt := mustSelect(t, `
SELECT id, ROW_NUMBER() OVER (PARTITION BY dept ORDER BY salary DESC ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW) AS rn
FROM a
UNION ALL
SELECT id, 1 FROM b`, ansi.ANSI)

	assert.Equal(t, core.SetOpUnion, stmt.Body.Op)
	assert.True(t, stmt.Body.All)
	assert.Len(t, stmt.Body.Cores(), 2)

	fn := stmt.Body.Left.Columns[1].Expr.(*core.FuncCall)
	assert.Equal(t, "ROW_NUMBER", fn.Name)
	require.NotNil(t, fn.Window)
	require.NotNil(t, fn.Window.Frame)
	assert.Equal(t, core.FrameRows, fn.Window.Frame.Type)
	assert.Equal(t, core.FrameUnboundedPreceding, fn.Window.Frame.Start.Type)
	assert.Equal(t, core.FrameCurrentRow, fn.Window.Frame.End.Type)
}

func TestParse_CaseAndExists(t *testing.T) {
	stmt := mustSelect(t, `SELECT CASE WHEN x > 0 THEN 'pos' ELSE 'neg' END AS sign
FROM t WHERE NOT EXISTS (SELECT 1 FROM u WHERE u.id = t.id)`, snowflake.Snowflake)

	c := stmt.Body.Left.Columns[0].Expr.(*core.CaseExpr)
	assert.Nil(t, c.Operand)
	assert.Len(t, c.Whens, 1)
	ex := stmt.Body.Left.Where.(*core.ExistsExpr)
	assert.True(t, ex.Not)
}

func TestParse_DialectExtensions(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		d       *dialect.Dialect
		wantErr string
	}{
		{"postgres cast operator", "SELECT amount::numeric FROM t", postgres.Postgres, ""},
		{"mysql rejects cast operator", "SELECT amount::numeric FROM t", mysql.MySQL, "operator :: is not supported in mysql dialect"},
		{"mysql rejects cast to varchar", "SELECT CAST(name AS VARCHAR(10)) FROM t", mysql.MySQL, "line 1, column 21: CAST to VARCHAR is not supported in mysql dialect"},
		{"mysql cast to char", "SELECT CAST(name AS CHAR(10)) FROM t", mysql.MySQL, ""},
		{"mysql cast to signed integer", "SELECT CAST(qty AS SIGNED INTEGER) FROM t", mysql.MySQL, ""},
		{"postgres cast to varchar", "SELECT CAST(name AS VARCHAR(10)) FROM t", postgres.Postgres, ""},
		{"postgres ilike", "SELECT * FROM t WHERE name ILIKE 'a%'", postgres.Postgres, ""},
		{"mysql rejects ilike", "SELECT * FROM t WHERE name ILIKE 'a%'", mysql.MySQL, "operator ILIKE is not supported in mysql dialect"},
		{"snowflake qualify", "SELECT id FROM t QUALIFY ROW_NUMBER() OVER (ORDER BY id) = 1", snowflake.Snowflake, ""},
		{"postgres rejects qualify", "SELECT id FROM t QUALIFY ROW_NUMBER() OVER (ORDER BY id) = 1", postgres.Postgres, "line 1, column 18: QUALIFY is not supported in postgres dialect"},
		{"duckdb array index", "SELECT tags[1] FROM t", duckdb.DuckDB, ""},
		{"ansi rejects array index", "SELECT tags[1] FROM t", ansi.ANSI, "after end of statement"},
		{"missing FROM target", "SELECT a FROM", postgres.Postgres, "expected table name"},
		{"unsupported statement", "INSERT INTO t VALUES (1)", postgres.Postgres, "unsupported statement"},
		{"trailing garbage", "SELECT 1; SELECT 2", postgres.Postgres, "after end of statement"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.sql, tt.d)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_ILikeAndCastNodes(t *testing.T) {
	stmt := mustSelect(t, "SELECT id::text FROM t WHERE name NOT ILIKE '%x%'", postgres.Postgres)

	cast := stmt.Body.Left.Columns[0].Expr.(*core.CastExpr)
	assert.True(t, cast.DoubleColon)
	assert.Equal(t, "TEXT", cast.Type.Name)

	like := stmt.Body.Left.Where.(*core.LikeExpr)
	assert.Equal(t, core.OpILike, like.Op)
	assert.True(t, like.Not)
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := parser.Parse("SELECT a,\n  FROM t", postgres.Postgres)
	require.Error(t, err)

	var pe *parser.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Pos.Line)
	assert.Equal(t, 3, pe.Pos.Column)
}

func TestParse_RequiresDialect(t *testing.T) {
	_, err := parser.Parse("SELECT 1", nil)
	assert.ErrorIs(t, err, dialect.ErrDialectRequired)

	_, err = parser.Parse("  -- nothing\n", postgres.Postgres)
	require.Error(t, err)
	assert.Contains(t, err.Error(), parser.ErrEmptyStatement)
}

func TestParse_NiladicFunctions(t *testing.T) {
	stmt := mustSelect(t, "SELECT CURRENT_TIMESTAMP, current_date() FROM t", postgres.Postgres)

	for _, item := range stmt.Body.Left.Columns {
		fn, ok := item.Expr.(*core.FuncCall)
		require.True(t, ok)
		assert.True(t, core.IsNiladic(fn.Name))
		assert.Empty(t, fn.Args)
	}
}
