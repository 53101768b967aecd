package validate

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/leapmigrate/internal/lineage"
	"github.com/leapstack-labs/leapmigrate/internal/rewrite"
	"github.com/leapstack-labs/leapmigrate/pkg/catalog"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const customersDDL = "CREATE TABLE customers (id INT PRIMARY KEY, name TEXT NOT NULL)"

type fixture struct {
	t      *testing.T
	cat    *catalog.Catalog
	schema *lineage.Schema
}

func newFixture(t *testing.T, dialect string, ddl ...string) *fixture {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	schema := lineage.NewSchema()
	for _, sql := range ddl {
		stmt, err := cat.ParseStatement(sql, dialect)
		require.NoError(t, err)
		schema.Add(stmt.(*core.CreateTableStmt))
	}
	return &fixture{t: t, cat: cat, schema: schema}
}

// input parses sql and rewrites it from one dialect to another.
func (f *fixture) input(from, to, sql string) Input {
	f.t.Helper()
	stmt, err := f.cat.ParseStatement(sql, from)
	require.NoError(f.t, err)

	asset := &core.Asset{Name: "a", Kind: kindFor(stmt), Dialect: from}
	rw, err := rewrite.New(f.cat, from, to)
	require.NoError(f.t, err)
	return Input{Asset: asset, Source: stmt, Translation: rw.Rewrite(asset, stmt), Schema: f.schema}
}

// handWritten pairs a legacy statement with a translation given verbatim.
func (f *fixture) handWritten(from, sql, to, translated string, notes ...core.TranslationNote) Input {
	f.t.Helper()
	stmt, err := f.cat.ParseStatement(sql, from)
	require.NoError(f.t, err)
	asset := &core.Asset{Name: "a", Kind: kindFor(stmt), Dialect: from}
	return Input{
		Asset:  asset,
		Source: stmt,
		Translation: &rewrite.Result{
			Asset: "a", Kind: asset.Kind, TargetDialect: to, SQL: translated,
			Notes: append([]core.TranslationNote{}, notes...),
		},
		Schema: f.schema,
	}
}

func kindFor(stmt core.Stmt) core.AssetKind {
	switch stmt.(type) {
	case *core.CreateTableStmt:
		return core.KindTable
	case *core.CreateViewStmt:
		return core.KindView
	default:
		return core.KindStoredQuery
	}
}

func findingCodes(v *core.Verdict) []core.Code {
	out := make([]core.Code, 0, len(v.Findings))
	for _, f := range v.Findings {
		out = append(out, f.Code)
	}
	return out
}

func TestValidate_CleanTranslationPasses(t *testing.T) {
	f := newFixture(t, "postgres")
	v := New(f.cat, Config{}).Validate(f.input("postgres", "snowflake",
		"CREATE TABLE regions (id INT PRIMARY KEY, name VARCHAR(50) NOT NULL)"))

	assert.Equal(t, core.StatusPass, v.Status)
	assert.Empty(t, v.Findings)
	assert.Equal(t, "a", v.Asset)
	assert.Equal(t, core.KindTable, v.Kind)
}

func TestValidate_RoundTripFailureSkipsStructure(t *testing.T) {
	f := newFixture(t, "snowflake")
	v := New(f.cat, Config{}).Validate(f.input("snowflake", "postgres",
		"SELECT id FROM t QUALIFY ROW_NUMBER() OVER (ORDER BY id) = 1"))

	assert.Equal(t, core.StatusFail, v.Status)
	require.Equal(t, []core.Code{core.CodeRewriteProducedInvalidSQL, core.CodeUnsupportedClause}, findingCodes(v))
	assert.Empty(t, v.Findings[0].NoteRef)
	assert.Equal(t, string(core.CodeUnsupportedClause), v.Findings[1].NoteRef)
}

func TestValidate_MissingAutoIncrementIsExplained(t *testing.T) {
	f := newFixture(t, "postgres")
	v := New(f.cat, Config{}).Validate(f.input("postgres", "duckdb",
		"CREATE TABLE t (id SERIAL PRIMARY KEY, name TEXT)"))

	require.Equal(t, []core.Code{core.CodeColumnMismatch, core.CodeMappingGap}, findingCodes(v))
	assert.Equal(t, core.SeverityWarning, v.Findings[0].Severity)
	assert.Contains(t, v.Findings[0].Message, "explained")
	assert.Equal(t, core.SeverityError, v.Findings[1].Severity)
	assert.Equal(t, core.StatusFail, v.Status)
}

func TestValidate_LossyNotesWarn(t *testing.T) {
	f := newFixture(t, "postgres")
	v := New(f.cat, Config{}).Validate(f.input("postgres", "snowflake",
		"CREATE TABLE t (id UUID, amount NUMERIC)"))

	assert.Equal(t, core.StatusWarn, v.Status)
	assert.Equal(t, []core.Code{core.CodeLossyTypeMapping, core.CodeLossyTypeMapping}, findingCodes(v))
}

func TestValidate_SerialToDialectWithoutSerial(t *testing.T) {
	for _, target := range []string{"mysql", "snowflake", "databricks"} {
		t.Run(target, func(t *testing.T) {
			f := newFixture(t, "postgres")
			v := New(f.cat, Config{}).Validate(f.input("postgres", target,
				"CREATE TABLE t (id SERIAL PRIMARY KEY, amt NUMERIC(10,2))"))

			assert.Equal(t, core.StatusWarn, v.Status)
			require.Equal(t, []core.Code{core.CodeLossyAutoIncrement}, findingCodes(v))
			assert.Equal(t, core.SeverityWarning, v.Findings[0].Severity)
			assert.Contains(t, v.Findings[0].Message, "SERIAL")
			assert.Equal(t, string(core.CodeLossyAutoIncrement), v.Findings[0].NoteRef)
		})
	}
}

func TestValidate_PrecisionOverflowWarns(t *testing.T) {
	f := newFixture(t, "postgres")
	v := New(f.cat, Config{}).Validate(f.input("postgres", "snowflake",
		"CREATE TABLE t (a INT, b NUMERIC(40,2))"))

	assert.Equal(t, core.StatusWarn, v.Status)
	assert.Equal(t, []core.Code{core.CodeLossyTypeMapping}, findingCodes(v))
}

func TestValidate_MySQLCastsRoundTrip(t *testing.T) {
	f := newFixture(t, "postgres", customersDDL)
	v := New(f.cat, Config{}).Validate(f.input("postgres", "mysql",
		"SELECT name::varchar(10) AS short_name, id::int AS n FROM customers"))

	assert.Equal(t, core.StatusPass, v.Status, "findings: %+v", v.Findings)
	assert.Empty(t, v.Findings)
}

func TestValidate_InfoNotesPass(t *testing.T) {
	f := newFixture(t, "postgres", customersDDL)
	v := New(f.cat, Config{}).Validate(f.input("postgres", "mysql",
		"SELECT id FROM customers WHERE name ILIKE 'a%'"))

	assert.Equal(t, core.StatusPass, v.Status)
	assert.Equal(t, []core.Code{core.CodeOperatorRewritten}, findingCodes(v))
}

func TestValidate_ColumnResolution(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []core.Code
	}{
		{"qualified known", "SELECT c.id, c.name FROM customers c", []core.Code{}},
		{"qualified missing", "SELECT c.id, c.email FROM customers c", []core.Code{core.CodeColumnNotFound}},
		{"unqualified missing", "SELECT email FROM customers", []core.Code{core.CodeColumnNotFound}},
		{"select alias in order by", "SELECT name AS n FROM customers ORDER BY n", []core.Code{}},
		{"ambiguous unqualified skipped", "SELECT email FROM customers JOIN orders ON orders.customer_id = customers.id", []core.Code{}},
		{"derived table is opaque", "SELECT x.email FROM (SELECT id AS email FROM customers) x", []core.Code{}},
		{"cte is opaque", "WITH customers AS (SELECT 1 AS email) SELECT email FROM customers", []core.Code{}},
		{
			"correlated subquery",
			"SELECT c.id FROM customers c WHERE EXISTS (SELECT 1 FROM customers d WHERE d.id = c.id AND d.email = 'x')",
			[]core.Code{core.CodeColumnNotFound},
		},
	}

	f := newFixture(t, "postgres", customersDDL)
	val := New(f.cat, Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := val.Validate(f.input("postgres", "postgres", tt.sql))
			assert.Equal(t, tt.want, findingCodes(v))
		})
	}
}

func TestValidate_ForeignKeyColumns(t *testing.T) {
	f := newFixture(t, "postgres", customersDDL)
	v := New(f.cat, Config{}).Validate(f.input("postgres", "postgres",
		"CREATE TABLE orders (id INT, customer_id INT REFERENCES customers (uid))"))
	assert.Equal(t, []core.Code{core.CodeColumnNotFound}, findingCodes(v))
}

func TestValidate_UnresolvedTableIsInfo(t *testing.T) {
	f := newFixture(t, "postgres")
	in := f.input("postgres", "postgres", "SELECT * FROM legacy.audit")
	in.Unresolved = []string{"legacy.audit"}

	v := New(f.cat, Config{}).Validate(in)
	assert.Equal(t, core.StatusPass, v.Status)
	require.Equal(t, []core.Code{core.CodeUnresolvedTable}, findingCodes(v))
	assert.Equal(t, core.SeverityInfo, v.Findings[0].Severity)
}

func TestValidate_PriorFindingsLead(t *testing.T) {
	f := newFixture(t, "postgres")
	in := f.input("postgres", "postgres", "CREATE VIEW v AS SELECT 1 AS one")
	in.Findings = []core.Finding{{Code: core.CodeCyclicDependency, Severity: core.SeverityWarning, Message: "cycle"}}

	v := New(f.cat, Config{}).Validate(in)
	assert.Equal(t, core.StatusWarn, v.Status)
	assert.Equal(t, []core.Code{core.CodeCyclicDependency}, findingCodes(v))
}

func TestValidate_ParseFailure(t *testing.T) {
	f := newFixture(t, "postgres")
	asset := &core.Asset{Name: "broken", Kind: core.KindStoredQuery}
	v := New(f.cat, Config{}).Validate(Input{
		Asset:    asset,
		Findings: []core.Finding{{Code: core.CodeParseError, Severity: core.SeverityError, Message: "unexpected token"}},
	})
	assert.Equal(t, core.StatusFail, v.Status)
	assert.Equal(t, []core.Code{core.CodeParseError}, findingCodes(v))
}

type stubOracle struct{ err error }

func (o stubOracle) Check(string) error { return o.err }

func TestValidate_Oracle(t *testing.T) {
	f := newFixture(t, "mysql")
	sql := "SELECT id FROM t"

	v := New(f.cat, Config{Oracle: stubOracle{}}).Validate(f.input("mysql", "postgres", sql))
	assert.Equal(t, core.StatusPass, v.Status)

	v = New(f.cat, Config{Oracle: stubOracle{err: errors.New("syntax error at or near")}}).
		Validate(f.input("mysql", "postgres", sql))
	assert.Equal(t, core.StatusFail, v.Status)
	require.Equal(t, []core.Code{core.CodeRewriteProducedInvalidSQL}, findingCodes(v))
	assert.Contains(t, v.Findings[0].Message, "syntax error")
}

func TestValidate_StructuralMismatches(t *testing.T) {
	tests := []struct {
		name       string
		sql        string
		translated string
		notes      []core.TranslationNote
		want       []core.Code
		severities []core.Severity
	}{
		{
			name:       "dropped column",
			sql:        "CREATE TABLE t (a INT, b INT)",
			translated: "CREATE TABLE t (a INT)",
			want:       []core.Code{core.CodeColumnCountMismatch},
			severities: []core.Severity{core.SeverityError},
		},
		{
			name:       "dropped column explained by note",
			sql:        "CREATE TABLE t (a INT, b INT)",
			translated: "CREATE TABLE t (a INT)",
			notes: []core.TranslationNote{{
				Severity: core.SeverityError, Code: core.CodeMappingGap,
				Pos: token.Position{Line: 1, Column: 1}, Message: "gap",
			}},
			want:       []core.Code{core.CodeColumnCountMismatch, core.CodeMappingGap},
			severities: []core.Severity{core.SeverityWarning, core.SeverityError},
		},
		{
			name:       "renamed column",
			sql:        "CREATE TABLE t (a INT, b INT)",
			translated: "CREATE TABLE t (a INT, c INT)",
			want:       []core.Code{core.CodeColumnMismatch},
			severities: []core.Severity{core.SeverityError},
		},
		{
			name:       "lost not null and default",
			sql:        "CREATE TABLE t (a INT NOT NULL DEFAULT 0)",
			translated: "CREATE TABLE t (a INT)",
			want:       []core.Code{core.CodeColumnMismatch, core.CodeColumnMismatch, core.CodeConstraintMismatch},
			severities: []core.Severity{core.SeverityError, core.SeverityError, core.SeverityError},
		},
		{
			name:       "lost foreign key",
			sql:        "CREATE TABLE t (a INT PRIMARY KEY, b INT REFERENCES u (id))",
			translated: "CREATE TABLE t (a INT PRIMARY KEY, b INT)",
			want:       []core.Code{core.CodeConstraintMismatch},
			severities: []core.Severity{core.SeverityError},
		},
		{
			name:       "column constraint moved to table level",
			sql:        "CREATE TABLE t (a INT PRIMARY KEY)",
			translated: "CREATE TABLE t (a INT, PRIMARY KEY (a))",
			want:       []core.Code{},
			severities: []core.Severity{},
		},
		{
			name:       "renamed output column",
			sql:        "SELECT a AS y FROM t",
			translated: "SELECT a AS x FROM t",
			want:       []core.Code{core.CodeColumnMismatch},
			severities: []core.Severity{core.SeverityError},
		},
		{
			name:       "unaliased expressions are not compared by name",
			sql:        "SELECT NOW() FROM t",
			translated: "SELECT CURRENT_TIMESTAMP FROM t",
			want:       []core.Code{},
			severities: []core.Severity{},
		},
		{
			name:       "extra output column",
			sql:        "SELECT a FROM t",
			translated: "SELECT a, b FROM t",
			want:       []core.Code{core.CodeColumnCountMismatch},
			severities: []core.Severity{core.SeverityError},
		},
		{
			name:       "different table",
			sql:        "SELECT a FROM t",
			translated: "SELECT a FROM u",
			want:       []core.Code{core.CodeReferenceMismatch, core.CodeReferenceMismatch},
			severities: []core.Severity{core.SeverityError, core.SeverityError},
		},
		{
			name:       "kind changed",
			sql:        "CREATE VIEW v AS SELECT a FROM t",
			translated: "SELECT a FROM t",
			want:       []core.Code{core.CodeRewriteProducedInvalidSQL},
			severities: []core.Severity{core.SeverityError},
		},
	}

	f := newFixture(t, "postgres")
	val := New(f.cat, Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := val.Validate(f.handWritten("postgres", tt.sql, "postgres", tt.translated, tt.notes...))
			assert.Equal(t, tt.want, findingCodes(v))
			sevs := make([]core.Severity, 0, len(v.Findings))
			for _, finding := range v.Findings {
				sevs = append(sevs, finding.Severity)
			}
			assert.Equal(t, tt.severities, sevs)
		})
	}
}

func TestInterrupted(t *testing.T) {
	asset := &core.Asset{Name: "slow", Kind: core.KindView}
	prior := []core.Finding{{Code: core.CodeCyclicDependency, Severity: core.SeverityWarning}}

	v := Interrupted(asset, prior, core.CodeTimeout, "asset exceeded 5s")
	assert.Equal(t, core.StatusFail, v.Status)
	assert.Equal(t, []core.Code{core.CodeCyclicDependency, core.CodeTimeout}, findingCodes(v))
	assert.Equal(t, "slow", v.Asset)
}
