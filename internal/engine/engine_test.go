package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmigrate/internal/lineage"
	"github.com/leapstack-labs/leapmigrate/internal/state"
	"github.com/leapstack-labs/leapmigrate/internal/testutil"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/dialect"
)

func setupShop(t *testing.T, extra map[string]string) Config {
	t.Helper()
	root := t.TempDir()
	input := filepath.Join(root, "legacy")
	testutil.WriteTree(t, input, testutil.LegacyShop)
	testutil.WriteTree(t, input, extra)
	return Config{
		InputPath:     input,
		OutputPath:    filepath.Join(root, "out"),
		LegacyDialect: "postgres",
		TargetDialect: "snowflake",
		Workers:       2,
		Logger:        testutil.NewTestLogger(t),
	}
}

func verdictOf(t *testing.T, res *RunResult, asset string) *core.Verdict {
	t.Helper()
	for _, v := range res.Summary.Verdicts {
		if v.Asset == asset {
			return v
		}
	}
	t.Fatalf("no verdict for %s", asset)
	return nil
}

func hasCode(v *core.Verdict, code core.Code) bool {
	for _, f := range v.Findings {
		if f.Code == code {
			return true
		}
	}
	return false
}

func TestRunMigration(t *testing.T) {
	cfg := setupShop(t, nil)

	res, err := RunMigration(context.Background(), cfg)
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, cfg.InputPath, res.InputPath)
	assert.Equal(t, "snowflake", res.TargetDialect)
	assert.Equal(t, 4, res.ValidationSummary.Total)
	assert.Zero(t, res.ValidationSummary.Counts.Fail, "verdicts: %+v", res.Summary.Verdicts)
	assert.Equal(t, core.StatusWarn, res.ValidationSummary.Status)
	assert.False(t, res.ValidationSummary.Incomplete)
	for _, table := range []string{"customers", "orders"} {
		v := verdictOf(t, res, table)
		assert.Equal(t, core.StatusWarn, v.Status, table)
		assert.True(t, hasCode(v, core.CodeLossyAutoIncrement), table)
	}

	ddl := filepath.Join(cfg.OutputPath, "converted", "ddl")
	assert.Equal(t, []string{
		filepath.Join(ddl, "0001_customers.sql"),
		filepath.Join(ddl, "0002_orders.sql"),
		filepath.Join(ddl, "0003_customer_totals.sql"),
	}, res.Artifacts.DDLPaths)
	assert.Equal(t, []string{filepath.Join(cfg.OutputPath, "converted", "queries", "top_customers.sql")}, res.Artifacts.QueryPaths)

	customers, err := os.ReadFile(res.Artifacts.DDLPaths[0])
	require.NoError(t, err)
	assert.Contains(t, string(customers), "CREATE TABLE customers")
	assert.Contains(t, string(customers), "AUTOINCREMENT")
	assert.True(t, strings.HasSuffix(string(customers), ";\n"))

	schema, err := os.ReadFile(res.Artifacts.SchemaPath)
	require.NoError(t, err)
	assert.Less(t, strings.Index(string(schema), "-- customers"), strings.Index(string(schema), "-- orders"))
	assert.Less(t, strings.Index(string(schema), "-- orders"), strings.Index(string(schema), "-- customer_totals"))

	for _, path := range []string{
		filepath.Join(cfg.OutputPath, "lineage", lineage.GraphFile),
		filepath.Join(cfg.OutputPath, "lineage", lineage.ParseErrorsFile),
		filepath.Join(cfg.OutputPath, "validation", "orders.json"),
		filepath.Join(cfg.OutputPath, "validation", SummaryFile),
		filepath.Join(res.Artifacts.ScaffoldProjectPath, "dbt_project.yml"),
		filepath.Join(res.Artifacts.ScaffoldProjectPath, "models", "customer_totals.sql"),
		filepath.Join(res.Artifacts.ScaffoldProjectPath, "models", "top_customers.sql"),
		res.Artifacts.ReportPath,
	} {
		assert.FileExists(t, path)
	}

	model, err := os.ReadFile(filepath.Join(res.Artifacts.ScaffoldProjectPath, "models", "top_customers.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(model), "{{ ref('customer_totals') }}")

	data, err := os.ReadFile(filepath.Join(cfg.OutputPath, "validation", SummaryFile))
	require.NoError(t, err)
	var summary core.RunSummary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, res.Summary.Status, summary.Status)
	assert.Len(t, summary.Verdicts, 4)

	rpt, err := os.ReadFile(res.Artifacts.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(rpt), "- Objects parsed: 3 (2 tables, 1 views)")
	assert.Contains(t, string(rpt), "- Queries parsed: 1")
}

func TestRunMigration_SerialScenario(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "legacy")
	testutil.WriteTree(t, input, map[string]string{
		"t.sql": "CREATE TABLE t (id SERIAL PRIMARY KEY, amt NUMERIC(10,2));\n",
	})

	res, err := RunMigration(context.Background(), Config{
		InputPath:     input,
		OutputPath:    filepath.Join(root, "out"),
		LegacyDialect: "postgres",
		TargetDialect: "mysql",
		Logger:        testutil.NewTestLogger(t),
	})
	require.NoError(t, err)

	assert.Equal(t, core.StatusWarn, res.ValidationSummary.Status)
	assert.Equal(t, core.Counts{Warn: 1}, res.ValidationSummary.Counts)

	v := verdictOf(t, res, "t")
	require.Len(t, v.Findings, 1)
	assert.Equal(t, core.CodeLossyAutoIncrement, v.Findings[0].Code)
	assert.Equal(t, core.SeverityWarning, v.Findings[0].Severity)
	assert.Contains(t, v.Findings[0].Message, "SERIAL")

	require.Len(t, res.Artifacts.DDLPaths, 1)
	ddl, err := os.ReadFile(res.Artifacts.DDLPaths[0])
	require.NoError(t, err)
	assert.Contains(t, string(ddl), "id INT AUTO_INCREMENT PRIMARY KEY")
	assert.Contains(t, string(ddl), "amt DECIMAL(10, 2)")
}

func TestRunMigration_PrecisionOverflow(t *testing.T) {
	cfg := setupShop(t, map[string]string{
		"ledger.sql": "CREATE TABLE ledger (id INT PRIMARY KEY, balance NUMERIC(40,2));\n",
	})

	res, err := RunMigration(context.Background(), cfg)
	require.NoError(t, err)

	ledger := verdictOf(t, res, "ledger")
	assert.Equal(t, core.StatusWarn, ledger.Status)
	require.Len(t, ledger.Findings, 1)
	assert.Equal(t, core.CodeLossyTypeMapping, ledger.Findings[0].Code)
	assert.Contains(t, ledger.Findings[0].Message, "maximum of 38")

	var ddl []byte
	for _, p := range res.Artifacts.DDLPaths {
		if strings.HasSuffix(p, "_ledger.sql") {
			ddl, err = os.ReadFile(p)
			require.NoError(t, err)
		}
	}
	assert.Contains(t, string(ddl), "balance NUMBER(38, 2)")
}

func TestRunMigration_Deterministic(t *testing.T) {
	cfg := setupShop(t, nil)
	first, err := RunMigration(context.Background(), cfg)
	require.NoError(t, err)
	a, err := os.ReadFile(first.Artifacts.SchemaPath)
	require.NoError(t, err)

	cfg.Workers = 1
	second, err := RunMigration(context.Background(), cfg)
	require.NoError(t, err)
	b, err := os.ReadFile(second.Artifacts.SchemaPath)
	require.NoError(t, err)

	assert.Equal(t, string(a), string(b))
	assert.Equal(t, first.ValidationSummary, second.ValidationSummary)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRunMigration_ConfigErrors(t *testing.T) {
	base := setupShop(t, nil)

	tests := []struct {
		name   string
		modify func(*Config)
		target error
	}{
		{"missing input", func(c *Config) { c.InputPath = filepath.Join(c.InputPath, "nope") }, ErrInvalidInputPath},
		{"empty input", func(c *Config) { c.InputPath = "" }, ErrInvalidInputPath},
		{"no output", func(c *Config) { c.OutputPath = "" }, ErrOutputPathRequired},
		{"unknown legacy dialect", func(c *Config) { c.LegacyDialect = "oracle" }, dialect.ErrUnsupportedDialect},
		{"unknown target dialect", func(c *Config) { c.TargetDialect = "teradata" }, dialect.ErrUnsupportedDialect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.modify(&cfg)
			res, err := RunMigration(context.Background(), cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.Nil(t, res)
			assert.NoDirExists(t, cfg.OutputPath)
		})
	}
}

func TestRun_ParseErrorIsAssetScoped(t *testing.T) {
	cfg := setupShop(t, map[string]string{"broken.sql": "SELECT name FROM WHERE;\n"})

	res, err := RunMigration(context.Background(), cfg)
	require.NoError(t, err)

	broken := verdictOf(t, res, "broken")
	assert.Equal(t, core.StatusFail, broken.Status)
	assert.True(t, hasCode(broken, core.CodeParseError))
	assert.NotEqual(t, core.StatusFail, verdictOf(t, res, "orders").Status)
	assert.NoFileExists(t, filepath.Join(cfg.OutputPath, "converted", "queries", "broken.sql"))

	data, err := os.ReadFile(filepath.Join(cfg.OutputPath, "lineage", lineage.ParseErrorsFile))
	require.NoError(t, err)
	var records []lineage.ParseErrorRecord
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "broken", records[0].Asset)
	assert.Equal(t, "broken.sql", records[0].Path)
}

func TestRun_AssetTimeout(t *testing.T) {
	cfg := setupShop(t, nil)
	cfg.AssetTimeout = 50 * time.Millisecond
	// The blocked task outlives the test, so it must not log through t.
	cfg.Logger = nil

	e, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	e.beforeAsset = func(name string) {
		if name == "orders" {
			<-release
		}
	}

	res, err := e.Run(context.Background())
	require.NoError(t, err)

	orders := verdictOf(t, res, "orders")
	assert.Equal(t, core.StatusFail, orders.Status)
	assert.True(t, hasCode(orders, core.CodeTimeout))
	assert.False(t, res.ValidationSummary.Incomplete)
	assert.NotEqual(t, core.StatusFail, verdictOf(t, res, "customers").Status)

	for _, p := range res.Artifacts.DDLPaths {
		assert.NotContains(t, p, "orders")
	}
	assert.Contains(t, res.Artifacts.DDLPaths, filepath.Join(cfg.OutputPath, "converted", "ddl", "0003_customer_totals.sql"))
}

func TestRun_AssetTimeoutCoversParsing(t *testing.T) {
	cfg := setupShop(t, nil)
	cfg.AssetTimeout = 50 * time.Millisecond
	cfg.Logger = nil

	e, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	e.beforeParse = func(name string) {
		if name == "customer_totals" {
			<-release
		}
	}
	var rewritten []string
	var mu sync.Mutex
	e.beforeAsset = func(name string) {
		mu.Lock()
		defer mu.Unlock()
		rewritten = append(rewritten, name)
	}

	res, err := e.Run(context.Background())
	require.NoError(t, err)

	view := verdictOf(t, res, "customer_totals")
	assert.Equal(t, core.StatusFail, view.Status)
	assert.True(t, hasCode(view, core.CodeTimeout))
	assert.False(t, hasCode(view, core.CodeParseError))
	assert.NotContains(t, rewritten, "customer_totals")
	assert.NotEqual(t, core.StatusFail, verdictOf(t, res, "orders").Status)

	for _, p := range res.Artifacts.DDLPaths {
		assert.NotContains(t, p, "customer_totals")
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	cfg := setupShop(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := RunMigration(ctx, cfg)
	require.NoError(t, err)

	assert.True(t, res.ValidationSummary.Incomplete)
	assert.Equal(t, core.StatusFail, res.ValidationSummary.Status)
	assert.Equal(t, 4, res.ValidationSummary.Counts.Fail)
	for _, v := range res.Summary.Verdicts {
		assert.True(t, hasCode(v, core.CodeCancelled), v.Asset)
	}
	assert.Empty(t, res.Artifacts.DDLPaths)
	assert.FileExists(t, res.Artifacts.ReportPath)
}

func TestRun_CancelledMidRun(t *testing.T) {
	cfg := setupShop(t, nil)
	cfg.Workers = 1

	e, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.beforeAsset = func(name string) {
		if name == "customers" {
			cancel()
		}
	}

	res, err := e.Run(ctx)
	require.NoError(t, err)

	assert.True(t, res.ValidationSummary.Incomplete)
	assert.False(t, hasCode(verdictOf(t, res, "customers"), core.CodeCancelled), "in-flight asset finishes")
	assert.True(t, hasCode(verdictOf(t, res, "customer_totals"), core.CodeCancelled))
	assert.True(t, hasCode(verdictOf(t, res, "top_customers"), core.CodeCancelled))
	assert.FileExists(t, filepath.Join(cfg.OutputPath, "converted", "ddl", "0001_customers.sql"))
}

func TestRun_RecordsState(t *testing.T) {
	cfg := setupShop(t, nil)
	cfg.StatePath = filepath.Join(t.TempDir(), "state", "runs.db")

	res, err := RunMigration(context.Background(), cfg)
	require.NoError(t, err)

	store := state.NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(cfg.StatePath))
	defer func() { _ = store.Close() }()

	run, err := store.GetRun(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, state.RunStatusCompleted, run.Status)
	assert.Equal(t, res.ValidationSummary.Counts, run.Counts)
	assert.Equal(t, "snowflake", run.TargetDialect)
	assert.NotNil(t, run.CompletedAt)

	history, err := store.AssetHistory(context.Background(), "orders")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, res.RunID, history[0].RunID)
}

func TestNew_Oracle(t *testing.T) {
	t.Run("no oracle for target", func(t *testing.T) {
		cfg := setupShop(t, nil)
		logger, rec := testutil.NewRecorder()
		cfg.Logger = logger
		cfg.Oracle = true

		e, err := New(cfg)
		require.NoError(t, err)
		assert.Nil(t, e.duck)
		require.NoError(t, e.Close())
		assert.Contains(t, rec.Messages(slog.LevelWarn), "no grammar oracle for target")
	})

	t.Run("postgres", func(t *testing.T) {
		cfg := setupShop(t, nil)
		cfg.Oracle = true
		cfg.TargetDialect = "postgres"

		res, err := RunMigration(context.Background(), cfg)
		require.NoError(t, err)
		assert.Equal(t, 4, res.ValidationSummary.Total)
	})

	t.Run("duckdb", func(t *testing.T) {
		cfg := setupShop(t, nil)
		cfg.Oracle = true
		cfg.TargetDialect = "duckdb"

		e, err := New(cfg)
		require.NoError(t, err)
		require.NotNil(t, e.duck)

		res, err := e.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 4, res.ValidationSummary.Total)
		assert.NotEqual(t, core.StatusFail, verdictOf(t, res, "top_customers").Status)

		require.NoError(t, e.Close())
		assert.Nil(t, e.duck)
	})
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "sales.orders", fileName("sales.orders"))
	assert.Equal(t, "a_b", fileName("a/b"))
	assert.Equal(t, "a_b", fileName(`a\b`))
}

func TestProjectName(t *testing.T) {
	assert.Equal(t, "legacy", projectName(filepath.Join("assets", "legacy")))
	assert.Equal(t, "schema", projectName(filepath.Join("assets", "schema.sql")))
}
