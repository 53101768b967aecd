package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmigrate/internal/cli/config"
	"github.com/leapstack-labs/leapmigrate/internal/cli/testutil"
	"github.com/leapstack-labs/leapmigrate/internal/engine"
	"github.com/leapstack-labs/leapmigrate/internal/lineage"
	roottestutil "github.com/leapstack-labs/leapmigrate/internal/testutil"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
)

func testConfig(t *testing.T, format string) *config.Config {
	t.Helper()
	dir := testutil.SetupTestProject(t)
	cfg := config.GetConfig(context.Background())
	cfg.InputPath = filepath.Join(dir, "legacy")
	cfg.OutputPath = filepath.Join(dir, "out")
	cfg.StatePath = filepath.Join(dir, ".leapmigrate", "state.db")
	cfg.OutputFormat = format
	return cfg
}

func execute(t *testing.T, cmd *cobra.Command, cfg *config.Config, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	ctx := config.WithConfig(context.Background(), cfg)
	err := cmd.ExecuteContext(ctx)
	return out.String() + errOut.String(), err
}

func TestCommandConstruction(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewMigrateCommand(), "migrate", []string{"watch", "strict"}},
		{NewTranslateCommand(), "translate [file|-]", nil},
		{NewLineageCommand(), "lineage [asset]", nil},
		{NewDialectsCommand(), "dialects [name]", nil},
		{NewRunsCommand(), "runs [id]", []string{"limit", "asset"}},
		{NewServeCommand(), "serve", nil},
		{NewVersionCommand(), "version", nil},
	}
	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			for _, f := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(f), "flag %q should exist", f)
			}
		})
	}
}

func TestMigrate_JSON(t *testing.T) {
	cfg := testConfig(t, "json")

	out, err := execute(t, NewMigrateCommand(), cfg, "")
	require.NoError(t, err)

	var got struct {
		RunID             string                   `json:"run_id"`
		Artifacts         engine.Artifacts         `json:"artifacts"`
		ValidationSummary engine.ValidationSummary `json:"validation_summary"`
		Verdicts          []*core.Verdict          `json:"verdicts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.NotEmpty(t, got.RunID)
	assert.Len(t, got.Artifacts.DDLPaths, 3)
	assert.Len(t, got.Verdicts, 4)
	assert.Equal(t, 4, got.ValidationSummary.Total)
	assert.FileExists(t, cfg.StatePath)
}

func TestMigrate_Markdown(t *testing.T) {
	cfg := testConfig(t, "markdown")

	out, err := execute(t, NewMigrateCommand(), cfg, "")
	require.NoError(t, err)

	testutil.AssertNoANSI(t, out)
	testutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "# Migration")
	assert.Contains(t, out, "postgres → snowflake")
	assert.Contains(t, out, "customer_totals")
	assert.Contains(t, out, "## Summary")
}

func TestMigrate_Strict(t *testing.T) {
	cfg := testConfig(t, "markdown")
	roottestutil.WriteTree(t, cfg.InputPath, map[string]string{"broken.sql": "SELECT name FROM WHERE;\n"})

	_, err := execute(t, NewMigrateCommand(), cfg, "", "--strict")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationFailed))

	_, err = execute(t, NewMigrateCommand(), cfg, "")
	assert.NoError(t, err, "failures only error under --strict")
}

func TestMigrate_InvalidInput(t *testing.T) {
	cfg := testConfig(t, "json")
	cfg.InputPath = filepath.Join(t.TempDir(), "missing")

	_, err := execute(t, NewMigrateCommand(), cfg, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrInvalidInputPath)
}

func TestTranslate_Stdin(t *testing.T) {
	cfg := testConfig(t, "json")
	cfg.TargetDialect = "mysql"

	out, err := execute(t, NewTranslateCommand(), cfg, "CREATE TABLE t (id SERIAL PRIMARY KEY, tags TEXT);")
	require.NoError(t, err)

	var got []TranslateOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Translation)
	assert.Contains(t, got[0].Translation.SQL, "AUTO_INCREMENT")
	assert.Equal(t, "t", got[0].Verdict.Asset)
	assert.Equal(t, core.StatusWarn, got[0].Verdict.Status)
	require.NotEmpty(t, got[0].Translation.Notes)
	assert.Equal(t, core.CodeLossyAutoIncrement, got[0].Translation.Notes[0].Code)
}

func TestTranslate_File(t *testing.T) {
	cfg := testConfig(t, "markdown")

	out, err := execute(t, NewTranslateCommand(), cfg, "", filepath.Join(cfg.InputPath, "views.sql"))
	require.NoError(t, err)
	testutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "```sql")
	assert.Contains(t, out, "customer_totals")
}

func TestTranslate_Empty(t *testing.T) {
	cfg := testConfig(t, "json")

	_, err := execute(t, NewTranslateCommand(), cfg, "  \n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no statements found")
}

func TestLineage(t *testing.T) {
	cfg := testConfig(t, "json")

	out, err := execute(t, NewLineageCommand(), cfg, "")
	require.NoError(t, err)

	var doc lineage.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, []string{"customers", "orders", "customer_totals"}, doc.DDLOrder)
	assert.Len(t, doc.Nodes, 4)
}

func TestLineage_Asset(t *testing.T) {
	cfg := testConfig(t, "json")

	out, err := execute(t, NewLineageCommand(), cfg, "", "customer_totals")
	require.NoError(t, err)

	var got AssetLineageOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "view", got.Kind)
	assert.Equal(t, []string{"customers", "orders"}, got.Upstream)
	assert.Equal(t, []string{"top_customers"}, got.Downstream)

	_, err = execute(t, NewLineageCommand(), cfg, "", "nope")
	assert.Error(t, err)
}

func TestDialects(t *testing.T) {
	cfg := testConfig(t, "json")

	out, err := execute(t, NewDialectsCommand(), cfg, "")
	require.NoError(t, err)

	var got []DialectInfo
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	names := make([]string, 0, len(got))
	for _, d := range got {
		names = append(names, d.Name)
	}
	assert.Subset(t, names, []string{"postgres", "mysql", "snowflake", "duckdb"})

	cfg.OutputFormat = "markdown"
	out, err = execute(t, NewDialectsCommand(), cfg, "", "mysql")
	require.NoError(t, err)
	assert.Contains(t, out, "mysql: quote `")

	_, err = execute(t, NewDialectsCommand(), cfg, "", "cobol")
	assert.Error(t, err)
}

func TestRuns(t *testing.T) {
	cfg := testConfig(t, "json")

	out, err := execute(t, NewRunsCommand(), cfg, "")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded yet.")

	_, err = execute(t, NewMigrateCommand(), cfg, "")
	require.NoError(t, err)

	out, err = execute(t, NewRunsCommand(), cfg, "")
	require.NoError(t, err)
	var runs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "completed", runs[0]["status"])

	id, _ := runs[0]["id"].(string)
	out, err = execute(t, NewRunsCommand(), cfg, "", id)
	require.NoError(t, err)
	assert.Contains(t, out, id)

	out, err = execute(t, NewRunsCommand(), cfg, "", "--asset", "orders")
	require.NoError(t, err)
	assert.Contains(t, out, `"asset": "orders"`)
}

func TestVersion(t *testing.T) {
	cfg := testConfig(t, "json")

	out, err := execute(t, NewVersionCommand(), cfg, "")
	require.NoError(t, err)

	var info VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}

func TestWatchDir(t *testing.T) {
	cfg := testConfig(t, "json")

	assert.Equal(t, cfg.InputPath, watchDir(cfg.InputPath))
	assert.Equal(t, cfg.InputPath, watchDir(filepath.Join(cfg.InputPath, "tables.sql")))
}

