package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmigrate/internal/cli/testutil"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRoot_Subcommands(t *testing.T) {
	cmd := NewRootCmd()
	want := []string{"migrate", "translate", "lineage", "dialects", "runs", "serve", "version", "completion"}
	for _, name := range want {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestRoot_MigrateWithFlags(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, _, err := run(t, "migrate",
		"--input", "legacy", "--out", "out", "--to", "duckdb", "--state", "", "-o", "json")
	require.NoError(t, err)

	var res struct {
		TargetDialect string `json:"target_dialect"`
		Artifacts     struct {
			Report string `json:"report"`
		} `json:"artifacts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "duckdb", res.TargetDialect)
	assert.FileExists(t, filepath.Join(dir, "out", "report.md"))
	assert.NoDirExists(t, filepath.Join(dir, ".leapmigrate"))
}

func TestRoot_ConfigFile(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	cfgPath := filepath.Join(dir, "leapmigrate.yaml")
	writeFile(t, cfgPath, "input_path: legacy\noutput_path: build\ntarget_dialect: mysql\nstate_path: \"\"\n")

	out, _, err := run(t, "migrate", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"target_dialect": "mysql"`)
	assert.DirExists(t, filepath.Join(dir, "build", "converted"))
}

func TestRoot_InvalidConfig(t *testing.T) {
	testutil.SetupTestProject(t)

	_, _, err := run(t, "dialects", "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")

	_, _, err = run(t, "dialects", "-o", "yaml")
	require.Error(t, err)
}

func TestRoot_HelpSkipsConfig(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	writeFile(t, filepath.Join(dir, "leapmigrate.yaml"), "workers: -1\n")

	out, _, err := run(t, "help")
	require.NoError(t, err)
	assert.Contains(t, out, "leapmigrate")

	_, _, err = run(t, "version")
	assert.Error(t, err, "other commands load the invalid config")
}

func TestRoot_Completion(t *testing.T) {
	out, _, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "leapmigrate")

	_, _, err = run(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestSupportedDialects(t *testing.T) {
	assert.Contains(t, supportedDialects(), "postgres")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}
