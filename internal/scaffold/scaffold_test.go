package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dbt_project")
	p := Project{
		Name:          "Legacy Shop",
		TargetDialect: "snowflake",
		Models: []Model{
			{
				Name:         "top_customers",
				Materialized: "ephemeral",
				SQL:          "SELECT\n  name\nFROM customer_totals\n",
				Refs:         []string{"customer_totals"},
				Columns:      []string{"name"},
			},
			{
				Name:         "customer_totals",
				Materialized: "view",
				SQL:          "SELECT\n  c.name\nFROM customers AS c\n",
				Sources:      []string{"customers"},
				Description:  "view customer_totals, validation pass",
				Columns:      []string{"name"},
			},
		},
		Sources: []Source{
			{Name: "orders", Columns: []string{"id", "customer_id"}},
			{Name: "customers", Columns: []string{"id", "name"}},
		},
	}

	got, err := Write(dir, p)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	var project map[string]any
	readYAML(t, filepath.Join(dir, "dbt_project.yml"), &project)
	assert.Equal(t, "legacy_shop", project["name"])
	assert.Equal(t, 2, project["config-version"])
	assert.Equal(t, map[string]any{"target_dialect": "snowflake"}, project["vars"])

	sql, err := os.ReadFile(filepath.Join(dir, "models", "top_customers.sql"))
	require.NoError(t, err)
	assert.Equal(t, "-- depends_on: {{ ref('customer_totals') }}\n\nSELECT\n  name\nFROM customer_totals\n", string(sql))

	sql, err = os.ReadFile(filepath.Join(dir, "models", "customer_totals.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(sql), "{{ source('legacy', 'customers') }}")

	var schema schemaYAML
	readYAML(t, filepath.Join(dir, "models", "schema.yml"), &schema)
	require.Len(t, schema.Models, 2)
	assert.Equal(t, "customer_totals", schema.Models[0].Name)
	assert.Equal(t, "view", schema.Models[0].Config.Materialized)
	assert.Equal(t, "ephemeral", schema.Models[1].Config.Materialized)

	var sources sourcesYAML
	readYAML(t, filepath.Join(dir, "models", "sources.yml"), &sources)
	require.Len(t, sources.Sources, 1)
	assert.Equal(t, SourceName, sources.Sources[0].Name)
	require.Len(t, sources.Sources[0].Tables, 2)
	assert.Equal(t, "customers", sources.Sources[0].Tables[0].Name)
	assert.Equal(t, []columnYAML{{Name: "id"}, {Name: "customer_id"}}, sources.Sources[0].Tables[1].Columns)
}

func TestWrite_EmptyProject(t *testing.T) {
	dir := t.TempDir()
	_, err := Write(dir, Project{Name: "empty"})
	require.NoError(t, err)

	var sources sourcesYAML
	readYAML(t, filepath.Join(dir, "models", "sources.yml"), &sources)
	assert.Empty(t, sources.Sources[0].Tables)

	_, err = Write(dir, Project{})
	assert.Error(t, err)
}

func TestProjectName(t *testing.T) {
	tests := map[string]string{
		"Legacy Shop":  "legacy_shop",
		"run-001":      "run_001",
		"2024 reports": "p_2024_reports",
		"***":          "migration",
		"dbt_project":  "dbt_project",
	}
	for in, want := range tests {
		assert.Equal(t, want, ProjectName(in), in)
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "sales_orders", FileName("sales.orders"))
	assert.Equal(t, "Mixed_Case", FileName("Mixed Case"))
	assert.Equal(t, "a_b", FileName("a/b"))
}

func readYAML(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(data, v))
}
