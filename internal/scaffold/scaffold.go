// Package scaffold writes a dbt-style project skeleton around translated
// views and queries. Legacy tables become sources; every view and stored
// query becomes a model whose SQL is the translated SELECT.
package scaffold

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceName is the dbt source that groups the legacy tables.
const SourceName = "legacy"

// Model is one translated view or query.
type Model struct {
	Name string
	// Materialized is "view" for legacy views and "ephemeral" for stored
	// queries.
	Materialized string
	SQL          string
	Description  string
	Columns      []string
	// Refs are the models this one reads; Sources the legacy tables.
	Refs    []string
	Sources []string
}

// Source is one legacy table.
type Source struct {
	Name    string
	Columns []string
}

// Project is the content of a scaffold.
type Project struct {
	Name          string
	TargetDialect string
	Models        []Model
	Sources       []Source
}

type projectYAML struct {
	Name          string                    `yaml:"name"`
	Version       string                    `yaml:"version"`
	ConfigVersion int                       `yaml:"config-version"`
	Profile       string                    `yaml:"profile"`
	ModelPaths    []string                  `yaml:"model-paths"`
	Vars          map[string]string         `yaml:"vars,omitempty"`
	Models        map[string]map[string]any `yaml:"models"`
}

type schemaYAML struct {
	Version int         `yaml:"version"`
	Models  []modelYAML `yaml:"models,omitempty"`
}

type modelYAML struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Config      *configYAML  `yaml:"config,omitempty"`
	Columns     []columnYAML `yaml:"columns,omitempty"`
}

type configYAML struct {
	Materialized string `yaml:"materialized"`
}

type columnYAML struct {
	Name string `yaml:"name"`
}

type sourcesYAML struct {
	Version int          `yaml:"version"`
	Sources []sourceYAML `yaml:"sources"`
}

type sourceYAML struct {
	Name   string      `yaml:"name"`
	Tables []modelYAML `yaml:"tables"`
}

// Write creates the project under dir and returns dir. Existing files with
// the same names are overwritten.
func Write(dir string, p Project) (string, error) {
	if p.Name == "" {
		return "", fmt.Errorf("scaffold: project name is required")
	}
	modelsDir := filepath.Join(dir, "models")
	if err := os.MkdirAll(modelsDir, 0o750); err != nil {
		return "", fmt.Errorf("scaffold: %w", err)
	}

	name := ProjectName(p.Name)
	project := projectYAML{
		Name:          name,
		Version:       "1.0.0",
		ConfigVersion: 2,
		Profile:       name,
		ModelPaths:    []string{"models"},
		Models:        map[string]map[string]any{name: {"+materialized": "view"}},
	}
	if p.TargetDialect != "" {
		project.Vars = map[string]string{"target_dialect": p.TargetDialect}
	}
	if err := writeYAML(filepath.Join(dir, "dbt_project.yml"), project); err != nil {
		return "", err
	}

	models := append([]Model(nil), p.Models...)
	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })

	schema := schemaYAML{Version: 2}
	for _, m := range models {
		file := FileName(m.Name) + ".sql"
		if err := os.WriteFile(filepath.Join(modelsDir, file), []byte(modelSQL(m)), 0o600); err != nil {
			return "", fmt.Errorf("scaffold: %w", err)
		}
		entry := modelYAML{Name: FileName(m.Name), Description: m.Description, Columns: columns(m.Columns)}
		if m.Materialized != "" {
			entry.Config = &configYAML{Materialized: m.Materialized}
		}
		schema.Models = append(schema.Models, entry)
	}
	if err := writeYAML(filepath.Join(modelsDir, "schema.yml"), schema); err != nil {
		return "", err
	}

	sources := append([]Source(nil), p.Sources...)
	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })
	src := sourceYAML{Name: SourceName, Tables: []modelYAML{}}
	for _, s := range sources {
		src.Tables = append(src.Tables, modelYAML{Name: s.Name, Columns: columns(s.Columns)})
	}
	if err := writeYAML(filepath.Join(modelsDir, "sources.yml"), sourcesYAML{Version: 2, Sources: []sourceYAML{src}}); err != nil {
		return "", err
	}
	return dir, nil
}

// modelSQL prefixes the translated SQL with dbt dependency hints so the DAG
// is known without rewriting table names into ref() calls.
func modelSQL(m Model) string {
	var b strings.Builder
	for _, ref := range m.Refs {
		fmt.Fprintf(&b, "-- depends_on: {{ ref('%s') }}\n", FileName(ref))
	}
	for _, s := range m.Sources {
		fmt.Fprintf(&b, "-- depends_on: {{ source('%s', '%s') }}\n", SourceName, s)
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(strings.TrimRight(m.SQL, "\n"))
	b.WriteString("\n")
	return b.String()
}

func columns(names []string) []columnYAML {
	out := make([]columnYAML, 0, len(names))
	for _, n := range names {
		out = append(out, columnYAML{Name: n})
	}
	return out
}

func writeYAML(path string, v any) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("scaffold: encode %s: %w", filepath.Base(path), err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("scaffold: encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("scaffold: %w", err)
	}
	return nil
}

// ProjectName turns a free-form name into a dbt project identifier:
// lowercase letters, digits and underscores, not starting with a digit.
func ProjectName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "migration"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "p_" + out
	}
	return out
}

// FileName maps an asset name to a file stem that is safe on every
// platform. Dots of qualified names become underscores.
func FileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '.', ' ':
			return '_'
		}
		return r
	}, name)
}
