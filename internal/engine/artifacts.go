package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leapstack-labs/leapmigrate/internal/lineage"
	"github.com/leapstack-labs/leapmigrate/internal/report"
	"github.com/leapstack-labs/leapmigrate/internal/scaffold"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/dialect"
	"github.com/leapstack-labs/leapmigrate/pkg/format"
)

// Directories and files under the output path.
const (
	LineageDir    = "lineage"
	DDLDir        = "converted/ddl"
	QueriesDir    = "converted/queries"
	ScaffoldDir   = "converted/dbt_project"
	ValidationDir = "validation"
	SchemaFile    = "schema.sql"
	SummaryFile   = "summary.json"
)

type writer struct {
	root   string
	target *dialect.Dialect
}

func (w *writer) path(parts ...string) string {
	return filepath.Join(append([]string{w.root}, parts...)...)
}

func (w *writer) writeAll(e *Engine, lin *lineage.Result, outcomes []outcome, summary *core.RunSummary, result *RunResult) error {
	lineageDir := w.path(LineageDir)
	if err := lin.Write(lineageDir); err != nil {
		return err
	}
	result.Artifacts.LineagePath = lineageDir

	ddl, schema, err := w.writeDDL(lin, outcomes)
	if err != nil {
		return err
	}
	result.Artifacts.DDLPaths = ddl
	result.Artifacts.SchemaPath = schema

	queries, err := w.writeQueries(lin, outcomes)
	if err != nil {
		return err
	}
	result.Artifacts.QueryPaths = queries

	if err := w.writeVerdicts(summary); err != nil {
		return err
	}

	project, err := scaffold.Write(w.path(filepath.FromSlash(ScaffoldDir)), w.project(e.cfg.ProjectName, lin, outcomes))
	if err != nil {
		return err
	}
	result.Artifacts.ScaffoldProjectPath = project

	reportPath := w.path(report.FileName)
	if err := report.Write(reportPath, reportData(result.RunID, e.cfg, lin, summary)); err != nil {
		return err
	}
	result.Artifacts.ReportPath = reportPath
	return nil
}

// writeDDL writes one numbered file per translated table or view and the
// concatenated schema.sql. NNNN is the asset's position in emission order,
// so assets without a translation leave a gap.
func (w *writer) writeDDL(lin *lineage.Result, outcomes []outcome) ([]string, string, error) {
	dir := w.path(filepath.FromSlash(DDLDir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("failed to create ddl directory: %w", err)
	}

	paths := []string{}
	var schema strings.Builder
	for pos, i := range lin.DDLOrder {
		tr := outcomes[i].translation
		if tr == nil {
			continue
		}
		sql := statement(tr.SQL)
		path := filepath.Join(dir, fmt.Sprintf("%04d_%s.sql", pos+1, fileName(lin.Assets[i].Name)))
		if err := writeFile(path, sql); err != nil {
			return nil, "", err
		}
		paths = append(paths, path)

		if schema.Len() > 0 {
			schema.WriteString("\n")
		}
		fmt.Fprintf(&schema, "-- %s\n%s", lin.Assets[i].Name, sql)
	}

	schemaPath := filepath.Join(dir, SchemaFile)
	if err := writeFile(schemaPath, schema.String()); err != nil {
		return nil, "", err
	}
	return paths, schemaPath, nil
}

func (w *writer) writeQueries(lin *lineage.Result, outcomes []outcome) ([]string, error) {
	dir := w.path(filepath.FromSlash(QueriesDir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create queries directory: %w", err)
	}

	paths := []string{}
	for _, i := range lin.Order {
		asset := lin.Assets[i]
		tr := outcomes[i].translation
		if asset.Kind != core.KindStoredQuery || tr == nil {
			continue
		}
		path := filepath.Join(dir, fileName(asset.Name)+".sql")
		if err := writeFile(path, statement(tr.SQL)); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (w *writer) writeVerdicts(summary *core.RunSummary) error {
	dir := w.path(ValidationDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create validation directory: %w", err)
	}
	for _, v := range summary.Verdicts {
		if err := writeJSON(filepath.Join(dir, fileName(v.Asset)+".json"), v); err != nil {
			return err
		}
	}
	return writeJSON(filepath.Join(dir, SummaryFile), summary)
}

// project turns translated views and queries into models and the legacy
// tables into sources.
func (w *writer) project(name string, lin *lineage.Result, outcomes []outcome) scaffold.Project {
	p := scaffold.Project{Name: name, TargetDialect: w.target.Name}
	for _, i := range lin.Order {
		asset := lin.Assets[i]
		switch asset.Kind {
		case core.KindTable:
			if lin.Stmts[i] == nil {
				continue
			}
			src := scaffold.Source{Name: scaffold.FileName(asset.Name)}
			if t, ok := lin.Schema.Lookup(tableKey(lin.Stmts[i])); ok {
				src.Columns = t.Columns
			}
			p.Sources = append(p.Sources, src)
		case core.KindView, core.KindStoredQuery:
			o := outcomes[i]
			if o.translation == nil {
				continue
			}
			m := scaffold.Model{
				Name:         asset.Name,
				Materialized: "view",
				SQL:          w.modelSQL(o.translation.AST, o.translation.SQL),
				Description:  fmt.Sprintf("Migrated %s %s; validation %s.", asset.Kind, asset.Name, o.verdict.Status),
			}
			if asset.Kind == core.KindStoredQuery {
				m.Materialized = "ephemeral"
			}
			for _, c := range lin.Columns[i] {
				if c.Name != "" && c.Name != "*" {
					m.Columns = append(m.Columns, c.Name)
				}
			}
			for _, parent := range lin.Graph.Parents(i) {
				if parent == i {
					continue
				}
				if lin.Assets[parent].Kind == core.KindTable {
					m.Sources = append(m.Sources, scaffold.FileName(lin.Assets[parent].Name))
				} else {
					m.Refs = append(m.Refs, lin.Assets[parent].Name)
				}
			}
			p.Models = append(p.Models, m)
		}
	}
	return p
}

// modelSQL returns the SELECT a model is built from. Views contribute their
// body, queries their whole text.
func (w *writer) modelSQL(stmt core.Stmt, sql string) string {
	if view, ok := stmt.(*core.CreateViewStmt); ok && view.Select != nil {
		return format.Format(view.Select, w.target)
	}
	return sql
}

func tableKey(stmt core.Stmt) string {
	if ct, ok := stmt.(*core.CreateTableStmt); ok && ct.Name != nil {
		return ct.Name.Key()
	}
	return ""
}

func reportData(runID string, cfg Config, lin *lineage.Result, summary *core.RunSummary) report.Data {
	d := report.Data{
		RunID:         runID,
		InputPath:     cfg.InputPath,
		LegacyDialect: cfg.LegacyDialect,
		TargetDialect: cfg.TargetDialect,
		Generated:     time.Now(),
		ParseErrors:   len(lin.ParseErrors),
		Summary:       summary,
	}
	for i, a := range lin.Assets {
		if lin.Stmts[i] == nil {
			continue
		}
		switch a.Kind {
		case core.KindTable:
			d.Tables++
		case core.KindView:
			d.Views++
		case core.KindStoredQuery:
			d.Queries++
		}
	}
	return d
}

// statement terminates printed SQL with a semicolon.
func statement(sql string) string {
	return strings.TrimRight(sql, "\n; ") + ";\n"
}

// fileName keeps asset names from escaping their directory.
func fileName(name string) string {
	return strings.NewReplacer("/", "_", `\`, "_", string(filepath.Separator), "_").Replace(name)
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	return writeFile(path, string(append(data, '\n')))
}
