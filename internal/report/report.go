// Package report renders the human-readable migration report.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
)

// FileName is the report's name under the output directory.
const FileName = "report.md"

// Data is everything the report shows.
type Data struct {
	RunID         string
	InputPath     string
	LegacyDialect string
	TargetDialect string
	Generated     time.Time

	// Assets parsed per kind, and how many statements failed to parse.
	Tables      int
	Views       int
	Queries     int
	ParseErrors int

	Summary *core.RunSummary
}

var title = cases.Title(language.English)

// Render returns the report as Markdown.
func Render(d Data) string {
	var b strings.Builder

	b.WriteString("# Migration Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", d.Generated.UTC().Format(time.RFC3339))
	if d.RunID != "" {
		fmt.Fprintf(&b, "Run: `%s`\n\n", d.RunID)
	}

	b.WriteString("## Summary\n\n")
	if d.InputPath != "" {
		fmt.Fprintf(&b, "- Input: `%s`\n", d.InputPath)
	}
	fmt.Fprintf(&b, "- Dialects: %s → %s\n", d.LegacyDialect, d.TargetDialect)
	fmt.Fprintf(&b, "- Objects parsed: %d (%d tables, %d views)\n", d.Tables+d.Views, d.Tables, d.Views)
	fmt.Fprintf(&b, "- Queries parsed: %d\n", d.Queries)
	if d.ParseErrors > 0 {
		fmt.Fprintf(&b, "- Parse errors: %d\n", d.ParseErrors)
	}

	summary := d.Summary
	if summary == nil {
		summary = core.Summarize(nil, false)
	}
	fmt.Fprintf(&b, "- Validation status: %s\n", title.String(summary.Status.String()))
	if summary.Incomplete {
		b.WriteString("- Run was interrupted; some assets were not processed.\n")
	}
	b.WriteString("\n")

	b.WriteString("## Validation\n\n")
	counts, _ := json.MarshalIndent(struct {
		Status core.Status `json:"status"`
		core.Counts
		Total      int  `json:"total"`
		Incomplete bool `json:"incomplete"`
	}{summary.Status, summary.Counts, summary.Counts.Total(), summary.Incomplete}, "", "  ")
	b.WriteString("```json\n")
	b.Write(counts)
	b.WriteString("\n```\n\n")

	if len(summary.Verdicts) == 0 {
		return b.String()
	}

	b.WriteString("| Asset | Kind | Status | Findings |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, v := range summary.Verdicts {
		fmt.Fprintf(&b, "| %s | %s | %s | %d |\n", cell(v.Asset), v.Kind, title.String(v.Status.String()), len(v.Findings))
	}

	var detailed bool
	for _, v := range summary.Verdicts {
		if len(v.Findings) == 0 {
			continue
		}
		if !detailed {
			b.WriteString("\n## Findings\n")
			detailed = true
		}
		fmt.Fprintf(&b, "\n### %s\n\n", v.Asset)
		for _, f := range v.Findings {
			fmt.Fprintf(&b, "- **%s** `%s` (%d:%d) %s\n", f.Severity, f.Code, f.Pos.Line, f.Pos.Column, f.Message)
		}
	}
	return b.String()
}

// Write renders the report to path.
func Write(path string, d Data) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(Render(d)), 0o600); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
