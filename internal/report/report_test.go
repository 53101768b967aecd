package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/token"
)

func sampleData() Data {
	orders := core.NewVerdict("orders", core.KindTable)
	report := core.NewVerdict("daily_sales", core.KindStoredQuery)
	report.Add(core.Finding{
		Code:     core.CodeLossyFunctionMapping,
		Severity: core.SeverityWarning,
		Message:  "DATE_TRUNC maps lossily",
		Pos:      token.Position{Line: 2, Column: 3},
		NoteRef:  string(core.CodeLossyFunctionMapping),
	})
	return Data{
		RunID:         "run-1",
		InputPath:     "assets/legacy",
		LegacyDialect: "postgres",
		TargetDialect: "snowflake",
		Generated:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Tables:        1,
		Queries:       1,
		Summary:       core.Summarize([]*core.Verdict{orders, report}, false),
	}
}

func TestRender(t *testing.T) {
	out := Render(sampleData())

	assert.Contains(t, out, "# Migration Report\n")
	assert.Contains(t, out, "Generated: 2026-03-01T12:00:00Z")
	assert.Contains(t, out, "- Objects parsed: 1 (1 tables, 0 views)")
	assert.Contains(t, out, "- Queries parsed: 1")
	assert.Contains(t, out, "- Validation status: Warn")
	assert.Contains(t, out, `"warn": 1`)
	assert.Contains(t, out, `"total": 2`)
	assert.Contains(t, out, "| daily_sales | query | Warn | 1 |")
	assert.Contains(t, out, "| orders | table | Pass | 0 |")
	assert.Contains(t, out, "### daily_sales")
	assert.Contains(t, out, "- **warn** `LossyFunctionMapping` (2:3) DATE_TRUNC maps lossily")
	assert.NotContains(t, out, "### orders")
	assert.NotContains(t, out, "interrupted")
}

func TestRender_Empty(t *testing.T) {
	out := Render(Data{LegacyDialect: "postgres", TargetDialect: "duckdb"})

	assert.Contains(t, out, "- Validation status: Pass")
	assert.NotContains(t, out, "| Asset |")
	assert.NotContains(t, out, "## Findings")
}

func TestRender_Incomplete(t *testing.T) {
	d := sampleData()
	d.Summary = core.Summarize(d.Summary.Verdicts, true)
	d.ParseErrors = 2

	out := Render(d)
	assert.Contains(t, out, "- Parse errors: 2")
	assert.Contains(t, out, "Run was interrupted")
	assert.Contains(t, out, `"incomplete": true`)
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", FileName)
	require.NoError(t, Write(path, sampleData()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Render(sampleData()), string(data))
}
