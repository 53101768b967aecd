package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmigrate/internal/engine"
	"github.com/leapstack-labs/leapmigrate/internal/state"
	"github.com/leapstack-labs/leapmigrate/internal/testutil"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/dialect"
)

// =============================================================================
// Test Setup Helpers
// =============================================================================

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// =============================================================================
// Health
// =============================================================================

func TestHealth(t *testing.T) {
	s := NewServer(Config{Logger: testutil.NewTestLogger(t)})
	rec := do(t, s, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

// =============================================================================
// Migrate
// =============================================================================

func TestMigrate_RequestDefaults(t *testing.T) {
	tests := []struct {
		name string
		body string
		want MigrateRequest
	}{
		{
			name: "empty body uses defaults",
			want: MigrateRequest{DefaultInputPath, DefaultOutputPath, DefaultLegacyDialect, DefaultTargetDialect},
		},
		{
			name: "empty object uses defaults",
			body: `{}`,
			want: MigrateRequest{DefaultInputPath, DefaultOutputPath, DefaultLegacyDialect, DefaultTargetDialect},
		},
		{
			name: "fields override defaults",
			body: `{"input_path":"in","target_dialect":"duckdb"}`,
			want: MigrateRequest{"in", DefaultOutputPath, DefaultLegacyDialect, "duckdb"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got engine.Config
			s := NewServer(Config{
				Engine: engine.Config{Workers: 3, AssetTimeout: time.Second},
				Run: func(_ context.Context, cfg engine.Config) (*engine.RunResult, error) {
					got = cfg
					return &engine.RunResult{RunID: "r1", InputPath: cfg.InputPath}, nil
				},
			})

			rec := do(t, s, http.MethodPost, "/api/migrate", tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			assert.Equal(t, tt.want, MigrateRequest{got.InputPath, got.OutputPath, got.LegacyDialect, got.TargetDialect})
			assert.Equal(t, 3, got.Workers)
			assert.Equal(t, time.Second, got.AssetTimeout)
			assert.NotNil(t, got.Logger)
		})
	}
}

func TestMigrate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{"malformed body", `{"input_path":`, nil, http.StatusBadRequest},
		{"unknown field", `{"warehouse":"snowflake"}`, nil, http.StatusBadRequest},
		{"invalid input path", `{}`, fmt.Errorf("%w: nope", engine.ErrInvalidInputPath), http.StatusBadRequest},
		{"unsupported dialect", `{}`, &dialect.UnsupportedDialectError{Name: "oracle"}, http.StatusBadRequest},
		{"internal error", `{}`, errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(Config{
				Run: func(context.Context, engine.Config) (*engine.RunResult, error) {
					return nil, tt.err
				},
			})

			rec := do(t, s, http.MethodPost, "/api/migrate", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body errorResponse
			decode(t, rec, &body)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestMigrate_RunsEngine(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "legacy")
	testutil.WriteTree(t, input, testutil.LegacyShop)

	s := NewServer(Config{Logger: testutil.NewTestLogger(t)})
	body := fmt.Sprintf(`{"input_path":%q,"output_path":%q,"target_dialect":"duckdb"}`, input, filepath.Join(root, "out"))
	rec := do(t, s, http.MethodPost, "/api/migrate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		RunID         string `json:"run_id"`
		InputPath     string `json:"input_path"`
		TargetDialect string `json:"target_dialect"`
		Artifacts     struct {
			DDL        []string `json:"ddl"`
			Queries    []string `json:"queries"`
			DBTProject string   `json:"dbt_project"`
			Report     string   `json:"report"`
		} `json:"artifacts"`
		ValidationSummary struct {
			Status string         `json:"status"`
			Counts map[string]int `json:"counts"`
			Total  int            `json:"total"`
		} `json:"validation_summary"`
	}
	decode(t, rec, &res)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, input, res.InputPath)
	assert.Equal(t, "duckdb", res.TargetDialect)
	assert.Len(t, res.Artifacts.DDL, 3)
	assert.Len(t, res.Artifacts.Queries, 1)
	assert.FileExists(t, res.Artifacts.Report)
	assert.DirExists(t, res.Artifacts.DBTProject)
	assert.Equal(t, 4, res.ValidationSummary.Total)
	assert.Contains(t, []string{"pass", "warn", "fail"}, res.ValidationSummary.Status)
}

func TestDialects(t *testing.T) {
	s := NewServer(Config{})
	rec := do(t, s, http.MethodGet, "/api/dialects", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]string
	decode(t, rec, &body)
	assert.Contains(t, body["dialects"], "postgres")
	assert.Contains(t, body["dialects"], "snowflake")
}

// =============================================================================
// Run history
// =============================================================================

func setupStore(t *testing.T) *state.SQLiteStore {
	t.Helper()
	store := state.NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRuns(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	run := &state.Run{InputPath: "in", OutputPath: "out", LegacyDialect: "postgres", TargetDialect: "snowflake"}
	require.NoError(t, store.CreateRun(ctx, run))
	summary := core.Summarize([]*core.Verdict{core.NewVerdict("orders", core.KindTable)}, false)
	require.NoError(t, store.CompleteRun(ctx, run.ID, state.RunStatusCompleted, summary, ""))

	s := NewServer(Config{Store: store})

	rec := do(t, s, http.MethodGet, "/api/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []state.Run
	decode(t, rec, &runs)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)

	rec = do(t, s, http.MethodGet, "/api/runs/"+run.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got state.Run
	decode(t, rec, &got)
	assert.Equal(t, state.RunStatusCompleted, got.Status)
	assert.Equal(t, 1, got.Counts.Pass)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/runs/missing", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/runs?limit=zero", "").Code)
}

func TestRuns_NoStore(t *testing.T) {
	s := NewServer(Config{})
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/runs", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/runs/abc", "").Code)
}

func TestServe_Shutdown(t *testing.T) {
	s := NewServer(Config{Addr: "127.0.0.1:0", Logger: testutil.NewTestLogger(t)})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
