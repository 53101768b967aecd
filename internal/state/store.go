// Package state records migration run history in SQLite.
//
// Every run gets a row with its inputs, its final status and the pass/warn/
// fail counts of its summary, and one row per asset verdict so an asset's
// status can be followed across runs.
package state

import (
	"context"
	"time"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
)

// RunStatus is the lifecycle status of a run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run is one recorded migration run.
type Run struct {
	ID            string    `json:"id"`
	InputPath     string    `json:"input_path"`
	OutputPath    string    `json:"output_path"`
	LegacyDialect string    `json:"legacy_dialect"`
	TargetDialect string    `json:"target_dialect"`
	Status        RunStatus `json:"status"`
	// Validation is the summary status; empty until the run completes.
	Validation string      `json:"validation_status,omitempty"`
	Counts     core.Counts `json:"counts"`
	Incomplete bool        `json:"incomplete"`
	StartedAt  time.Time   `json:"started_at"`
	// CompletedAt is nil while the run is in progress.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// AssetVerdict is the recorded outcome of one asset in one run.
type AssetVerdict struct {
	RunID    string `json:"run_id"`
	Asset    string `json:"asset"`
	Kind     string `json:"kind"`
	Status   string `json:"status"`
	Findings int    `json:"findings"`
}

// Store persists run history.
type Store interface {
	CreateRun(ctx context.Context, run *Run) error
	CompleteRun(ctx context.Context, id string, status RunStatus, summary *core.RunSummary, errMsg string) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	AssetHistory(ctx context.Context, asset string) ([]AssetVerdict, error)
	Close() error
}
