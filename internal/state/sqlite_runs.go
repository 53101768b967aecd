package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, input_path, output_path, legacy_dialect, target_dialect, status,
	validation_status, pass_count, warn_count, fail_count, incomplete, started_at, completed_at, error`

// CreateRun inserts a running run. An empty ID is replaced by a new UUID and
// a zero StartedAt by the current time.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *Run) error {
	if s.db == nil {
		return ErrNotOpen
	}
	if run.ID == "" {
		run.ID = generateID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.Status = RunStatusRunning

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("input", run.InputPath))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, input_path, output_path, legacy_dialect, target_dialect, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.InputPath, run.OutputPath, run.LegacyDialect, run.TargetDialect, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// CompleteRun finishes a run and records its verdicts. summary may be nil
// when the run failed before validation.
func (s *SQLiteStore) CompleteRun(ctx context.Context, id string, status RunStatus, summary *core.RunSummary, errMsg string) error {
	if s.db == nil {
		return ErrNotOpen
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var (
			validation sql.NullString
			counts     core.Counts
			incomplete bool
		)
		if summary != nil {
			validation = nullString(summary.Status.String())
			counts = summary.Counts
			incomplete = summary.Incomplete
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE runs SET status = ?, validation_status = ?, pass_count = ?, warn_count = ?, fail_count = ?,
			 incomplete = ?, completed_at = ?, error = ? WHERE id = ?`,
			string(status), validation, counts.Pass, counts.Warn, counts.Fail,
			incomplete, time.Now().UTC(), nullString(errMsg), id,
		)
		if err != nil {
			return fmt.Errorf("failed to complete run: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}

		if summary == nil {
			return nil
		}
		for _, v := range summary.Verdicts {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO asset_verdicts (run_id, asset, kind, status, findings) VALUES (?, ?, ?, ?, ?)`,
				id, v.Asset, v.Kind.String(), v.Status.String(), len(v.Findings),
			)
			if err != nil {
				return fmt.Errorf("failed to record verdict for %s: %w", v.Asset, err)
			}
		}
		return nil
	})
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// AssetHistory returns an asset's verdicts across runs, oldest first.
func (s *SQLiteStore) AssetHistory(ctx context.Context, asset string) ([]AssetVerdict, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT v.run_id, v.asset, v.kind, v.status, v.findings
		 FROM asset_verdicts v JOIN runs r ON r.id = v.run_id
		 WHERE v.asset = ? ORDER BY r.started_at, r.id`, asset)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []AssetVerdict
	for rows.Next() {
		var v AssetVerdict
		if err := rows.Scan(&v.RunID, &v.Asset, &v.Kind, &v.Status, &v.Findings); err != nil {
			return nil, fmt.Errorf("failed to scan verdict: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run         Run
		status      string
		validation  sql.NullString
		completedAt sql.NullTime
		errMsg      sql.NullString
	)
	err := row.Scan(&run.ID, &run.InputPath, &run.OutputPath, &run.LegacyDialect, &run.TargetDialect, &status,
		&validation, &run.Counts.Pass, &run.Counts.Warn, &run.Counts.Fail, &run.Incomplete,
		&run.StartedAt, &completedAt, &errMsg)
	if err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	run.Validation = validation.String
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	run.Error = errMsg.String
	return &run, nil
}
