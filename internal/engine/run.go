package engine

// run.go - Two-phase migration: parse and lineage, then rewrite and validate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapmigrate/internal/lineage"
	"github.com/leapstack-labs/leapmigrate/internal/loader"
	"github.com/leapstack-labs/leapmigrate/internal/rewrite"
	"github.com/leapstack-labs/leapmigrate/internal/state"
	"github.com/leapstack-labs/leapmigrate/internal/validate"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
)

// outcome is what phase 2 produced for one asset.
type outcome struct {
	translation *rewrite.Result
	verdict     *core.Verdict
}

// Run executes one migration using a two-phase approach:
// Phase 1: parse every asset and build lineage
// Phase 2: rewrite and validate DDL in emission order, then stored queries
//
// Cancelling ctx stops scheduling. Tasks already running finish, the rest
// receive Cancelled verdicts and the run is reported as incomplete without
// an error.
func (e *Engine) Run(ctx context.Context) (*RunResult, error) {
	runID := uuid.NewString()
	logger := e.logger.With("run_id", runID)
	logger.Info("starting migration",
		"input", e.cfg.InputPath, "legacy_dialect", e.cfg.LegacyDialect, "target_dialect", e.cfg.TargetDialect)

	e.recordStart(ctx, runID)

	assets, err := loader.Load(e.cfg.InputPath, e.grammar)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidInputPath, err)
		e.recordEnd(runID, state.RunStatusFailed, nil, err)
		return nil, err
	}
	logger.Debug("loaded assets", "count", len(assets))

	// Phase 1
	ps, interrupted := e.parseAll(ctx, assets)
	lin := lineage.Build(ps.parsed)
	logger.Debug("built lineage",
		"assets", len(lin.Assets), "edges", lin.Graph.EdgeCount(), "parse_errors", len(lin.ParseErrors))

	// Phase 2
	outcomes := make([]outcome, len(lin.Assets))
	if interrupted {
		for i := range lin.Assets {
			outcomes[i].verdict = cancelled(lin, i)
		}
	} else {
		interrupted = e.processAll(ctx, lin, ps, outcomes)
	}

	verdicts := make([]*core.Verdict, len(outcomes))
	for i, o := range outcomes {
		verdicts[i] = o.verdict
	}
	summary := core.Summarize(verdicts, interrupted)

	result := &RunResult{
		RunID:         runID,
		InputPath:     e.cfg.InputPath,
		OutputPath:    e.cfg.OutputPath,
		LegacyDialect: e.cfg.LegacyDialect,
		TargetDialect: e.cfg.TargetDialect,
		ValidationSummary: ValidationSummary{
			Status:     summary.Status,
			Counts:     summary.Counts,
			Total:      summary.Counts.Total(),
			Incomplete: summary.Incomplete,
		},
		Summary: summary,
	}

	w := &writer{root: e.cfg.OutputPath, target: e.rewriter.Target()}
	if err := w.writeAll(e, lin, outcomes, summary, result); err != nil {
		logger.Error("failed to write artifacts", "error", err)
		e.recordEnd(runID, state.RunStatusFailed, summary, err)
		return nil, err
	}

	status := state.RunStatusCompleted
	if interrupted {
		status = state.RunStatusCancelled
		logger.Warn("migration interrupted", "cancelled", countCode(summary, core.CodeCancelled))
	}
	e.recordEnd(runID, status, summary, nil)

	logger.Info("migration finished",
		"status", summary.Status.String(),
		"pass", summary.Counts.Pass, "warn", summary.Counts.Warn, "fail", summary.Counts.Fail,
		"incomplete", summary.Incomplete)
	return result, nil
}

// parseState is what phase 1 knows about each asset. A timed-out asset has
// neither a statement nor an error.
type parseState struct {
	parsed   []lineage.Parsed
	elapsed  []time.Duration
	timedOut []bool
}

type parseResult struct {
	stmt core.Stmt
	err  error
}

// parseAll parses assets concurrently, each under the per-asset timeout.
// Assets not scheduled before ctx is cancelled are left unparsed and the
// second return value is true.
func (e *Engine) parseAll(ctx context.Context, assets []*core.Asset) (*parseState, bool) {
	ps := &parseState{
		parsed:   make([]lineage.Parsed, len(assets)),
		elapsed:  make([]time.Duration, len(assets)),
		timedOut: make([]bool, len(assets)),
	}
	for i, a := range assets {
		ps.parsed[i].Asset = a
	}

	g := new(errgroup.Group)
	g.SetLimit(e.cfg.Workers)
	interrupted := false
	for i, a := range assets {
		if ctx.Err() != nil {
			interrupted = true
			break
		}
		g.Go(func() error {
			start := time.Now()
			res, ok := withTimeout(e.cfg.AssetTimeout, func() parseResult {
				if e.beforeParse != nil {
					e.beforeParse(a.Name)
				}
				stmt, err := e.grammar.ParseStatement(a.Source)
				return parseResult{stmt: stmt, err: err}
			})
			ps.elapsed[i] = time.Since(start)
			if !ok {
				ps.timedOut[i] = true
				e.logger.Warn("asset timed out while parsing", "asset", a.Name, "timeout", e.cfg.AssetTimeout)
				return nil
			}
			ps.parsed[i].Stmt, ps.parsed[i].Err = res.stmt, res.err
			return nil
		})
	}
	_ = g.Wait()
	return ps, interrupted
}

// processAll rewrites and validates every asset. DDL assets are scheduled
// in emission order, stored queries in topological order after them.
func (e *Engine) processAll(ctx context.Context, lin *lineage.Result, ps *parseState, outcomes []outcome) bool {
	schedule := make([]int, 0, len(lin.Assets))
	schedule = append(schedule, lin.DDLOrder...)
	for _, i := range lin.Order {
		if !lin.Assets[i].Kind.IsDDL() {
			schedule = append(schedule, i)
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(e.cfg.Workers)
	interrupted := false
	for _, i := range schedule {
		if ps.timedOut[i] {
			outcomes[i].verdict = e.timedOut(lin, i)
			continue
		}
		if ctx.Err() != nil {
			interrupted = true
			outcomes[i].verdict = cancelled(lin, i)
			continue
		}
		budget := e.cfg.AssetTimeout
		if budget > 0 {
			// Parsing already spent part of the asset's budget.
			budget = max(budget-ps.elapsed[i], time.Millisecond)
		}
		g.Go(func() error {
			outcomes[i] = e.runTask(lin, i, budget)
			return nil
		})
	}
	_ = g.Wait()
	return interrupted
}

// runTask rewrites and validates one asset within what is left of its
// timeout budget.
func (e *Engine) runTask(lin *lineage.Result, i int, budget time.Duration) outcome {
	o, ok := withTimeout(budget, func() outcome { return e.process(lin, i) })
	if !ok {
		e.logger.Warn("asset timed out", "asset", lin.Assets[i].Name, "timeout", e.cfg.AssetTimeout)
		return outcome{verdict: e.timedOut(lin, i)}
	}
	return o
}

func (e *Engine) timedOut(lin *lineage.Result, i int) *core.Verdict {
	msg := fmt.Sprintf("processing exceeded the %s asset timeout", e.cfg.AssetTimeout)
	return validate.Interrupted(lin.Assets[i], lin.Findings[i], core.CodeTimeout, msg)
}

// withTimeout runs fn and waits at most d for it; zero waits indefinitely.
// The deadline is independent of the run context so that an in-flight task
// is never cut short by run cancellation. A task that overruns keeps
// running in the background and its result is dropped.
func withTimeout[T any](d time.Duration, fn func() T) (T, bool) {
	if d <= 0 {
		return fn(), true
	}

	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	done := make(chan T, 1)
	go func() { done <- fn() }()

	select {
	case v := <-done:
		return v, true
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}

func (e *Engine) process(lin *lineage.Result, i int) outcome {
	asset := lin.Assets[i]
	if e.beforeAsset != nil {
		e.beforeAsset(asset.Name)
	}

	start := time.Now()
	var tr *rewrite.Result
	if stmt := lin.Stmts[i]; stmt != nil {
		tr = e.rewriter.Rewrite(asset, stmt)
	}
	v := e.validator.Validate(validate.Input{
		Asset:       asset,
		Source:      lin.Stmts[i],
		Translation: tr,
		Schema:      lin.Schema,
		Unresolved:  lin.Unresolved[i],
		Findings:    lin.Findings[i],
	})

	e.logger.Debug("asset processed",
		"asset", asset.Name, "kind", asset.Kind.String(), "status", v.Status.String(),
		"findings", len(v.Findings), "duration_ms", time.Since(start).Milliseconds())
	return outcome{translation: tr, verdict: v}
}

func cancelled(lin *lineage.Result, i int) *core.Verdict {
	return validate.Interrupted(lin.Assets[i], lin.Findings[i], core.CodeCancelled, "run cancelled before the asset was processed")
}

func countCode(s *core.RunSummary, code core.Code) int {
	n := 0
	for _, v := range s.Verdicts {
		for _, f := range v.Findings {
			if f.Code == code {
				n++
				break
			}
		}
	}
	return n
}

// recordStart and recordEnd keep the run history. History is best effort:
// failures are logged and never fail the run.
func (e *Engine) recordStart(ctx context.Context, runID string) {
	if e.store == nil {
		return
	}
	err := e.store.CreateRun(context.WithoutCancel(ctx), &state.Run{
		ID:            runID,
		InputPath:     e.cfg.InputPath,
		OutputPath:    e.cfg.OutputPath,
		LegacyDialect: e.cfg.LegacyDialect,
		TargetDialect: e.cfg.TargetDialect,
	})
	if err != nil {
		e.logger.Warn("failed to record run", "run_id", runID, "error", err)
	}
}

func (e *Engine) recordEnd(runID string, status state.RunStatus, summary *core.RunSummary, runErr error) {
	if e.store == nil {
		return
	}
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	if err := e.store.CompleteRun(context.Background(), runID, status, summary, msg); err != nil {
		e.logger.Warn("failed to complete run record", "run_id", runID, "error", err)
	}
}
