package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmigrate/internal/cli/output"
	"github.com/leapstack-labs/leapmigrate/internal/engine"
	"github.com/leapstack-labs/leapmigrate/internal/watch"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
)

// MigrateOptions holds options for the migrate command.
type MigrateOptions struct {
	Watch  bool // Re-run when input files change
	Strict bool // Exit non-zero when any asset fails validation
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand() *cobra.Command {
	opts := &MigrateOptions{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Translate and validate a legacy SQL tree",
		Long: `Parse every legacy table, view and stored query under the input path,
translate them to the target dialect, validate each translation and write
the converted DDL, queries, dbt project, validation verdicts and report.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Migrate with settings from leapmigrate.yaml
  leapmigrate migrate

  # Postgres to DuckDB, writing to ./out
  leapmigrate migrate --input legacy/ --from postgres --to duckdb --out out/

  # Re-run on every change
  leapmigrate migrate --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run when SQL files under the input path change")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Exit with an error when any asset fails validation")

	return cmd
}

func runMigrate(cmd *cobra.Command, opts *MigrateOptions) error {
	cc := NewCommandContext(cmd)
	ctx := cmd.Context()

	res, err := migrateOnce(ctx, cc)
	if err != nil {
		return err
	}

	if !opts.Watch {
		if opts.Strict && res.ValidationSummary.Status == core.StatusFail {
			return fmt.Errorf("%w: %d of %d assets failed", ErrValidationFailed,
				res.ValidationSummary.Counts.Fail, res.ValidationSummary.Total)
		}
		return nil
	}

	dir := watchDir(cc.Cfg.InputPath)
	cc.Renderer.Muted(fmt.Sprintf("Watching %s for changes (Ctrl+C to stop)", dir))
	return watch.Run(ctx, watch.Config{Dir: dir, Logger: cc.Logger}, func(path string) {
		cc.Logger.Info("change detected, re-running migration", "file", path)
		if _, err := migrateOnce(ctx, cc); err != nil {
			cc.Renderer.Error(err.Error())
		}
	})
}

func migrateOnce(ctx context.Context, cc *CommandContext) (*engine.RunResult, error) {
	res, err := engine.RunMigration(ctx, cc.Cfg.EngineConfig(cc.Logger))
	if err != nil {
		return nil, err
	}
	return res, renderRun(cc.Renderer, res)
}

// MigrateOutput is the JSON output of the migrate command.
type MigrateOutput struct {
	*engine.RunResult
	Verdicts []*core.Verdict `json:"verdicts"`
}

func renderRun(r *output.Renderer, res *engine.RunResult) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(MigrateOutput{RunResult: res, Verdicts: res.Summary.Verdicts})
	}

	r.Header(1, "Migration")
	r.KeyValue("Run", res.RunID)
	r.KeyValue("Dialects", res.LegacyDialect+" → "+res.TargetDialect)
	r.KeyValue("Input", res.InputPath)
	r.KeyValue("Output", res.OutputPath)
	r.Println()

	if len(res.Summary.Verdicts) > 0 {
		rows := make([][]string, 0, len(res.Summary.Verdicts))
		for _, v := range res.Summary.Verdicts {
			rows = append(rows, []string{
				v.Asset,
				v.Kind.String(),
				r.Styles.Status(v.Status).Render(v.Status.String()),
				strconv.Itoa(len(v.Findings)),
			})
		}
		r.Table([]string{"Asset", "Kind", "Status", "Findings"}, rows)
		r.Println()
	}

	s := res.ValidationSummary
	r.Header(2, "Summary")
	r.KeyValue("Status", r.Styles.Status(s.Status).Render(s.Status.String()))
	r.KeyValue("Counts", fmt.Sprintf("%d pass, %d warn, %d fail", s.Counts.Pass, s.Counts.Warn, s.Counts.Fail))
	r.KeyValue("DDL files", strconv.Itoa(len(res.Artifacts.DDLPaths)))
	r.KeyValue("Query files", strconv.Itoa(len(res.Artifacts.QueryPaths)))
	r.KeyValue("Report", filepath.ToSlash(res.Artifacts.ReportPath))
	if s.Incomplete {
		r.Warning("run was interrupted; unprocessed assets are marked Cancelled")
	}
	return nil
}
