package commands

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmigrate/internal/cli/output"
	"github.com/leapstack-labs/leapmigrate/internal/state"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var (
		limit int
		asset string
	)
	cmd := &cobra.Command{
		Use:   "runs [id]",
		Short: "Show recorded migration runs",
		Long: `List the runs recorded in the state database, show one run by id, or
show the verdict history of one asset with --asset.`,
		Example: `  leapmigrate runs
  leapmigrate runs 3f0c2a4e-...
  leapmigrate runs --asset orders`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			store, err := cc.OpenStore()
			if errors.Is(err, os.ErrNotExist) {
				cc.Renderer.Muted("No runs recorded yet.")
				return nil
			}
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ctx := cmd.Context()
			switch {
			case asset != "":
				history, err := store.AssetHistory(ctx, asset)
				if err != nil {
					return err
				}
				return renderHistory(cc.Renderer, asset, history)
			case len(args) == 1:
				run, err := store.GetRun(ctx, args[0])
				if err != nil {
					return err
				}
				return renderRunDetail(cc.Renderer, run)
			default:
				runs, err := store.ListRuns(ctx, limit)
				if err != nil {
					return err
				}
				return renderRuns(cc.Renderer, runs)
			}
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().StringVar(&asset, "asset", "", "Show the verdict history of one asset")
	return cmd
}

func renderRuns(r *output.Renderer, runs []*state.Run) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(runs)
	}
	if len(runs) == 0 {
		r.Muted("No runs recorded yet.")
		return nil
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.LegacyDialect + " → " + run.TargetDialect,
			string(run.Status),
			styledValidation(r, run.Validation),
			strconv.Itoa(run.Counts.Total()),
		})
	}
	r.Table([]string{"Run", "Started", "Dialects", "State", "Validation", "Assets"}, rows)
	return nil
}

func renderRunDetail(r *output.Renderer, run *state.Run) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(run)
	}
	r.Header(1, "Run "+run.ID)
	r.KeyValue("Input", run.InputPath)
	r.KeyValue("Output", run.OutputPath)
	r.KeyValue("Dialects", run.LegacyDialect+" → "+run.TargetDialect)
	r.KeyValue("State", string(run.Status))
	r.KeyValue("Started", run.StartedAt.Local().Format(time.DateTime))
	if run.CompletedAt != nil {
		r.KeyValue("Duration", run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String())
	}
	if run.Validation != "" {
		r.KeyValue("Validation", styledValidation(r, run.Validation))
		r.KeyValue("Counts", strconv.Itoa(run.Counts.Pass)+" pass, "+
			strconv.Itoa(run.Counts.Warn)+" warn, "+strconv.Itoa(run.Counts.Fail)+" fail")
	}
	if run.Incomplete {
		r.Warning("run was interrupted")
	}
	if run.Error != "" {
		r.Error(run.Error)
	}
	return nil
}

func renderHistory(r *output.Renderer, asset string, history []state.AssetVerdict) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(history)
	}
	if len(history) == 0 {
		r.Muted("No verdicts recorded for " + asset + ".")
		return nil
	}
	r.Header(1, asset)
	rows := make([][]string, 0, len(history))
	for _, h := range history {
		rows = append(rows, []string{h.RunID, h.Kind, styledValidation(r, h.Status), strconv.Itoa(h.Findings)})
	}
	r.Table([]string{"Run", "Kind", "Status", "Findings"}, rows)
	return nil
}

func styledValidation(r *output.Renderer, s string) string {
	st, ok := core.ParseStatus(s)
	if !ok {
		return s
	}
	return r.Styles.Status(st).Render(s)
}
