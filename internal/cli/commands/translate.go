package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmigrate/internal/cli/output"
	"github.com/leapstack-labs/leapmigrate/internal/lineage"
	"github.com/leapstack-labs/leapmigrate/internal/loader"
	"github.com/leapstack-labs/leapmigrate/internal/rewrite"
	"github.com/leapstack-labs/leapmigrate/internal/validate"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
)

// TranslateOutput is the JSON output for one translated statement.
type TranslateOutput struct {
	Translation *rewrite.Result `json:"translation,omitempty"`
	Verdict     *core.Verdict   `json:"verdict"`
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate [file|-]",
		Short: "Translate a SQL script without writing artifacts",
		Long: `Translate every statement of one script from the legacy dialect to the
target dialect and print the result with its translation notes and verdict.
Reads standard input when no file is given or the file is "-".`,
		Example: `  leapmigrate translate schema.sql --from postgres --to mysql
  echo "SELECT a::int FROM t" | leapmigrate translate --to snowflake`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, script, err := readScript(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			cc := NewCommandContext(cmd)
			results, err := translateScript(cc, name, script)
			if err != nil {
				return err
			}
			return renderTranslations(cc.Renderer, results)
		},
	}
	return cmd
}

func readScript(stdin io.Reader, args []string) (string, string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return "stdin.sql", string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", err
	}
	return filepath.Base(args[0]), string(b), nil
}

func translateScript(cc *CommandContext, name, script string) ([]TranslateOutput, error) {
	cat, err := cc.Catalog()
	if err != nil {
		return nil, err
	}
	g, err := cat.Grammar(cc.Cfg.LegacyDialect)
	if err != nil {
		return nil, err
	}
	rw, err := rewrite.New(cat, cc.Cfg.LegacyDialect, cc.Cfg.TargetDialect)
	if err != nil {
		return nil, err
	}
	v := validate.New(cat, validate.Config{Logger: cc.Logger})

	assets := loader.LoadScript(name, script, g)
	if len(assets) == 0 {
		return nil, fmt.Errorf("no statements found in %s", name)
	}
	lin := lineage.Build(parseAll(assets, g))

	results := make([]TranslateOutput, len(lin.Assets))
	for i, a := range lin.Assets {
		var tr *rewrite.Result
		if lin.Stmts[i] != nil {
			tr = rw.Rewrite(a, lin.Stmts[i])
		}
		results[i] = TranslateOutput{
			Translation: tr,
			Verdict: v.Validate(validate.Input{
				Asset:       a,
				Source:      lin.Stmts[i],
				Translation: tr,
				Schema:      lin.Schema,
				Unresolved:  lin.Unresolved[i],
				Findings:    lin.Findings[i],
			}),
		}
	}
	return results, nil
}

func renderTranslations(r *output.Renderer, results []TranslateOutput) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(results)
	}

	for i, res := range results {
		if i > 0 {
			r.Println()
		}
		v := res.Verdict
		r.StatusLine(v.Asset, v.Status, v.Kind.String())
		if res.Translation != nil {
			if r.EffectiveMode() == output.ModeMarkdown {
				r.Println("```sql")
				r.Println(res.Translation.SQL)
				r.Println("```")
			} else {
				r.Println(res.Translation.SQL)
			}
		}
		if len(v.Findings) == 0 {
			continue
		}
		rows := make([][]string, 0, len(v.Findings))
		for _, f := range v.Findings {
			rows = append(rows, []string{
				r.Styles.Severity(f.Severity).Render(f.Severity.String()),
				string(f.Code),
				strconv.Itoa(f.Pos.Line) + ":" + strconv.Itoa(f.Pos.Column),
				strings.TrimSpace(f.Message),
			})
		}
		r.Table([]string{"Severity", "Code", "At", "Message"}, rows)
	}
	return nil
}
