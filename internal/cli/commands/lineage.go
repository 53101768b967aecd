package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmigrate/internal/cli/output"
	"github.com/leapstack-labs/leapmigrate/internal/lineage"
)

// NewLineageCommand creates the lineage command.
func NewLineageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lineage [asset]",
		Short: "Show the dependency graph of the legacy assets",
		Long: `Parse the input tree and print every asset with its references, the DDL
emission order and any dependency cycles. With an asset name, print that
asset's upstream and downstream dependencies.`,
		Example: `  # Whole graph
  leapmigrate lineage

  # One asset
  leapmigrate lineage customer_totals

  # Machine-readable graph
  leapmigrate lineage -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			lin, err := cc.Lineage()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return renderAssetLineage(cc.Renderer, lin, args[0])
			}
			return renderLineage(cc.Renderer, lin)
		},
	}
	return cmd
}

func renderLineage(r *output.Renderer, lin *lineage.Result) error {
	doc := lin.Document()
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(doc)
	}

	r.Header(1, "Lineage")
	rows := make([][]string, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		parsed := "yes"
		if !n.Parsed {
			parsed = "no"
		}
		rows = append(rows, []string{
			n.Name,
			n.Kind,
			n.Path + ":" + strconv.Itoa(n.Line),
			parsed,
			strings.Join(n.References, ", "),
			strings.Join(n.Unresolved, ", "),
		})
	}
	r.Table([]string{"Asset", "Kind", "Location", "Parsed", "References", "Unresolved"}, rows)
	r.Println()

	r.KeyValue("DDL order", strings.Join(doc.DDLOrder, " → "))
	for _, c := range doc.Cycles {
		r.Warning("cycle: " + strings.Join(c, " → "))
	}
	for _, c := range doc.QueryCycles {
		r.Warning("query cycle: " + strings.Join(c, " → "))
	}
	if n := len(lin.ParseErrors); n > 0 {
		r.Warning(fmt.Sprintf("%d statement(s) failed to parse", n))
	}
	return nil
}

// AssetLineageOutput is the JSON output for a single asset.
type AssetLineageOutput struct {
	Asset      string                   `json:"asset"`
	Kind       string                   `json:"kind"`
	Upstream   []string                 `json:"upstream"`
	Downstream []string                 `json:"downstream"`
	Unresolved []string                 `json:"unresolved"`
	Columns    []*lineage.ColumnLineage `json:"columns,omitempty"`
}

func renderAssetLineage(r *output.Renderer, lin *lineage.Result, name string) error {
	id, ok := lin.Index(name)
	if !ok {
		return fmt.Errorf("asset %q not found", name)
	}

	out := AssetLineageOutput{
		Asset:      name,
		Kind:       lin.Assets[id].Kind.String(),
		Upstream:   names(lin, lin.Graph.Upstream(id)),
		Downstream: names(lin, lin.Graph.Downstream(id)),
		Unresolved: lin.Unresolved[id],
		Columns:    lin.Columns[id],
	}
	if out.Unresolved == nil {
		out.Unresolved = []string{}
	}
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	r.Header(1, name)
	r.KeyValue("Kind", out.Kind)
	r.KeyValue("Upstream", listOrNone(out.Upstream))
	r.KeyValue("Downstream", listOrNone(out.Downstream))
	if len(out.Unresolved) > 0 {
		r.KeyValue("Unresolved", strings.Join(out.Unresolved, ", "))
	}
	if len(out.Columns) > 0 {
		r.Println()
		rows := make([][]string, 0, len(out.Columns))
		for _, c := range out.Columns {
			sources := make([]string, 0, len(c.Sources))
			for _, s := range c.Sources {
				sources = append(sources, s.Table+"."+s.Column)
			}
			transform := "direct"
			if c.Transform != lineage.TransformDirect {
				transform = strings.ToLower(string(c.Transform))
				if c.Function != "" {
					transform += " " + c.Function
				}
			}
			rows = append(rows, []string{c.Name, transform, strings.Join(sources, ", ")})
		}
		r.Table([]string{"Column", "Transform", "Sources"}, rows)
	}
	return nil
}

func names(lin *lineage.Result, ids []int) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, lin.Assets[id].Name)
	}
	return out
}

func listOrNone(s []string) string {
	if len(s) == 0 {
		return "(none)"
	}
	return strings.Join(s, ", ")
}
