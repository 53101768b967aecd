package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmigrate/internal/cli/output"
	"github.com/leapstack-labs/leapmigrate/pkg/catalog"
)

// DialectInfo is the JSON output for one dialect.
type DialectInfo struct {
	Name          string   `json:"name"`
	Quote         string   `json:"quote"`
	AutoIncrement string   `json:"auto_increment"`
	Placeholder   string   `json:"placeholder_type"`
	Features      []string `json:"features"`
	Description   string   `json:"description"`
}

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dialects [name]",
		Short: "List the supported SQL dialects",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			cat, err := cc.Catalog()
			if err != nil {
				return err
			}
			names := cat.Dialects()
			if len(args) == 1 {
				names = args
			}
			infos := make([]DialectInfo, 0, len(names))
			for _, name := range names {
				info, err := dialectInfo(cat, name)
				if err != nil {
					return err
				}
				infos = append(infos, info)
			}
			return renderDialects(cc.Renderer, infos)
		},
	}
	return cmd
}

func dialectInfo(cat *catalog.Catalog, name string) (DialectInfo, error) {
	d, err := cat.Dialect(name)
	if err != nil {
		return DialectInfo{}, err
	}
	desc, err := cat.Describe(name)
	if err != nil {
		return DialectInfo{}, err
	}
	features := []string{}
	for _, f := range []struct {
		on   bool
		name string
	}{
		{d.SupportsCastOperator(), "cast-operator"},
		{d.SupportsIlike(), "ilike"},
		{d.SupportsQualify(), "qualify"},
		{d.SupportsArrays(), "arrays"},
		{d.PipesAsOr(), "pipes-as-or"},
	} {
		if f.on {
			features = append(features, f.name)
		}
	}
	return DialectInfo{
		Name:          d.Name,
		Quote:         d.Identifiers.Quote,
		AutoIncrement: d.AutoIncrement.Style.String(),
		Placeholder:   d.PlaceholderType,
		Features:      features,
		Description:   desc,
	}, nil
}

func renderDialects(r *output.Renderer, infos []DialectInfo) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(infos)
	}
	if len(infos) == 1 {
		r.Println(infos[0].Description)
		return nil
	}
	rows := make([][]string, 0, len(infos))
	for _, d := range infos {
		features := "-"
		if len(d.Features) > 0 {
			features = strings.Join(d.Features, ", ")
		}
		rows = append(rows, []string{d.Name, d.Quote, d.AutoIncrement, d.Placeholder, features})
	}
	r.Table([]string{"Dialect", "Quote", "Auto-increment", "Placeholder", "Features"}, rows)
	return nil
}

