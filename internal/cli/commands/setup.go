// Package commands implements the leapmigrate subcommands.
package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmigrate/internal/cli/config"
	"github.com/leapstack-labs/leapmigrate/internal/cli/output"
	"github.com/leapstack-labs/leapmigrate/internal/lineage"
	"github.com/leapstack-labs/leapmigrate/internal/loader"
	"github.com/leapstack-labs/leapmigrate/internal/state"
	"github.com/leapstack-labs/leapmigrate/pkg/catalog"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
)

// ErrValidationFailed is returned by migrate --strict when any asset fails.
var ErrValidationFailed = errors.New("validation failed")

// CommandContext holds common dependencies for command execution.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the command's context.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.GetConfig(cmd.Context())
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// Catalog loads the mapping catalog named by the configuration.
func (c *CommandContext) Catalog() (*catalog.Catalog, error) {
	cat, err := catalog.Load(c.Cfg.MappingsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load mappings: %w", err)
	}
	return cat, nil
}

// Lineage loads and parses the configured input tree.
func (c *CommandContext) Lineage() (*lineage.Result, error) {
	cat, err := c.Catalog()
	if err != nil {
		return nil, err
	}
	g, err := cat.Grammar(c.Cfg.LegacyDialect)
	if err != nil {
		return nil, err
	}
	assets, err := loader.Load(c.Cfg.InputPath, g)
	if err != nil {
		return nil, err
	}
	return lineage.Build(parseAll(assets, g)), nil
}

// OpenStore opens the run history database. A missing database is reported
// as os.ErrNotExist rather than created.
func (c *CommandContext) OpenStore() (*state.SQLiteStore, error) {
	if c.Cfg.StatePath == "" {
		return nil, fmt.Errorf("state_path is not configured: %w", os.ErrNotExist)
	}
	if _, err := os.Stat(c.Cfg.StatePath); err != nil {
		return nil, err
	}
	store := state.NewSQLiteStore(c.Logger)
	if err := store.Open(c.Cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	return store, nil
}

func parseAll(assets []*core.Asset, g catalog.Grammar) []lineage.Parsed {
	parsed := make([]lineage.Parsed, len(assets))
	for i, a := range assets {
		stmt, err := g.ParseStatement(a.Source)
		parsed[i] = lineage.Parsed{Asset: a, Stmt: stmt, Err: err}
	}
	return parsed
}

// watchDir returns the directory to watch for an input path.
func watchDir(input string) string {
	if info, err := os.Stat(input); err == nil && !info.IsDir() {
		return filepath.Dir(input)
	}
	return input
}
