// Package engine coordinates a migration run.
// It loads legacy assets, builds lineage, rewrites and validates every asset
// and writes the converted artifacts.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/leapstack-labs/leapmigrate/internal/duckcheck"
	"github.com/leapstack-labs/leapmigrate/internal/pgcheck"
	"github.com/leapstack-labs/leapmigrate/internal/rewrite"
	"github.com/leapstack-labs/leapmigrate/internal/state"
	"github.com/leapstack-labs/leapmigrate/internal/validate"
	"github.com/leapstack-labs/leapmigrate/pkg/catalog"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
)

var (
	// ErrInvalidInputPath is returned when the input path does not exist.
	ErrInvalidInputPath = errors.New("invalid input path")
	// ErrOutputPathRequired is returned when no output path is configured.
	ErrOutputPathRequired = errors.New("output path is required")
)

// Engine runs migrations over one input tree.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	catalog   *catalog.Catalog
	grammar   catalog.Grammar
	rewriter  *rewrite.Rewriter
	validator *validate.Validator
	store     state.Store
	duck      *duckcheck.Checker

	// beforeParse and beforeAsset are called as each asset's parse and
	// rewrite begin.
	beforeParse func(name string)
	beforeAsset func(name string)
}

// Config holds engine configuration.
type Config struct {
	// InputPath is a directory of legacy SQL files or a single file
	InputPath string
	// OutputPath is the directory that receives every artifact
	OutputPath string
	// LegacyDialect is the dialect the input is written in
	LegacyDialect string
	// TargetDialect is the dialect to translate into
	TargetDialect string
	// Workers bounds concurrent asset tasks (defaults to GOMAXPROCS)
	Workers int
	// AssetTimeout bounds the parse, rewrite and validation of one asset.
	// Zero disables the limit.
	AssetTimeout time.Duration
	// MappingsFile overlays the embedded mapping tables (optional)
	MappingsFile string
	// ProjectName names the scaffolded project (defaults to the input's base name)
	ProjectName string
	// StatePath is the SQLite run history database (optional)
	StatePath string
	// Oracle also checks output with the target engine's own parser.
	// Only postgres and duckdb targets have one.
	Oracle bool
	// Catalog replaces the catalog loaded from MappingsFile (optional)
	Catalog *catalog.Catalog
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New validates cfg and prepares an engine. The state store, when
// configured, is opened here and released by Close.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	logger.Debug("initializing engine",
		"input", cfg.InputPath, "legacy_dialect", cfg.LegacyDialect, "target_dialect", cfg.TargetDialect)

	if cfg.InputPath == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidInputPath)
	}
	if _, err := os.Stat(cfg.InputPath); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidInputPath, cfg.InputPath, err)
	}
	if cfg.OutputPath == "" {
		return nil, ErrOutputPathRequired
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.ProjectName == "" {
		cfg.ProjectName = projectName(cfg.InputPath)
	}

	cat := cfg.Catalog
	if cat == nil {
		var err error
		cat, err = catalog.Load(cfg.MappingsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load mappings: %w", err)
		}
	}

	grammar, err := cat.Grammar(cfg.LegacyDialect)
	if err != nil {
		return nil, err
	}
	rw, err := rewrite.New(cat, cfg.LegacyDialect, cfg.TargetDialect)
	if err != nil {
		return nil, err
	}

	var duck *duckcheck.Checker
	vcfg := validate.Config{Logger: logger}
	if cfg.Oracle {
		switch rw.Target().Name {
		case "postgres":
			vcfg.Oracle = pgcheck.New()
		case "duckdb":
			duck, err = duckcheck.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to start duckdb oracle: %w", err)
			}
			vcfg.Oracle = duck
		default:
			logger.Warn("no grammar oracle for target", "target_dialect", rw.Target().Name)
		}
	}

	e := &Engine{
		cfg:       cfg,
		logger:    logger,
		catalog:   cat,
		grammar:   grammar,
		rewriter:  rw,
		validator: validate.New(cat, vcfg),
		duck:      duck,
	}

	if cfg.StatePath != "" {
		if dir := filepath.Dir(cfg.StatePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				_ = e.Close()
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
		store := state.NewSQLiteStore(logger)
		if err := store.Open(cfg.StatePath); err != nil {
			_ = e.Close()
			return nil, fmt.Errorf("failed to open state store: %w", err)
		}
		e.store = store
	}

	return e, nil
}

// Close releases the state store and the duckdb oracle.
func (e *Engine) Close() error {
	var errs []error
	if e.duck != nil {
		errs = append(errs, e.duck.Close())
		e.duck = nil
	}
	if e.store != nil {
		errs = append(errs, e.store.Close())
		e.store = nil
	}
	return errors.Join(errs...)
}

// Store returns the run history store, or nil when none is configured.
func (e *Engine) Store() state.Store {
	return e.store
}

// RunMigration runs one migration with a fresh engine.
func RunMigration(ctx context.Context, cfg Config) (*RunResult, error) {
	e, err := New(cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = e.Close() }()
	return e.Run(ctx)
}

// RunResult describes a finished run.
type RunResult struct {
	RunID             string            `json:"run_id"`
	InputPath         string            `json:"input_path"`
	OutputPath        string            `json:"output_path"`
	LegacyDialect     string            `json:"legacy_dialect"`
	TargetDialect     string            `json:"target_dialect"`
	Artifacts         Artifacts         `json:"artifacts"`
	ValidationSummary ValidationSummary `json:"validation_summary"`

	// Summary holds every verdict of the run.
	Summary *core.RunSummary `json:"-"`
}

// Artifacts lists the files a run wrote.
type Artifacts struct {
	DDLPaths            []string `json:"ddl"`
	QueryPaths          []string `json:"queries"`
	SchemaPath          string   `json:"schema,omitempty"`
	ScaffoldProjectPath string   `json:"dbt_project"`
	ReportPath          string   `json:"report"`
	LineagePath         string   `json:"lineage"`
}

// ValidationSummary is the run-level validation outcome.
type ValidationSummary struct {
	Status     core.Status `json:"status"`
	Counts     core.Counts `json:"counts"`
	Total      int         `json:"total"`
	Incomplete bool        `json:"incomplete"`
}

func projectName(input string) string {
	abs, err := filepath.Abs(input)
	if err != nil {
		abs = input
	}
	base := filepath.Base(abs)
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	return base
}
