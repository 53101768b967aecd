// Package config provides configuration management for the leapmigrate CLI.
//
// Values are layered with koanf, lowest to highest precedence: built-in
// defaults, the YAML config file, LEAPMIGRATE_* environment variables and
// explicitly set command-line flags.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/leapmigrate/internal/cli/output"
	"github.com/leapstack-labs/leapmigrate/internal/engine"
)

// Default configuration values.
const (
	DefaultInputPath     = "assets/legacy"
	DefaultOutputPath    = "assets/reports/run_001"
	DefaultLegacyDialect = "postgres"
	DefaultTargetDialect = "snowflake"
	DefaultAssetTimeout  = 30 * time.Second
	DefaultStateFile     = ".leapmigrate/state.db"
	DefaultLogLevel      = "info"
	DefaultOutput        = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultServerAddr    = ":8080"
)

// ConfigFileNames are searched in the working directory when no --config
// flag is given.
var ConfigFileNames = []string{"leapmigrate.yaml", "leapmigrate.yml"}

// Config holds all CLI configuration options.
type Config struct {
	InputPath     string        `koanf:"input_path"`
	OutputPath    string        `koanf:"output_path"`
	LegacyDialect string        `koanf:"legacy_dialect"`
	TargetDialect string        `koanf:"target_dialect"`
	Workers       int           `koanf:"workers"`
	AssetTimeout  time.Duration `koanf:"asset_timeout"`
	MappingsFile  string        `koanf:"mappings_file"`
	ProjectName   string        `koanf:"project_name"`
	StatePath     string        `koanf:"state_path"`
	Oracle        bool          `koanf:"oracle"`
	LogLevel      string        `koanf:"log_level"`
	OutputFormat  string        `koanf:"output"`
	Server        ServerConfig  `koanf:"server"`

	// ConfigFile is the file the configuration was read from, if any.
	ConfigFile string `koanf:"-"`
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.AssetTimeout < 0 {
		return fmt.Errorf("asset_timeout must not be negative, got %s", c.AssetTimeout)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if !output.Mode(c.OutputFormat).Valid() {
		return fmt.Errorf("unknown output format %q (want auto, text, markdown or json)", c.OutputFormat)
	}
	return nil
}

// EngineConfig converts the CLI configuration into an engine configuration.
func (c *Config) EngineConfig(logger *slog.Logger) engine.Config {
	return engine.Config{
		InputPath:     c.InputPath,
		OutputPath:    c.OutputPath,
		LegacyDialect: c.LegacyDialect,
		TargetDialect: c.TargetDialect,
		Workers:       c.Workers,
		AssetTimeout:  c.AssetTimeout,
		MappingsFile:  c.MappingsFile,
		ProjectName:   c.ProjectName,
		StatePath:     c.StatePath,
		Oracle:        c.Oracle,
		Logger:        logger,
	}
}

// ParseLevel converts a log level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
