package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read into the config.
const EnvPrefix = "LEAPMIGRATE_"

// flagKeys maps flag names that differ from their config keys.
var flagKeys = map[string]string{
	"input":     "input_path",
	"out":       "output_path",
	"from":      "legacy_dialect",
	"to":        "target_dialect",
	"timeout":   "asset_timeout",
	"mappings":  "mappings_file",
	"project":   "project_name",
	"state":     "state_path",
	"addr":      "server.addr",
	"log-level": "log_level",
}

// envKeys maps environment suffixes that address nested keys.
var envKeys = map[string]string{
	"server_addr": "server.addr",
}

// Defaults returns the built-in configuration layer.
func Defaults() map[string]any {
	return map[string]any{
		"input_path":     DefaultInputPath,
		"output_path":    DefaultOutputPath,
		"legacy_dialect": DefaultLegacyDialect,
		"target_dialect": DefaultTargetDialect,
		"workers":        0,
		"asset_timeout":  DefaultAssetTimeout.String(),
		"state_path":     DefaultStateFile,
		"oracle":         false,
		"log_level":      DefaultLogLevel,
		"output":         DefaultOutput,
		"server.addr":    DefaultServerAddr,
	}
}

// findConfigFile finds the config file to use.
// Priority: explicit path > leapmigrate.yaml > leapmigrate.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range ConfigFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load config file
	configFile := findConfigFile(cfgFile)
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	// 3. Load environment variables
	// Transform: LEAPMIGRATE_TARGET_DIALECT -> target_dialect
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		if mapped, ok := envKeys[key]; ok {
			return mapped
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			WeaklyTypedInput: true,
			Result:           &cfg,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ConfigFile = configFile

	// Paths in a config file are relative to the file, not the working directory.
	if configFile != "" {
		base := filepath.Dir(configFile)
		fileKeys := []struct {
			key  string
			path *string
		}{
			{"input_path", &cfg.InputPath},
			{"output_path", &cfg.OutputPath},
			{"mappings_file", &cfg.MappingsFile},
			{"state_path", &cfg.StatePath},
		}
		for _, fk := range fileKeys {
			if fromFile(fk.key, flags) {
				*fk.path = resolvePathRelativeTo(*fk.path, base)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// fromFile reports whether key's value can only have come from the config
// file or the defaults: no flag and no environment variable set it.
func fromFile(key string, flags *pflag.FlagSet) bool {
	if _, ok := os.LookupEnv(EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))); ok {
		return false
	}
	if flags == nil {
		return true
	}
	changed := false
	flags.Visit(func(f *pflag.Flag) {
		if flagKeys[f.Name] == key || strings.ReplaceAll(f.Name, "-", "_") == key {
			changed = true
		}
	})
	return !changed
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) || baseDir == "." {
		return path
	}
	return filepath.Join(baseDir, path)
}

// NewLogger builds the CLI's text logger at the configured level.
func NewLogger(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

type (
	configKey struct{}
	loggerKey struct{}
)

// WithConfig stores cfg in ctx.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// GetConfig retrieves the config from the command context, falling back to
// the defaults.
func GetConfig(ctx context.Context) *Config {
	if ctx != nil {
		if c, ok := ctx.Value(configKey{}).(*Config); ok {
			return c
		}
	}
	return &Config{
		InputPath:     DefaultInputPath,
		OutputPath:    DefaultOutputPath,
		LegacyDialect: DefaultLegacyDialect,
		TargetDialect: DefaultTargetDialect,
		AssetTimeout:  DefaultAssetTimeout,
		StatePath:     DefaultStateFile,
		LogLevel:      DefaultLogLevel,
		OutputFormat:  DefaultOutput,
		Server:        ServerConfig{Addr: DefaultServerAddr},
	}
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}
