package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the configuration found by LoadWithPath.
func Load(configPath string, getenv func(string) string) (*Config, error) {
	cfg, _, err := LoadWithPath(configPath, getenv)
	return cfg, err
}

// LoadWithPath finds the config file, reads it and returns it with its
// absolute path. With no file to read, the defaults come back with an
// empty path. Relative paths inside the file are taken against its
// directory.
func LoadWithPath(configPath string, getenv func(string) string) (*Config, string, error) {
	path, err := findConfig(configPath, getenv)
	if err != nil {
		return nil, "", err
	}
	cfg := Defaults()
	if path == "" {
		return cfg, "", Validate(cfg)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(interpolateEnv(data, getenv), cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.rebase(filepath.Dir(absPath))

	if err := Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, absPath, nil
}

// rebase records dir as the config directory and anchors the catalog,
// history and log file paths to it.
func (cfg *Config) rebase(dir string) {
	cfg.BaseDir = dir
	cfg.Catalog.Path = resolvePath(dir, cfg.Catalog.Path)
	cfg.REPL.History = resolvePath(dir, cfg.REPL.History)
	if out := cfg.Logging.Output; out != "stderr" && out != "stdout" {
		cfg.Logging.Output = resolvePath(dir, out)
	}
}

// resolvePath makes a relative path absolute against the config directory.
// A leading ~/ is expanded to the home directory.
func resolvePath(baseDir, p string) string {
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// configSource is one place a config file may come from.
type configSource struct {
	origin   string // how the path was given, for errors
	path     string
	required bool // a missing file is an error rather than a miss
}

// configSources lists where to look, in order: the --config flag,
// MINISQL_CONFIG, ./minisql.yaml and ~/.config/minisql/minisql.yaml.
func configSources(explicit string, getenv func(string) string) []configSource {
	sources := []configSource{
		{origin: "config file", path: explicit, required: true},
		{origin: "MINISQL_CONFIG file", path: getenv("MINISQL_CONFIG"), required: true},
		{origin: "local config", path: "minisql.yaml"},
	}
	if home, err := os.UserHomeDir(); err == nil {
		sources = append(sources, configSource{
			origin: "user config",
			path:   filepath.Join(home, ".config", "minisql", "minisql.yaml"),
		})
	}
	return sources
}

// findConfig returns the first config file configSources names, or ""
// when there is none.
func findConfig(explicit string, getenv func(string) string) (string, error) {
	for _, src := range configSources(explicit, getenv) {
		if src.path == "" {
			continue
		}
		if _, err := os.Stat(src.path); err == nil {
			return src.path, nil
		}
		if src.required {
			return "", fmt.Errorf("%s not found: %s", src.origin, src.path)
		}
	}
	return "", nil
}

// envRef matches ${VAR} and ${VAR:-default}.
var envRef = regexp.MustCompile(`\$\{[^}]+\}`)

// interpolateEnv replaces environment references in data. An unset or
// empty variable takes its default, or the empty string without one.
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		name, def, hasDefault := strings.Cut(string(ref[2:len(ref)-1]), ":-")
		if value := getenv(name); value != "" || !hasDefault {
			return []byte(value)
		}
		return []byte(def)
	})
}

// Validate checks the configuration for errors.
func Validate(cfg *Config) error {
	var errs []string

	// Catalog validation
	switch cfg.Catalog.Driver {
	case "memory":
	case "file", "sqlite":
		if cfg.Catalog.Path == "" {
			errs = append(errs, fmt.Sprintf("catalog: driver %s requires path", cfg.Catalog.Driver))
		}
	case "postgres", "mysql":
		if cfg.Catalog.DSN == "" {
			errs = append(errs, fmt.Sprintf("catalog: driver %s requires dsn", cfg.Catalog.Driver))
		}
	default:
		errs = append(errs, fmt.Sprintf("catalog: unknown driver %q (must be memory, file, sqlite, postgres, or mysql)", cfg.Catalog.Driver))
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Logging.Level))
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be json or text)", cfg.Logging.Format))
	}

	// REPL validation
	validColors := map[string]bool{"auto": true, "always": true, "never": true}
	if !validColors[cfg.REPL.Color] {
		errs = append(errs, fmt.Sprintf("repl: invalid color %q (must be auto, always, or never)", cfg.REPL.Color))
	}

	// Diagnostics validation
	validDiagFormats := map[string]bool{"pretty": true, "text": true, "json": true}
	if !validDiagFormats[cfg.Diagnostics.Format] {
		errs = append(errs, fmt.Sprintf("diagnostics: invalid format %q (must be pretty, text, or json)", cfg.Diagnostics.Format))
	}
	if cfg.Diagnostics.ContextLines < 0 {
		errs = append(errs, "diagnostics: context_lines cannot be negative")
	}

	if cfg.Watch.Debounce < 0 {
		errs = append(errs, "watch: debounce cannot be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
