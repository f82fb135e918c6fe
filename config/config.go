package config

import "time"

// Config represents the complete minisql configuration
type Config struct {
	BaseDir     string            `yaml:"-"` // Directory containing config file, for resolving relative paths
	Catalog     CatalogConfig     `yaml:"catalog"`
	Logging     LoggingConfig     `yaml:"logging"`
	REPL        REPLConfig        `yaml:"repl"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Watch       WatchConfig       `yaml:"watch"`
}

// CatalogConfig selects where table definitions are kept between runs
type CatalogConfig struct {
	Driver string `yaml:"driver"` // "memory", "file", "sqlite", "postgres" or "mysql"
	Path   string `yaml:"path"`   // Snapshot file (file) or database file (sqlite)
	DSN    string `yaml:"dsn"`    // Connection string (postgres, mysql)
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
	Output string `yaml:"output"` // stderr, stdout, or a file path
}

// REPLConfig holds interactive shell settings
type REPLConfig struct {
	History string `yaml:"history"` // History file (default: ~/.minisql_history)
	Prompt  string `yaml:"prompt"`
	Color   string `yaml:"color"` // auto, always, never
}

// DiagnosticsConfig controls how parse errors are shown
type DiagnosticsConfig struct {
	Format       string `yaml:"format"`        // pretty, text or json
	ContextLines int    `yaml:"context_lines"` // Source lines shown above the failing line
}

// WatchConfig holds settings for re-checking scripts on change
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Defaults returns a Config with default values
func Defaults() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Driver: "memory",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		REPL: REPLConfig{
			Prompt: "sql> ",
			Color:  "auto",
		},
		Diagnostics: DiagnosticsConfig{
			Format:       "pretty",
			ContextLines: 2,
		},
		Watch: WatchConfig{
			Debounce: 100 * time.Millisecond,
		},
	}
}
