package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/sambeau/minisql/config"
	sqlerrors "github.com/sambeau/minisql/pkg/minisql/errors"
	"github.com/sambeau/minisql/pkg/minisql/logging"
	"github.com/sambeau/minisql/pkg/minisql/repl"
	"github.com/sambeau/minisql/pkg/minisql/session"
	"github.com/sambeau/minisql/pkg/minisql/store"
	"github.com/sambeau/minisql/pkg/minisql/watch"
)

// Version information, set at build time via -ldflags
var (
	Version = "dev"     // -X main.Version=$(git describe --tags --always)
	Commit  = "unknown" // -X main.Commit=$(git rev-parse --short HEAD)
)

// errDiagnostics is returned when a statement was rejected. The diagnostic
// itself has already been printed.
var errDiagnostics = errors.New("statement rejected")

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv); err != nil {
		if !errors.Is(err, errDiagnostics) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

// app holds what every command needs once flags and config are resolved.
type app struct {
	cfg    *config.Config
	log    *logging.Logger
	store  store.Store
	stdout io.Writer
	stderr io.Writer
	color  bool
}

// run is the main entry point, designed for testability (Mat Ryer pattern)
func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	flags := flag.NewFlagSet("minisql", flag.ContinueOnError)
	flags.SetOutput(io.Discard) // Suppress default -h output

	var (
		configPath  = flags.String("config", "", "Path to config file")
		evalSQL     = flags.String("e", "", "Run statements and exit")
		colorMode   = flags.String("color", "", "Colored diagnostics: auto, always or never")
		diagFormat  = flags.String("format", "", "Diagnostics format: pretty, text or json")
		showVersion = flags.Bool("version", false, "Show version")
		showHelp    = flags.Bool("help", false, "Show help")
	)

	if err := flags.Parse(args); err != nil {
		// Handle -h/--help: flag package returns ErrHelp
		if errors.Is(err, flag.ErrHelp) {
			printUsage(stdout)
			return nil
		}
		printUsage(stderr)
		return err
	}
	if *showHelp {
		printUsage(stdout)
		return nil
	}
	if *showVersion {
		fmt.Fprintf(stdout, "minisql version %s (%s)\n", Version, Commit)
		return nil
	}

	command := "repl"
	rest := flags.Args()
	if len(rest) > 0 {
		command, rest = rest[0], rest[1:]
	}

	// Set up signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, configFile, err := config.LoadWithPath(*configPath, getenv)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *colorMode != "" {
		cfg.REPL.Color = *colorMode
	}
	if *diagFormat != "" {
		cfg.Diagnostics.Format = *diagFormat
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	log, closeLog, err := newLogger(cfg.Logging, stdout, stderr)
	if err != nil {
		return err
	}
	defer closeLog()
	if configFile != "" {
		log.Debugf("using config %s", configFile)
	}

	st, err := store.Open(cfg.Catalog, log)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer closeStore(st, log)

	a := &app{
		cfg:    cfg,
		log:    log,
		store:  st,
		stdout: stdout,
		stderr: stderr,
		color:  useColor(cfg.REPL.Color, stderr, getenv),
	}

	if *evalSQL != "" {
		return a.eval(ctx, *evalSQL)
	}

	switch command {
	case "repl":
		return a.repl(ctx)
	case "check":
		if len(rest) == 0 {
			return fmt.Errorf("check requires at least one file")
		}
		return a.check(ctx, rest)
	case "watch":
		if len(rest) == 0 {
			return fmt.Errorf("watch requires at least one file")
		}
		return a.watch(ctx, rest)
	case "tables":
		return a.tables(ctx)
	}
	printUsage(stderr)
	return fmt.Errorf("unknown command %q", command)
}

// eval runs statements given on the command line against the configured
// catalog. Accepted tables are saved.
func (a *app) eval(ctx context.Context, src string) error {
	sess, err := session.Open(ctx, a.store, a.log)
	if err != nil {
		return err
	}
	results, err := sess.ExecScript(ctx, src)
	for _, res := range results {
		fmt.Fprintln(a.stdout, res)
	}
	if err != nil {
		a.report(a.stderr, "", src, err)
		return errDiagnostics
	}
	return nil
}

func (a *app) repl(ctx context.Context) error {
	sess, err := session.Open(ctx, a.store, a.log)
	if err != nil {
		return err
	}
	r := repl.New(sess, a.stdout, a.log, repl.Options{
		Prompt:       a.cfg.REPL.Prompt,
		HistoryFile:  a.historyFile(),
		Color:        a.color,
		ContextLines: a.cfg.Diagnostics.ContextLines,
		Version:      Version,
	})
	return r.Run(ctx)
}

func (a *app) historyFile() string {
	if a.cfg.REPL.History != "" {
		return a.cfg.REPL.History
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".minisql_history")
}

// check runs each file in a session of its own, seeded with the saved
// tables. Nothing is saved. It stops at the first rejected statement.
func (a *app) check(ctx context.Context, files []string) error {
	for _, file := range files {
		if err := a.checkFile(ctx, file); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) checkFile(ctx context.Context, file string) error {
	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file, err)
	}
	saved, err := a.store.Load(ctx)
	if err != nil {
		return err
	}
	sess, err := session.Open(ctx, store.NewMemoryFrom(saved), a.log)
	if err != nil {
		return err
	}

	src := string(content)
	results, err := sess.ExecScript(ctx, src)
	if err != nil {
		a.report(a.stderr, file, src, err)
		return errDiagnostics
	}
	fmt.Fprintf(a.stdout, "%s: ok (%d %s)\n", file, len(results), plural(len(results), "statement"))
	return nil
}

func (a *app) watch(ctx context.Context, files []string) error {
	check := func(ctx context.Context, file string) error {
		if err := a.checkFile(ctx, file); err != nil && !errors.Is(err, errDiagnostics) {
			return err
		}
		return nil
	}
	w, err := watch.New(files, a.cfg.Watch.Debounce, check, a.log)
	if err != nil {
		return err
	}
	defer w.Close()
	return w.Run(ctx)
}

func (a *app) tables(ctx context.Context) error {
	cat, err := a.store.Load(ctx)
	if err != nil {
		return err
	}
	names := cat.TableNames()
	if len(names) == 0 {
		fmt.Fprintln(a.stdout, "(no tables)")
		return nil
	}
	for _, name := range names {
		cols := cat[name]
		fmt.Fprintf(a.stdout, "%s (%d %s, row size %s)\n", name, len(cols), plural(len(cols), "column"),
			humanize.Bytes(uint64(cols.RowSize())))
	}
	return nil
}

func closeStore(st store.Store, log *logging.Logger) {
	if err := st.Close(); err != nil {
		log.Warnf("closing catalog: %v", err)
	}
}

// report prints a rejected statement in the configured diagnostics format.
func (a *app) report(w io.Writer, file, src string, err error) {
	r := sqlerrors.Format(src, err)
	switch a.cfg.Diagnostics.Format {
	case "json":
		data, jerr := r.ToJSON()
		if jerr != nil {
			fmt.Fprintf(w, "%s\n", r)
			return
		}
		fmt.Fprintf(w, "%s\n", data)
	case "text":
		if file != "" {
			fmt.Fprintf(w, "%s: ", file)
		}
		fmt.Fprintf(w, "%s\n", r)
	default:
		err := r.Render(w, sqlerrors.RenderOptions{
			Color:        a.color,
			ContextLines: a.cfg.Diagnostics.ContextLines,
			Filename:     file,
		})
		if err != nil {
			a.log.Warnf("writing diagnostic: %v", err)
		}
	}
}

// newLogger builds the logger described by cfg. The returned function
// closes the log file, if one was opened.
func newLogger(cfg config.LoggingConfig, stdout, stderr io.Writer) (*logging.Logger, func(), error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	switch cfg.Output {
	case "", "stderr":
		return logging.New(stderr, stderr, cfg.Format, level), func() {}, nil
	case "stdout":
		return logging.New(stdout, stderr, cfg.Format, level), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Output), 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return logging.New(f, f, cfg.Format, level), func() { f.Close() }, nil
}

// useColor resolves a color mode against the output: auto means color only
// on a terminal, and never when NO_COLOR is set.
func useColor(mode string, w io.Writer, getenv func(string) string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `minisql - type-checked CREATE TABLE and INSERT statements

Usage:
  minisql [options] [repl]        Interactive prompt (default)
  minisql [options] check FILE... Check scripts, stop at the first rejected statement
  minisql [options] watch FILE... Check scripts again whenever they change
  minisql [options] tables        List saved tables
  minisql [options] -e SQL        Run statements and exit

Options:
  --config PATH      Path to config file (default: auto-detect)
  -e SQL             Run statements and exit
  --color MODE       Colored diagnostics: auto, always or never
  --format FORMAT    Diagnostics format: pretty, text or json
  --version          Show version
  --help             Show this help

Config Resolution:
  1. --config flag
  2. MINISQL_CONFIG environment variable
  3. ./minisql.yaml
  4. ~/.config/minisql/minisql.yaml
`)
}
