// Package repl is an interactive prompt for CREATE TABLE and INSERT
// statements.
package repl

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/peterh/liner"

	"github.com/sambeau/minisql/pkg/minisql/errors"
	"github.com/sambeau/minisql/pkg/minisql/logging"
	"github.com/sambeau/minisql/pkg/minisql/script"
	"github.com/sambeau/minisql/pkg/minisql/session"
)

const DefaultPrompt = "sql> "
const ContinuationPrompt = "..> "

// Keywords offered by tab completion, besides table and column names.
var completionWords = []string{
	"CREATE", "TABLE", "INSERT", "INTO", "VALUES",
	"varchar", "int8", "int16", "int32", "int64", "int128",
	"uint8", "uint16", "uint32", "uint64", "uint128",
}

// Options configure a REPL.
type Options struct {
	Prompt       string
	HistoryFile  string // empty disables history
	Color        bool
	ContextLines int
	Version      string
}

// REPL reads statements from the terminal and runs them in a session.
type REPL struct {
	sess *session.Session
	out  io.Writer
	log  *logging.Logger
	opts Options
}

// New returns a REPL that writes to out.
func New(sess *session.Session, out io.Writer, log *logging.Logger, opts Options) *REPL {
	if opts.Prompt == "" {
		opts.Prompt = DefaultPrompt
	}
	return &REPL{sess: sess, out: out, log: log, opts: opts}
}

// Run starts the REPL with line editing, history, and tab completion. It
// returns when the user quits or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	line := liner.NewLiner()
	defer line.Close()

	// Enable Ctrl+C to abort current line
	line.SetCtrlCAborts(true)
	line.SetCompleter(r.complete)

	if r.opts.HistoryFile != "" {
		if f, err := os.Open(r.opts.HistoryFile); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
		defer func() {
			if f, err := os.Create(r.opts.HistoryFile); err == nil {
				line.WriteHistory(f)
				f.Close()
			} else {
				r.log.Warnf("cannot save history: %v", err)
			}
		}()
	}

	fmt.Fprintln(r.out, "minisql", r.opts.Version)
	fmt.Fprintln(r.out, "End statements with ';' or a blank line. Type ':help' for commands.")
	fmt.Fprintln(r.out, "")

	var buf strings.Builder
	for {
		if ctx.Err() != nil {
			return nil
		}

		prompt := r.opts.Prompt
		if buf.Len() > 0 {
			prompt = ContinuationPrompt
		}
		input, err := line.Prompt(prompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				// Ctrl+C - clear any buffered input and return to main prompt
				if buf.Len() > 0 {
					fmt.Fprintln(r.out, "^C (cleared)")
				} else {
					fmt.Fprintln(r.out, "^C")
				}
				buf.Reset()
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(r.out, "\nGoodbye!")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		trimmed := strings.TrimSpace(input)
		if buf.Len() == 0 {
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, ":") || trimmed == "exit" || trimmed == "quit" {
				if r.command(trimmed) {
					fmt.Fprintln(r.out, "Goodbye!")
					return nil
				}
				continue
			}
		}

		// a blank line ends a statement without ';'
		if trimmed != "" {
			if buf.Len() > 0 {
				buf.WriteString("\n")
			}
			buf.WriteString(input)
			if !script.Complete(buf.String()) {
				continue
			}
		}

		src := buf.String()
		buf.Reset()
		line.AppendHistory(src)
		r.eval(ctx, src)
	}
}

// eval runs every statement in src, printing one line per accepted
// statement and a rendered report for the first failure.
func (r *REPL) eval(ctx context.Context, src string) {
	results, err := r.sess.ExecScript(ctx, src)
	for _, res := range results {
		fmt.Fprintln(r.out, res)
	}
	if err != nil {
		report := errors.Format(src, err)
		err := report.Render(r.out, errors.RenderOptions{
			Color:        r.opts.Color,
			ContextLines: r.opts.ContextLines,
		})
		if err != nil {
			r.log.Warnf("writing diagnostic: %v", err)
		}
	}
}

// command handles the meta-commands. It returns true when the REPL should
// exit.
func (r *REPL) command(cmd string) bool {
	fields := strings.Fields(cmd)
	switch fields[0] {
	case "exit", "quit", ":quit", ":q":
		return true

	case ":help", ":h", ":?":
		fmt.Fprintln(r.out, "REPL Commands:")
		fmt.Fprintln(r.out, "  :help, :h, :?       Show this help")
		fmt.Fprintln(r.out, "  :tables             List tables")
		fmt.Fprintln(r.out, "  :describe <table>   Show the columns of a table")
		fmt.Fprintln(r.out, "  :clear              Forget all tables for this session")
		fmt.Fprintln(r.out, "  exit, quit          Exit the REPL")

	case ":tables":
		r.printTables()

	case ":describe", ":d":
		if len(fields) != 2 {
			fmt.Fprintln(r.out, "Usage: :describe <table>")
			break
		}
		r.describe(fields[1])

	case ":clear":
		r.sess.Reset()
		fmt.Fprintln(r.out, "Catalog cleared")

	default:
		fmt.Fprintf(r.out, "Unknown command: %s (type :help for commands)\n", cmd)
	}
	return false
}

func (r *REPL) printTables() {
	tables := r.sess.Tables()
	if len(tables) == 0 {
		fmt.Fprintln(r.out, "(no tables)")
		return
	}
	for _, name := range tables {
		cols, _ := r.sess.Describe(name)
		fmt.Fprintf(r.out, "  %s (%s %s)\n", name, humanize.Comma(int64(len(cols))), plural(len(cols), "column"))
	}
}

func (r *REPL) describe(table string) {
	cols, ok := r.sess.Describe(table)
	if !ok {
		msg := fmt.Sprintf("table not found: %s", table)
		if guess := errors.ClosestMatch(table, r.sess.Tables()); guess != "" {
			msg += fmt.Sprintf(" (did you mean `%s`?)", guess)
		}
		fmt.Fprintln(r.out, msg)
		return
	}

	width := 0
	for _, c := range cols {
		if w := runewidth.StringWidth(c.Name); w > width {
			width = w
		}
	}
	size := 0
	for _, c := range cols {
		n := c.Type.Size
		if c.Type.Kind.Bits() > 0 {
			n = c.Type.Kind.Bits() / 8
		}
		size += n
		fmt.Fprintf(r.out, "  %s  %-14s %s\n", runewidth.FillRight(c.Name, width), c.Type, humanize.Bytes(uint64(n)))
	}
	fmt.Fprintf(r.out, "  row size: %s\n", humanize.Bytes(uint64(size)))
}

// complete returns the lines that complete the word at the end of line:
// keywords, table names, and column names.
func (r *REPL) complete(line string) []string {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	// Don't complete if line ends with whitespace
	if last := line[len(line)-1]; last == ' ' || last == '\t' || last == '(' || last == ',' {
		return nil
	}

	start := strings.LastIndexAny(line, " \t\n(,") + 1
	prefix, word := line[:start], line[start:]

	seen := map[string]bool{}
	var matches []string
	add := func(candidate string) {
		if !seen[candidate] && strings.HasPrefix(strings.ToLower(candidate), strings.ToLower(word)) {
			seen[candidate] = true
			matches = append(matches, prefix+candidate)
		}
	}
	for _, kw := range completionWords {
		add(kw)
	}
	cat := r.sess.Catalog()
	for _, table := range cat.TableNames() {
		add(table)
		for _, col := range cat[table].Names() {
			add(col)
		}
	}
	sort.Strings(matches)
	return matches
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
