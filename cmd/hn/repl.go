package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"hiesenoether/interpreter-go/pkg/interpreter"
	"hiesenoether/interpreter-go/pkg/parser"
	"hiesenoether/interpreter-go/pkg/runtime"
)

const (
	banner       = "Hiesenoether REPL. Type :help for commands, :quit to exit."
	promptMain   = "hn> "
	promptCont   = "... "
	historyFile  = "history"
	replEnergy   = 100
	replHelpText = `:energy  show current/max energy
:help    show this help
:quit    leave the REPL (unreleased escrows are burned)`
)

// lineReader is the part of *liner.State the REPL loop needs.
type lineReader interface {
	Prompt(prompt string) (string, error)
}

func (c *cli) replCommand(args []string) int {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	initial := fs.Int("energy", replEnergy, "initial energy for the session")
	verbose := fs.Bool("v", false, "log interpreter activity to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	home, err := resolveHome()
	if err != nil {
		return c.fail(err)
	}
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if err := os.MkdirAll(home, 0o755); err != nil {
			return
		}
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Fprintln(c.stdout, banner)
	session := &replSession{
		interp: interpreter.New(
			interpreter.WithOutput(c.stdout),
			interpreter.WithLogger(newLogger(*verbose, c.stderr)),
			interpreter.WithInitialEnergy(*initial),
		),
		stdout:  c.stdout,
		stderr:  c.stderr,
		history: ln.AppendHistory,
	}
	session.loop(ln)
	return 0
}

// replSession feeds submissions to one long-lived interpreter. Errors are
// reported and the session continues with whatever state the failed
// submission left behind.
type replSession struct {
	interp  *interpreter.Interpreter
	stdout  io.Writer
	stderr  io.Writer
	history func(string)
}

func (s *replSession) loop(r lineReader) {
	for {
		code, ok := readSubmission(r)
		if !ok {
			fmt.Fprintln(s.stdout)
			break
		}
		if s.submit(code) {
			break
		}
	}
	s.interp.Finish()
}

// submit handles one complete submission and reports whether the session
// should end.
func (s *replSession) submit(code string) bool {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, ":") {
		switch strings.ToLower(trimmed) {
		case ":quit", ":q", ":exit":
			return true
		case ":help":
			fmt.Fprintln(s.stdout, replHelpText)
		case ":energy":
			ledger := s.interp.Ledger()
			fmt.Fprintf(s.stdout, "Energy: %d/%d\n", ledger.Current(), ledger.Max())
		default:
			fmt.Fprintf(s.stdout, "unknown command %s. Type :help for a list.\n", trimmed)
		}
		return false
	}
	if s.history != nil {
		s.history(strings.ReplaceAll(code, "\n", " "))
	}

	program, err := parser.Parse([]byte(code))
	if err != nil {
		fmt.Fprintf(s.stderr, "Error: %v\n", err)
		return false
	}
	for _, stmt := range program.Statements {
		sig, err := s.interp.Execute(stmt)
		if err != nil {
			fmt.Fprintf(s.stderr, "Error: %v\n", err)
			return false
		}
		if sig.IsReturn() {
			if v := sig.Value(); v != nil {
				fmt.Fprintln(s.stdout, runtime.Format(v))
			}
			return false
		}
	}
	return false
}

// readSubmission collects lines until they parse or fail for a reason other
// than running out of input.
func readSubmission(r lineReader) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := r.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			b.Reset()
			continue
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if _, perr := parser.Parse([]byte(src)); perr != nil && parser.IsIncomplete(perr) {
			continue
		}
		return src, true
	}
}
