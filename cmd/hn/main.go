package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"hiesenoether/interpreter-go/pkg/ast"
	"hiesenoether/interpreter-go/pkg/driver"
	"hiesenoether/interpreter-go/pkg/interpreter"
)

const cliToolVersion = "hn 0.1.0-dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type cli struct {
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, stderr: stderr}
	if len(args) == 0 {
		c.printUsage()
		return 1
	}

	switch args[0] {
	case "--help", "-h", "help":
		c.printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(c.stdout, cliToolVersion)
		return 0
	case "run":
		return c.runCommand(args[1:])
	case "check":
		return c.checkCommand(args[1:])
	case "ast":
		return c.astCommand(args[1:])
	case "repl":
		return c.replCommand(args[1:])
	default:
		if looksLikePathCandidate(args[0]) {
			return c.runCommand(args)
		}
		fmt.Fprintf(c.stderr, "Error: unknown command %q\n", args[0])
		c.printUsage()
		return 1
	}
}

func (c *cli) fail(err error) int {
	fmt.Fprintf(c.stderr, "Error: %v\n", err)
	return 1
}

func newLogger(verbose bool, w io.Writer) *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type runOptions struct {
	file   string
	git    string
	rev    string
	tag    string
	branch string
	energy int
}

func (c *cli) runCommand(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	var opts runOptions
	fs.StringVar(&opts.git, "git", "", "clone the program from this git repository")
	fs.StringVar(&opts.rev, "rev", "", "git commit to check out")
	fs.StringVar(&opts.tag, "tag", "", "git tag to check out")
	fs.StringVar(&opts.branch, "branch", "", "git branch to check out")
	fs.IntVar(&opts.energy, "energy", -1, "initial energy before the program runs")
	verbose := fs.Bool("v", false, "log interpreter activity to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 1 {
		return c.fail(fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args()[1:], " ")))
	}
	opts.file = fs.Arg(0)
	if opts.git == "" && (opts.rev != "" || opts.tag != "" || opts.branch != "") {
		return c.fail(errors.New("--rev, --tag, and --branch require --git"))
	}
	selectors := 0
	for _, s := range []string{opts.rev, opts.tag, opts.branch} {
		if s != "" {
			selectors++
		}
	}
	if selectors > 1 {
		return c.fail(errors.New("use only one of --rev, --tag, or --branch"))
	}

	logger := newLogger(*verbose, c.stderr)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	entry, manifest, err := c.resolveEntry(ctx, opts, logger)
	if err != nil {
		return c.fail(err)
	}
	program, err := driver.NewLoader(logger).Load(entry)
	if err != nil {
		return c.fail(err)
	}

	interpOpts := []interpreter.Option{
		interpreter.WithOutput(c.stdout),
		interpreter.WithLogger(logger),
	}
	if manifest != nil {
		interpOpts = append(interpOpts, interpreter.WithEnergyConfig(manifest.EnergyConfig()))
		if manifest.Energy.Initial != nil {
			interpOpts = append(interpOpts, interpreter.WithInitialEnergy(*manifest.Energy.Initial))
		}
	}
	if opts.energy >= 0 {
		interpOpts = append(interpOpts, interpreter.WithInitialEnergy(opts.energy))
	}
	if err := interpreter.New(interpOpts...).Run(program); err != nil {
		return c.fail(err)
	}
	return 0
}

// resolveEntry works out which file to run and which manifest configures it.
// An explicit file wins over the manifest's main and only takes a manifest from
// its own directory; a git source (from flags or the manifest) relocates the
// entry into a cached checkout.
func (c *cli) resolveEntry(ctx context.Context, opts runOptions, logger *slog.Logger) (string, *driver.Manifest, error) {
	var source *driver.SourceSpec
	if opts.git != "" {
		source = &driver.SourceSpec{Git: opts.git, Rev: opts.rev, Tag: opts.tag, Branch: opts.branch}
	}

	var manifest *driver.Manifest
	if source == nil {
		if opts.file != "" {
			m, err := loadManifestBeside(opts.file)
			switch {
			case err == nil:
				manifest = m
				logger.Info("manifest applied", "path", m.Path, "file", opts.file)
			case errors.Is(err, errManifestNotFound):
			default:
				fmt.Fprintf(c.stderr, "warning: unable to load manifest (%v); running %s with default energy settings\n", err, opts.file)
			}
			return opts.file, manifest, nil
		}
		m, err := loadManifestFrom("")
		if err != nil {
			if errors.Is(err, errManifestNotFound) {
				return "", nil, fmt.Errorf("hn run requires a source file (%s not found)", driver.ManifestFileName)
			}
			return "", nil, err
		}
		manifest = m
		if m.Source == nil {
			entry, err := m.MainPath()
			return entry, m, err
		}
		source = m.Source
	}

	home, err := resolveHome()
	if err != nil {
		return "", nil, err
	}
	dir, commit, err := newSourceFetcher(home, logger).Fetch(ctx, source)
	if err != nil {
		return "", nil, err
	}
	logger.Debug("source ready", "git", source.Git, "commit", commit, "dir", dir)
	if opts.file != "" {
		return filepath.Join(dir, filepath.FromSlash(opts.file)), manifest, nil
	}
	if manifest == nil {
		m, err := driver.LoadManifest(filepath.Join(dir, driver.ManifestFileName))
		if err != nil {
			return "", nil, fmt.Errorf("checkout of %s: %w", source.Git, err)
		}
		manifest = m
	}
	entry, err := manifest.ResolveMain(dir)
	return entry, manifest, err
}

func (c *cli) checkCommand(args []string) int {
	if len(args) != 1 {
		return c.fail(errors.New("hn check requires exactly one file"))
	}
	program, err := driver.NewLoader(nil).Load(args[0])
	if err != nil {
		return c.fail(err)
	}
	fmt.Fprintf(c.stdout, "%s: ok (%d statements)\n", args[0], len(program.Statements))
	return 0
}

func (c *cli) astCommand(args []string) int {
	if len(args) != 1 {
		return c.fail(errors.New("hn ast requires exactly one file"))
	}
	program, err := driver.NewLoader(nil).Load(args[0])
	if err != nil {
		return c.fail(err)
	}
	data, err := ast.MarshalProgram(program)
	if err != nil {
		return c.fail(err)
	}
	fmt.Fprintln(c.stdout, string(data))
	return 0
}

func (c *cli) printUsage() {
	fmt.Fprintln(c.stderr, "Usage:")
	fmt.Fprintln(c.stderr, "  hn run [--git URL [--rev R | --tag T | --branch B]] [--energy N] [-v] [file]")
	fmt.Fprintln(c.stderr, "  hn <file.hn|file.json>")
	fmt.Fprintln(c.stderr, "  hn check <file>")
	fmt.Fprintln(c.stderr, "  hn ast <file>")
	fmt.Fprintln(c.stderr, "  hn repl [--energy N] [-v]")
	fmt.Fprintln(c.stderr, "  hn version")
}
