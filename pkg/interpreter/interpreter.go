package interpreter

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"hiesenoether/interpreter-go/pkg/ast"
	"hiesenoether/interpreter-go/pkg/energy"
	"hiesenoether/interpreter-go/pkg/runtime"
)

// Interpreter executes Hiesenoether programs one top-level statement at a
// time. It owns the ledger, the environment, and the registered invariants.
type Interpreter struct {
	env        *runtime.Environment
	ledger     *energy.Ledger
	invariants []ast.Expression
	out        io.Writer
	logger     *slog.Logger
	runID      string
	callDepth  int
}

// Option configures an Interpreter.
type Option func(*config)

type config struct {
	out           io.Writer
	logger        *slog.Logger
	energy        energy.Config
	initialEnergy *int
	runID         string
}

// WithOutput redirects program output (print, inspect, warnings). Defaults to
// os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(c *config) { c.out = w }
}

// WithLogger sets the debug logger shared by the interpreter and its ledger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithEnergyConfig replaces the default economy tables.
func WithEnergyConfig(cfg energy.Config) Option {
	return func(c *config) { c.energy = cfg }
}

// WithInitialEnergy pre-seeds the ledger as if the program began with
// energy[n].
func WithInitialEnergy(n int) Option {
	return func(c *config) { c.initialEnergy = &n }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(c *config) { c.runID = id }
}

// New returns an interpreter with an empty global environment and a 0/0
// ledger.
func New(opts ...Option) *Interpreter {
	cfg := config{out: os.Stdout, energy: energy.DefaultConfig()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.runID == "" {
		cfg.runID = uuid.NewString()
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("run", cfg.runID)

	interp := &Interpreter{
		env:    runtime.NewEnvironment(),
		ledger: energy.NewLedger(cfg.energy, logger),
		out:    cfg.out,
		logger: logger.With("component", "interpreter"),
		runID:  cfg.runID,
	}
	if cfg.initialEnergy != nil {
		interp.ledger.SetInitialEnergy(*cfg.initialEnergy)
	}
	return interp
}

// GlobalEnvironment returns the interpreter’s environment.
func (i *Interpreter) GlobalEnvironment() *runtime.Environment {
	return i.env
}

func (i *Interpreter) Ledger() *energy.Ledger {
	return i.ledger
}

func (i *Interpreter) RunID() string {
	return i.runID
}

// Invariants returns the registered invariant conditions in declaration order.
func (i *Interpreter) Invariants() []ast.Expression {
	return append([]ast.Expression(nil), i.invariants...)
}

// Run executes every statement of program and then settles escrows. A
// top-level return stops the program early without error. On error the
// mutations already applied stay in place and escrows are not settled.
func (i *Interpreter) Run(program *ast.Program) error {
	if program == nil {
		return fmt.Errorf("interpreter: nil program")
	}
	i.logger.Debug("run started", "statements", len(program.Statements))
	for _, stmt := range program.Statements {
		sig, err := i.Execute(stmt)
		if err != nil {
			i.logger.Debug("run aborted", "error", err)
			return err
		}
		if sig.IsReturn() {
			break
		}
	}
	i.Finish()
	i.logger.Debug("run finished", "energy", i.ledger.String())
	return nil
}

// Execute runs one top-level statement and then re-checks every registered
// invariant while the invariants capability is held.
func (i *Interpreter) Execute(stmt ast.Statement) (Signal, error) {
	sig, err := i.executeStatement(stmt)
	if err != nil {
		return Continue, err
	}
	if err := i.checkInvariants(); err != nil {
		return Continue, err
	}
	return sig, nil
}

// Finish forfeits unreleased escrows and reports the amount burned.
func (i *Interpreter) Finish() int {
	burned := i.ledger.BurnUnreleasedEscrows()
	if burned != 0 {
		i.printf("## Warning: %d energy burned from unreleased escrows", burned)
	}
	return burned
}

func (i *Interpreter) checkInvariants() error {
	if !i.ledger.HasCapability(energy.CapInvariants) {
		return nil
	}
	for _, cond := range i.invariants {
		val, err := i.evaluateExpression(cond)
		if err != nil {
			return err
		}
		if !runtime.Truthy(val) {
			return runtime.Errorf(runtime.InvariantViolation, "invariant violated: %s", ast.Format(cond))
		}
	}
	return nil
}

func (i *Interpreter) printf(format string, args ...any) {
	fmt.Fprintf(i.out, format+"\n", args...)
}
