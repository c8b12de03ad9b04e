package energy

import "maps"

// Operation names charged by the evaluator.
const (
	OpStabilize         = "stabilize"
	OpStableVar         = "stable_var"
	OpDeclareFn         = "declare_fn"
	OpDeclarePureFn     = "declare_pure_fn"
	OpDeclareUnstableFn = "declare_unstable_fn"
	OpInspect           = "inspect"
	OpInvariant         = "invariant"
	OpAssert            = "assert"
	OpStableIf          = "stable_if"
)

// GainUnstableFnCall is the escrow amount held for each unstable function.
const GainUnstableFnCall = "unstable_fn_call"

// Capabilities that can be traded away for energy.
const (
	CapInvariants    = "invariants"
	CapStableControl = "stable_control"
	CapInspection    = "inspection"
)

// DefaultEscrowPenalty is deducted when an unstable function's second call
// repeats its first output.
const DefaultEscrowPenalty = 6

// Config holds the static economy tables. A Ledger copies its Config at
// construction and never mutates it afterwards.
type Config struct {
	Costs         map[string]int
	Gains         map[string]int
	RemovalGains  map[string]int
	EscrowPenalty int
}

// DefaultConfig returns the standard economy.
func DefaultConfig() Config {
	return Config{
		Costs: map[string]int{
			OpStabilize:         5,
			OpStableVar:         5,
			OpDeclareFn:         3,
			OpDeclarePureFn:     3,
			OpDeclareUnstableFn: 1,
			OpInspect:           2,
			OpInvariant:         10,
			OpAssert:            1,
			OpStableIf:          3,
		},
		Gains: map[string]int{
			GainUnstableFnCall: 4,
		},
		RemovalGains: map[string]int{
			CapInvariants:    20,
			CapStableControl: 15,
			CapInspection:    10,
		},
		EscrowPenalty: DefaultEscrowPenalty,
	}
}

// Merge overlays the table entries of overrides onto a copy of c. The escrow
// penalty is left untouched; callers set it directly.
func (c Config) Merge(overrides Config) Config {
	out := c.clone()
	maps.Copy(out.Costs, overrides.Costs)
	maps.Copy(out.Gains, overrides.Gains)
	maps.Copy(out.RemovalGains, overrides.RemovalGains)
	return out
}

func (c Config) clone() Config {
	out := Config{
		Costs:         make(map[string]int, len(c.Costs)),
		Gains:         make(map[string]int, len(c.Gains)),
		RemovalGains:  make(map[string]int, len(c.RemovalGains)),
		EscrowPenalty: c.EscrowPenalty,
	}
	maps.Copy(out.Costs, c.Costs)
	maps.Copy(out.Gains, c.Gains)
	maps.Copy(out.RemovalGains, c.RemovalGains)
	return out
}
