package energy

import (
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"slices"
)

// Ledger is the energy account of one program run. It is not safe for
// concurrent use.
type Ledger struct {
	current int
	max     int

	costs         map[string]int
	gains         map[string]int
	removalGains  map[string]int
	escrowPenalty int

	escrows map[string]*Escrow
	removed map[string]struct{}

	logger *slog.Logger
}

// NewLedger builds a ledger at 0/0 from cfg. A nil logger discards output.
func NewLedger(cfg Config, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg = cfg.clone()
	return &Ledger{
		costs:         cfg.Costs,
		gains:         cfg.Gains,
		removalGains:  cfg.RemovalGains,
		escrowPenalty: cfg.EscrowPenalty,
		escrows:       make(map[string]*Escrow),
		removed:       make(map[string]struct{}),
		logger:        logger.With("component", "energy_ledger"),
	}
}

// SetInitialEnergy resets both current and max to n.
func (l *Ledger) SetInitialEnergy(n int) {
	l.logger.Debug("energy declared", "amount", n, "previous_current", l.current, "previous_max", l.max)
	l.current = n
	l.max = n
}

// Spend deducts the cost of op when it is affordable. Unknown operations
// cost nothing.
func (l *Ledger) Spend(op string) bool {
	cost := l.costs[op]
	if l.current < cost {
		l.logger.Debug("spend refused", "op", op, "cost", cost, "current", l.current)
		return false
	}
	l.current -= cost
	l.logger.Debug("spend", "op", op, "cost", cost, "current", l.current)
	return true
}

// CheckCost reports what op would cost without spending.
func (l *Ledger) CheckCost(op string) int {
	return l.costs[op]
}

// CreateEscrow opens a fresh escrow for fn, replacing any previous one.
func (l *Ledger) CreateEscrow(fn string) {
	amount := l.gains[GainUnstableFnCall]
	l.escrows[fn] = &Escrow{Function: fn, Amount: amount}
	l.logger.Debug("escrow created", "fn", fn, "amount", amount)
}

// ReleaseEscrow settles one call of fn and returns the energy delta applied:
// +amount on the first call, -penalty when the second call repeats the first
// output, 0 otherwise (including when fn has no escrow).
func (l *Ledger) ReleaseEscrow(fn string, output any) int {
	escrow, ok := l.escrows[fn]
	if !ok {
		return 0
	}
	escrow.CallCount++
	switch escrow.CallCount {
	case 1:
		escrow.LastOutput = output
		escrow.Released = true
		l.current += escrow.Amount
		l.logger.Debug("escrow released", "fn", fn, "amount", escrow.Amount, "current", l.current)
		return escrow.Amount
	case 2:
		if reflect.DeepEqual(output, escrow.LastOutput) {
			l.current -= l.escrowPenalty
			l.logger.Debug("escrow penalty", "fn", fn, "penalty", l.escrowPenalty, "current", l.current)
			return -l.escrowPenalty
		}
	}
	return 0
}

// BurnUnreleasedEscrows forfeits every escrow that was never released and
// returns the total deducted.
func (l *Ledger) BurnUnreleasedEscrows() int {
	burned := 0
	for _, fn := range slices.Sorted(maps.Keys(l.escrows)) {
		escrow := l.escrows[fn]
		if escrow.Released {
			continue
		}
		burned += escrow.Amount
		l.current -= escrow.Amount
		l.logger.Debug("escrow burned", "fn", fn, "amount", escrow.Amount)
	}
	return burned
}

// RemoveCapability permanently revokes capability and credits its gain to
// both current and max. It fails for unknown or already removed capabilities.
func (l *Ledger) RemoveCapability(capability string) bool {
	if _, gone := l.removed[capability]; gone {
		return false
	}
	gain, ok := l.removalGains[capability]
	if !ok {
		return false
	}
	l.removed[capability] = struct{}{}
	l.max += gain
	l.current += gain
	l.logger.Debug("capability removed", "capability", capability, "gain", gain, "current", l.current, "max", l.max)
	return true
}

// RemovalGain reports what removing capability would earn.
func (l *Ledger) RemovalGain(capability string) int {
	return l.removalGains[capability]
}

func (l *Ledger) HasCapability(capability string) bool {
	_, gone := l.removed[capability]
	return !gone
}

func (l *Ledger) Current() int { return l.current }

func (l *Ledger) Max() int { return l.max }

// Escrow returns a copy of fn's escrow.
func (l *Ledger) Escrow(fn string) (Escrow, bool) {
	escrow, ok := l.escrows[fn]
	if !ok {
		return Escrow{}, false
	}
	return *escrow, true
}

// RemovedCapabilities lists revoked capabilities in sorted order.
func (l *Ledger) RemovedCapabilities() []string {
	return slices.Sorted(maps.Keys(l.removed))
}

func (l *Ledger) String() string {
	return fmt.Sprintf("Energy(%d/%d)", l.current, l.max)
}
