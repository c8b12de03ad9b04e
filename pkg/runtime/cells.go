package runtime

import (
	"fmt"
	"math"
	"strings"

	"hiesenoether/interpreter-go/pkg/ast"
)

// EnergyGauge exposes the ledger readings that drive energy pressure.
type EnergyGauge interface {
	Current() int
	Max() int
}

// Cell is a data binding that can be read, frozen, and inspected.
type Cell interface {
	Binding
	Read(gauge EnergyGauge) Value
	Stabilize(gauge EnergyGauge)
	Inspect() Descriptor
	IsStable() bool
}

// Descriptor is the read-free view of a cell printed by `inspect`.
type Descriptor struct {
	Unstable    bool
	Value       Value
	AccessCount int
	Entropy     float64
	Stable      bool
}

func (d Descriptor) String() string {
	if !d.Unstable {
		return fmt.Sprintf("{value: %s, stable: true, access_count: 0}", describeValue(d.Value))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "{base_value: %s, access_count: %d, ", describeValue(d.Value), d.AccessCount)
	fmt.Fprintf(&b, "entropy: %s, stable: %t}", ast.FormatNumber(math.Round(d.Entropy*1e6)/1e6), d.Stable)
	return b.String()
}

func describeValue(v Value) string {
	if s, ok := v.(StringValue); ok {
		return fmt.Sprintf("%q", s.Val)
	}
	return Format(v)
}

//-----------------------------------------------------------------------------
// Stable
//-----------------------------------------------------------------------------

// Stable holds a value that never changes on access.
type Stable struct {
	value Value
}

func NewStable(value Value) *Stable {
	return &Stable{value: value}
}

func (*Stable) isBinding() {}

func (s *Stable) Read(EnergyGauge) Value { return s.value }

func (s *Stable) Stabilize(EnergyGauge) {}

func (s *Stable) Inspect() Descriptor {
	return Descriptor{Value: s.value, Stable: true}
}

func (s *Stable) IsStable() bool { return true }

//-----------------------------------------------------------------------------
// Unstable
//-----------------------------------------------------------------------------

// Unstable drifts on every read until stabilized. Numeric bases gain
// accessCount × entropy × pressure; other bases only advance the counters.
type Unstable struct {
	base        Value
	accessCount int
	entropy     float64
	stable      bool
}

func NewUnstable(base Value) *Unstable {
	return &Unstable{base: base, entropy: 1.0}
}

func (*Unstable) isBinding() {}

// Pressure is 1 when the gauge is nil or full and grows by 0.1 per unit of
// energy spent below max.
func Pressure(gauge EnergyGauge) float64 {
	if gauge == nil {
		return 1
	}
	deficit := float64(gauge.Max()-gauge.Current()) / 10
	return 1 + math.Max(0, deficit)
}

func (u *Unstable) Read(gauge EnergyGauge) Value {
	if u.stable {
		return u.base
	}
	pressure := Pressure(gauge)
	result := u.base
	if num, ok := u.base.(NumberValue); ok {
		drift := float64(u.accessCount) * u.entropy * pressure
		result = NumberValue{Val: num.Val + drift}
	}
	u.accessCount++
	u.entropy += pressure * 0.1
	return result
}

func (u *Unstable) Stabilize(gauge EnergyGauge) {
	if u.stable {
		return
	}
	u.base = u.Read(gauge)
	u.stable = true
}

func (u *Unstable) Inspect() Descriptor {
	return Descriptor{
		Unstable:    true,
		Value:       u.base,
		AccessCount: u.accessCount,
		Entropy:     u.entropy,
		Stable:      u.stable,
	}
}

func (u *Unstable) IsStable() bool { return u.stable }

func (u *Unstable) AccessCount() int { return u.accessCount }

func (u *Unstable) Entropy() float64 { return u.entropy }
