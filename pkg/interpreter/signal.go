package interpreter

import "hiesenoether/interpreter-go/pkg/runtime"

// Signal is the control outcome of a statement: keep going, or unwind to the
// nearest call boundary with a value.
type Signal struct {
	returning bool
	value     runtime.Value
}

// Continue is the signal of a statement that completed normally.
var Continue = Signal{}

// Return builds a return signal. A nil value means a bare `return`.
func Return(value runtime.Value) Signal {
	return Signal{returning: true, value: value}
}

func (s Signal) IsReturn() bool { return s.returning }

// Value is the returned value; nil for Continue and for a bare return.
func (s Signal) Value() runtime.Value { return s.value }
