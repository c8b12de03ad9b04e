package runtime

import (
	"fmt"
	"strconv"
	"strings"

	"hiesenoether/interpreter-go/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindBool
	KindRange
	KindSequence
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindRange:
		return "range"
	case KindSequence:
		return "sequence"
	case KindFunction:
		return "function"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is a raw host value: what expressions evaluate to.
type Value interface {
	Kind() Kind
}

// Binding is what the environment stores under a name: a Cell (stable or
// unstable data) or a *FunctionValue.
type Binding interface {
	isBinding()
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type NumberValue struct {
	Val float64
}

func (v NumberValue) Kind() Kind { return KindNumber }

type StringValue struct {
	Val string
}

func (v StringValue) Kind() Kind { return KindString }

type BoolValue struct {
	Val bool
}

func (v BoolValue) Kind() Kind { return KindBool }

//-----------------------------------------------------------------------------
// Collections and ranges
//-----------------------------------------------------------------------------

// RangeValue is a half-open integer range with a non-zero step.
type RangeValue struct {
	Start int64
	End   int64
	Step  int64
}

func (v RangeValue) Kind() Kind { return KindRange }

// Empty reports whether the range yields no numbers.
func (v RangeValue) Empty() bool {
	switch {
	case v.Step > 0:
		return v.Start >= v.End
	case v.Step < 0:
		return v.Start <= v.End
	default:
		return true
	}
}

// Values expands the range into numbers. Distances are taken in uint64 so
// bounds near the int64 limits cannot wrap the counter.
func (v RangeValue) Values() []Value {
	if v.Empty() {
		return nil
	}
	var out []Value
	if v.Step > 0 {
		step := uint64(v.Step)
		for n := v.Start; ; n += v.Step {
			out = append(out, NumberValue{Val: float64(n)})
			if uint64(v.End)-uint64(n) <= step {
				break
			}
		}
		return out
	}
	step := -uint64(v.Step)
	for n := v.Start; ; n += v.Step {
		out = append(out, NumberValue{Val: float64(n)})
		if uint64(n)-uint64(v.End) <= step {
			break
		}
	}
	return out
}

type SequenceValue struct {
	Elements []Value
}

func (v SequenceValue) Kind() Kind { return KindSequence }

//-----------------------------------------------------------------------------
// Functions
//-----------------------------------------------------------------------------

// FunctionValue is a declared function. Closure is a shallow copy of the
// global bindings taken at declaration time.
type FunctionValue struct {
	Name       string
	Params     []string
	Body       []ast.Statement
	IsPure     bool
	IsUnstable bool
	Closure    map[string]Binding
}

func (v *FunctionValue) Kind() Kind { return KindFunction }
func (*FunctionValue) isBinding()   {}

func (v *FunctionValue) String() string {
	var b strings.Builder
	b.WriteString("<fn ")
	b.WriteString(v.Name)
	b.WriteString("(")
	b.WriteString(strings.Join(v.Params, ", "))
	b.WriteString(")")
	switch {
	case v.IsPure:
		b.WriteString(" pure")
	case v.IsUnstable:
		b.WriteString(" unstable")
	}
	b.WriteString(">")
	return b.String()
}

//-----------------------------------------------------------------------------
// Helpers
//-----------------------------------------------------------------------------

// Format renders a value the way `print` shows it.
func Format(val Value) string {
	switch v := val.(type) {
	case nil:
		return "0"
	case NumberValue:
		return ast.FormatNumber(v.Val)
	case StringValue:
		return v.Val
	case BoolValue:
		return strconv.FormatBool(v.Val)
	case RangeValue:
		if v.Step == 1 {
			return fmt.Sprintf("range(%d, %d)", v.Start, v.End)
		}
		return fmt.Sprintf("range(%d, %d, %d)", v.Start, v.End, v.Step)
	case SequenceValue:
		parts := make([]string, 0, len(v.Elements))
		for _, el := range v.Elements {
			if s, ok := el.(StringValue); ok {
				parts = append(parts, strconv.Quote(s.Val))
				continue
			}
			parts = append(parts, Format(el))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *FunctionValue:
		return v.String()
	default:
		return fmt.Sprintf("[%s]", val.Kind())
	}
}

// Truthy reports whether a value counts as true in a condition.
func Truthy(val Value) bool {
	switch v := val.(type) {
	case nil:
		return false
	case BoolValue:
		return v.Val
	case NumberValue:
		return v.Val != 0
	case StringValue:
		return v.Val != ""
	case SequenceValue:
		return len(v.Elements) > 0
	case RangeValue:
		return !v.Empty()
	default:
		return true
	}
}

// Equal compares two values structurally. Values of different kinds are
// never equal.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case NumberValue:
		bv, ok := b.(NumberValue)
		return ok && av.Val == bv.Val
	case StringValue:
		bv, ok := b.(StringValue)
		return ok && av.Val == bv.Val
	case BoolValue:
		bv, ok := b.(BoolValue)
		return ok && av.Val == bv.Val
	case RangeValue:
		bv, ok := b.(RangeValue)
		return ok && av == bv
	case SequenceValue:
		bv, ok := b.(SequenceValue)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !Equal(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *FunctionValue:
		bv, ok := b.(*FunctionValue)
		return ok && av == bv
	default:
		return a == nil && b == nil
	}
}
