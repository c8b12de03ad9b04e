package runtime

import "fmt"

// ErrorKind classifies fatal runtime failures.
type ErrorKind int

const (
	UndefinedVariable ErrorKind = iota + 1
	NotAFunction
	ArityMismatch
	InsufficientEnergy
	InvariantViolation
	AssertionFailed
	CapabilityRemovalFailed
	CapabilityRevoked
	TypeMismatch
	UnknownOperator
	StackOverflow
)

func (k ErrorKind) String() string {
	switch k {
	case UndefinedVariable:
		return "UndefinedVariable"
	case NotAFunction:
		return "NotAFunction"
	case ArityMismatch:
		return "ArityMismatch"
	case InsufficientEnergy:
		return "InsufficientEnergy"
	case InvariantViolation:
		return "InvariantViolation"
	case AssertionFailed:
		return "AssertionFailed"
	case CapabilityRemovalFailed:
		return "CapabilityRemovalFailed"
	case CapabilityRevoked:
		return "CapabilityRevoked"
	case TypeMismatch:
		return "TypeMismatch"
	case UnknownOperator:
		return "UnknownOperator"
	case StackOverflow:
		return "StackOverflow"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a fatal runtime failure. Errors compare equal under errors.Is when
// their kinds match, so callers test against the Err* sentinels.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Errorf builds an *Error of the given kind.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrUndefinedVariable       = &Error{Kind: UndefinedVariable}
	ErrNotAFunction            = &Error{Kind: NotAFunction}
	ErrArityMismatch           = &Error{Kind: ArityMismatch}
	ErrInsufficientEnergy      = &Error{Kind: InsufficientEnergy}
	ErrInvariantViolation      = &Error{Kind: InvariantViolation}
	ErrAssertionFailed         = &Error{Kind: AssertionFailed}
	ErrCapabilityRemovalFailed = &Error{Kind: CapabilityRemovalFailed}
	ErrCapabilityRevoked       = &Error{Kind: CapabilityRevoked}
	ErrTypeMismatch            = &Error{Kind: TypeMismatch}
	ErrUnknownOperator         = &Error{Kind: UnknownOperator}
	ErrStackOverflow           = &Error{Kind: StackOverflow}
)
