package interpreter

import (
	"bytes"
	"strings"
	"testing"

	"hiesenoether/interpreter-go/pkg/ast"
	"hiesenoether/interpreter-go/pkg/runtime"
)

// runProgram executes stmts on a fresh interpreter and returns it together
// with the captured output lines.
func runProgram(t *testing.T, stmts ...ast.Statement) (*Interpreter, []string, error) {
	t.Helper()
	var out bytes.Buffer
	interp := New(WithOutput(&out), WithRunID("test"))
	err := interp.Run(ast.Prog(stmts...))
	return interp, outputLines(out.String()), err
}

func mustRun(t *testing.T, stmts ...ast.Statement) (*Interpreter, []string) {
	t.Helper()
	interp, lines, err := runProgram(t, stmts...)
	if err != nil {
		t.Fatalf("unexpected error: %v\noutput: %q", err, lines)
	}
	return interp, lines
}

func outputLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func expectEnergy(t *testing.T, interp *Interpreter, current, max int) {
	t.Helper()
	if got := interp.Ledger().Current(); got != current {
		t.Fatalf("expected current energy %d, got %d", current, got)
	}
	if got := interp.Ledger().Max(); got != max {
		t.Fatalf("expected max energy %d, got %d", max, got)
	}
}

// readNumber reads a variable through the interpreter, advancing drift like
// an identifier expression would.
func readNumber(t *testing.T, interp *Interpreter, name string) float64 {
	t.Helper()
	val, err := interp.evaluateExpression(ast.ID(name))
	if err != nil {
		t.Fatalf("reading %s failed: %v", name, err)
	}
	num, ok := val.(runtime.NumberValue)
	if !ok {
		t.Fatalf("expected %s to be a number, got %#v", name, val)
	}
	return num.Val
}
