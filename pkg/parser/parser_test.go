package parser

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"hiesenoether/interpreter-go/pkg/ast"
)

const sampleSource = `energy[100]
x <- 5
stable y <- 10
stabilize x
declare unstable fn evolve(n) { return n + 1 }
declare pure fn square(n) {
    return n * n
}
declare fn noop() { return }
print evolve(5)
inspect x
query energy
invariant y > 0
assert y == 10
stable if x > 3 { print "big" } else { print "small" }
while x < 10 { x <- x + 1 }
for i in range(0, 3) { print i }
for s in [1, 'two', 3,] { print s }
remove[inspection]
noop()
`

func TestParseSampleProgram(t *testing.T) {
	program, err := Parse([]byte(sampleSource))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := ast.Prog(
		ast.Energy(100),
		ast.Assign("x", ast.Num(5)),
		ast.AssignStable("y", ast.Num(10)),
		ast.Stabilize("x"),
		ast.UnstableFn("evolve", []string{"n"}, ast.Ret(ast.Bin("+", ast.ID("n"), ast.Num(1)))),
		ast.PureFn("square", []string{"n"}, ast.Ret(ast.Bin("*", ast.ID("n"), ast.ID("n")))),
		ast.Fn("noop", nil, ast.Ret(nil)),
		ast.Print(ast.Call("evolve", ast.Num(5))),
		ast.Inspect(ast.ID("x")),
		ast.Query(),
		ast.Invariant(ast.Bin(">", ast.ID("y"), ast.Num(0))),
		ast.Assert(ast.Bin("==", ast.ID("y"), ast.Num(10))),
		ast.StableIf(ast.Bin(">", ast.ID("x"), ast.Num(3)), ast.Block(ast.Print(ast.Str("big"))), ast.Block(ast.Print(ast.Str("small")))),
		ast.While(ast.Bin("<", ast.ID("x"), ast.Num(10)), ast.Assign("x", ast.Bin("+", ast.ID("x"), ast.Num(1)))),
		ast.For("i", ast.Range(ast.Num(0), ast.Num(3)), ast.Print(ast.ID("i"))),
		ast.For("s", ast.Seq(ast.Num(1), ast.Str("two"), ast.Num(3)), ast.Print(ast.ID("s"))),
		ast.Remove("inspection"),
		ast.Call("noop"),
	)
	if !reflect.DeepEqual(program, want) {
		t.Fatalf("parse mismatch:\nwant %s\ngot  %s", ast.Format(want), ast.Format(program))
	}
}

func TestParsePrecedence(t *testing.T) {
	cases := []struct {
		src  string
		want ast.Expression
	}{
		{"1 + 2 * 3", ast.Bin("+", ast.Num(1), ast.Bin("*", ast.Num(2), ast.Num(3)))},
		{"(1 + 2) * 3", ast.Bin("*", ast.Bin("+", ast.Num(1), ast.Num(2)), ast.Num(3))},
		{"10 - 4 - 3", ast.Bin("-", ast.Bin("-", ast.Num(10), ast.Num(4)), ast.Num(3))},
		{"a or b and c", ast.Bin("or", ast.ID("a"), ast.Bin("and", ast.ID("b"), ast.ID("c")))},
		{"not a == b", ast.Bin("==", ast.Not(ast.ID("a")), ast.ID("b"))},
		{"-x * 2 % 3", ast.Bin("%", ast.Bin("*", ast.Neg(ast.ID("x")), ast.Num(2)), ast.Num(3))},
		{"x < -1", ast.Bin("<", ast.ID("x"), ast.Neg(ast.Num(1)))},
		{"a <= b != c >= d", ast.Bin(">=", ast.Bin("!=", ast.Bin("<=", ast.ID("a"), ast.ID("b")), ast.ID("c")), ast.ID("d"))},
		{"1 + 2 == 3 and not 0 or 1", ast.Bin("or",
			ast.Bin("and", ast.Bin("==", ast.Bin("+", ast.Num(1), ast.Num(2)), ast.Num(3)), ast.Not(ast.Num(0))),
			ast.Num(1))},
		{"f(1, g(2), [3])", ast.Call("f", ast.Num(1), ast.Call("g", ast.Num(2)), ast.Seq(ast.Num(3)))},
		{"range(10, 0, -2)", ast.RangeStep(ast.Num(10), ast.Num(0), ast.Neg(ast.Num(2)))},
		{"2.5", ast.Num(2.5)},
		{`"a\tb\"c"`, ast.Str("a\tb\"c")},
	}
	for _, tc := range cases {
		program, err := Parse([]byte("print " + tc.src))
		if err != nil {
			t.Fatalf("%s: parse failed: %v", tc.src, err)
		}
		got := program.Statements[0].(*ast.PrintStatement).Value
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: want %s, got %s", tc.src, ast.Format(tc.want), ast.Format(got))
		}
	}
}

func TestParseSeparatorsAndComments(t *testing.T) {
	src := "# header comment\nx <- 1 # trailing\n\n; print x; print 2\nif x { print 1; print 2 }\n"
	program, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := ast.Prog(
		ast.Assign("x", ast.Num(1)),
		ast.Print(ast.ID("x")),
		ast.Print(ast.Num(2)),
		ast.If(ast.ID("x"), ast.Block(ast.Print(ast.Num(1)), ast.Print(ast.Num(2))), nil),
	)
	if !reflect.DeepEqual(program, want) {
		t.Fatalf("parse mismatch:\nwant %s\ngot  %s", ast.Format(want), ast.Format(program))
	}
}

func TestParseGreedyAssignArrow(t *testing.T) {
	program, err := Parse([]byte("x<-1"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !reflect.DeepEqual(program, ast.Prog(ast.Assign("x", ast.Num(1)))) {
		t.Fatalf("unexpected tree %s", ast.Format(program))
	}
}

func TestParseElseIfChain(t *testing.T) {
	program, err := Parse([]byte("if a { print 1 } else if b { print 2 } else { }"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	inner := ast.If(ast.ID("b"), ast.Block(ast.Print(ast.Num(2))), []ast.Statement{})
	want := ast.Prog(ast.If(ast.ID("a"), ast.Block(ast.Print(ast.Num(1))), ast.Block(inner)))
	if !reflect.DeepEqual(program, want) {
		t.Fatalf("parse mismatch:\nwant %s\ngot  %s", ast.Format(want), ast.Format(program))
	}
}

func TestParseMultiLineArguments(t *testing.T) {
	program, err := Parse([]byte("print f(1,\n  2)\nprint [\n 3\n]"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(program.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(program.Statements))
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		src     string
		line    int
		column  int
		message string
	}{
		{"x <- \n", 1, 6, "expected expression"},
		{"print 1\nx", 2, 1, "unexpected identifier"},
		{"energy[1.5]", 1, 8, "must be an integer"},
		{"print 1 2", 1, 9, "expected end of statement"},
		{"range(0, 1)", 1, 1, "only function calls"},
		{"print range(1)", 1, 7, "range expects 2 or 3 arguments"},
		{"declare fn f(a, a) { }", 1, 17, "duplicate parameter"},
		{"x <- 1 @ 2", 1, 8, "unexpected character"},
		{"}", 1, 1, "unexpected \"}\""},
		{"print 1.", 1, 7, "malformed number"},
		{`print "a\q"`, 1, 9, "unknown escape"},
		{"query", 1, 6, "expected 'energy'"},
	}
	for _, tc := range cases {
		_, err := Parse([]byte(tc.src))
		var syn *SyntaxError
		if !errors.As(err, &syn) {
			t.Fatalf("%q: expected SyntaxError, got %v", tc.src, err)
		}
		if syn.Line != tc.line || syn.Column != tc.column || !strings.Contains(syn.Message, tc.message) {
			t.Fatalf("%q: expected %d:%d %q, got %v", tc.src, tc.line, tc.column, tc.message, err)
		}
		if syn.Incomplete {
			t.Fatalf("%q: error should not be marked incomplete", tc.src)
		}
	}
}

func TestIncompleteInput(t *testing.T) {
	incomplete := []string{
		"if x {",
		"while x { print 1",
		"declare fn f(a,",
		"print (1 +",
		`print "abc`,
		"stable if x > 1 {\n print 1\n} else {",
	}
	for _, src := range incomplete {
		if _, err := Parse([]byte(src)); !IsIncomplete(err) {
			t.Fatalf("%q: expected incomplete error, got %v", src, err)
		}
	}
	complete := []string{"print", "x", "print 1 +", "if x { } }"}
	for _, src := range complete {
		_, err := Parse([]byte(src))
		if err == nil {
			t.Fatalf("%q: expected an error", src)
		}
		if IsIncomplete(err) {
			t.Fatalf("%q: should not be incomplete: %v", src, err)
		}
	}
}

func TestFormattedProgramReparses(t *testing.T) {
	program, err := Parse([]byte(sampleSource))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	again, err := Parse([]byte(ast.Format(program)))
	if err != nil {
		t.Fatalf("reparse failed: %v\n%s", err, ast.Format(program))
	}
	if !reflect.DeepEqual(program, again) {
		t.Fatalf("formatted program changed meaning:\n%s\n%s", ast.Format(program), ast.Format(again))
	}
}

func TestParsedProgramSurvivesJSONInterchange(t *testing.T) {
	program, err := Parse([]byte(sampleSource))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	data, err := ast.MarshalProgram(program)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	decoded, err := ast.DecodeProgram(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !reflect.DeepEqual(program, decoded) {
		t.Fatalf("json round trip mismatch")
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.hn")
	if err := os.WriteFile(path, []byte("print 1\nprint ("), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := ParseFile(path)
	if err == nil || !strings.Contains(err.Error(), "main.hn") {
		t.Fatalf("expected error naming the file, got %v", err)
	}
	if !IsIncomplete(err) {
		t.Fatalf("wrapped errors should still report incompleteness")
	}
	if _, err := ParseFile(filepath.Join(dir, "missing.hn")); err == nil {
		t.Fatalf("expected read error")
	}
}
