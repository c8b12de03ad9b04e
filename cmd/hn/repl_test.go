package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/peterh/liner"

	"hiesenoether/interpreter-go/pkg/interpreter"
)

type scriptedReader struct {
	lines   []string
	prompts []string
}

func (r *scriptedReader) Prompt(prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	if line == "^C" {
		return "", liner.ErrPromptAborted
	}
	return line, nil
}

func newTestSession() (*replSession, *bytes.Buffer, *bytes.Buffer, *[]string) {
	var stdout, stderr bytes.Buffer
	var history []string
	s := &replSession{
		interp: interpreter.New(
			interpreter.WithOutput(&stdout),
			interpreter.WithInitialEnergy(replEnergy),
		),
		stdout:  &stdout,
		stderr:  &stderr,
		history: func(entry string) { history = append(history, entry) },
	}
	return s, &stdout, &stderr, &history
}

func TestReadSubmissionContinuesWhileIncomplete(t *testing.T) {
	r := &scriptedReader{lines: []string{"if 1 {", "  print 2", "}", "print 3"}}
	code, ok := readSubmission(r)
	if !ok || code != "if 1 {\n  print 2\n}" {
		t.Fatalf("unexpected submission %q (ok=%v)", code, ok)
	}
	if strings.Join(r.prompts, "|") != "hn> |... |... " {
		t.Fatalf("unexpected prompts %q", r.prompts)
	}
	code, ok = readSubmission(r)
	if !ok || code != "print 3" {
		t.Fatalf("unexpected submission %q", code)
	}
	if _, ok := readSubmission(r); ok {
		t.Fatalf("expected end of input")
	}
}

func TestReadSubmissionReturnsSyntaxErrorsImmediately(t *testing.T) {
	r := &scriptedReader{lines: []string{"print 1 2", "x"}}
	code, ok := readSubmission(r)
	if !ok || code != "print 1 2" {
		t.Fatalf("unexpected submission %q", code)
	}
}

func TestReadSubmissionAbortDiscardsBuffer(t *testing.T) {
	r := &scriptedReader{lines: []string{"while 1 {", "^C", "print 5"}}
	code, ok := readSubmission(r)
	if !ok || code != "print 5" {
		t.Fatalf("unexpected submission %q", code)
	}
}

func TestReplSessionKeepsStateAcrossSubmissions(t *testing.T) {
	s, stdout, stderr, history := newTestSession()
	r := &scriptedReader{lines: []string{
		"x <- 1",
		"stable y <- x + 1",
		"print y",
		":energy",
		"print nope",
		"print y * 10",
		"declare unstable fn spin() {",
		"  return 3",
		"}",
		":help",
		":bogus",
		":quit",
		"print 99",
	}}
	s.loop(r)

	want := []string{
		"2",
		"Energy: 95/100",
		"20",
	}
	got := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(got) < len(want) {
		t.Fatalf("unexpected output %q", stdout.String())
	}
	for i, line := range want {
		if got[i] != line {
			t.Fatalf("line %d: want %q, got %q\n%s", i, line, got[i], stdout.String())
		}
	}
	out := stdout.String()
	if !strings.Contains(out, ":energy  show current/max energy") {
		t.Fatalf("expected help text in %q", out)
	}
	if !strings.Contains(out, "unknown command :bogus") {
		t.Fatalf("expected unknown command notice in %q", out)
	}
	if !strings.HasSuffix(out, "## Warning: 4 energy burned from unreleased escrows\n") {
		t.Fatalf("expected escrow burn at session end, got %q", out)
	}
	if strings.Contains(out, "99") {
		t.Fatalf("input after :quit must not run: %q", out)
	}
	if !strings.Contains(stderr.String(), "Error: UndefinedVariable: undefined variable 'nope'") {
		t.Fatalf("unexpected stderr %q", stderr.String())
	}
	wantHistory := "declare unstable fn spin() {   return 3 }"
	found := false
	for _, entry := range *history {
		if entry == wantHistory {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected multi-line entry flattened into history, got %q", *history)
	}
}

func TestReplTopLevelReturnEchoesValue(t *testing.T) {
	s, stdout, _, _ := newTestSession()
	if s.submit("return 4 + 1; print 9") {
		t.Fatalf("return must not end the session")
	}
	if stdout.String() != "5\n" {
		t.Fatalf("unexpected output %q", stdout.String())
	}
}

func TestReplReportsSyntaxErrors(t *testing.T) {
	s, _, stderr, _ := newTestSession()
	s.submit("print )")
	if !strings.HasPrefix(stderr.String(), "Error: parser: 1:7:") {
		t.Fatalf("unexpected stderr %q", stderr.String())
	}
}

func TestReplSurvivesRunawayRecursion(t *testing.T) {
	s, stdout, stderr, _ := newTestSession()
	s.submit("declare fn f(n) { return f(n) }")
	s.submit("f(1)")
	if !strings.Contains(stderr.String(), "Error: StackOverflow: maximum call depth") {
		t.Fatalf("unexpected stderr %q", stderr.String())
	}
	s.submit("print 7")
	if stdout.String() != "7\n" {
		t.Fatalf("session should continue after overflow, got %q", stdout.String())
	}
}
