package driver

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hiesenoether/interpreter-go/pkg/energy"
)

func writeManifest(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestFileName)
	if err := os.WriteFile(path, []byte(strings.TrimSpace(contents)+"\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifestFull(t *testing.T) {
	path := writeManifest(t, `
name: demo
main: src/main.hn
energy:
  initial: 80
  costs:
    invariant: 12
    stable_var: 1
  gains: {unstable_fn_call: 7}
  removal_gains:
    inspection: 30
  escrow_penalty: 2
source:
  git: https://example.com/demo.git
  tag: v1.0.0
`)
	manifest, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest error: %v", err)
	}
	if manifest.Name != "demo" || manifest.Main != "src/main.hn" {
		t.Fatalf("unexpected manifest header %#v", manifest)
	}
	if manifest.Energy.Initial == nil || *manifest.Energy.Initial != 80 {
		t.Fatalf("expected initial energy 80, got %v", manifest.Energy.Initial)
	}
	if manifest.Source == nil || manifest.Source.Git != "https://example.com/demo.git" {
		t.Fatalf("unexpected source %#v", manifest.Source)
	}
	if rev := manifest.Source.Revision(); rev != "refs/tags/v1.0.0" {
		t.Fatalf("Revision = %q", rev)
	}

	cfg := manifest.EnergyConfig()
	if cfg.Costs[energy.OpInvariant] != 12 || cfg.Costs[energy.OpStableVar] != 1 {
		t.Fatalf("cost overrides not applied: %v", cfg.Costs)
	}
	if cfg.Costs[energy.OpAssert] != 1 || cfg.Costs[energy.OpStabilize] != 5 {
		t.Fatalf("untouched costs should keep defaults: %v", cfg.Costs)
	}
	if cfg.Gains[energy.GainUnstableFnCall] != 7 {
		t.Fatalf("gain override not applied: %v", cfg.Gains)
	}
	if cfg.RemovalGains[energy.CapInspection] != 30 || cfg.RemovalGains[energy.CapInvariants] != 20 {
		t.Fatalf("removal gains not merged: %v", cfg.RemovalGains)
	}
	if cfg.EscrowPenalty != 2 {
		t.Fatalf("EscrowPenalty = %d, want 2", cfg.EscrowPenalty)
	}

	mainPath, err := manifest.MainPath()
	if err != nil {
		t.Fatalf("MainPath error: %v", err)
	}
	if want := filepath.Join(filepath.Dir(path), "src", "main.hn"); mainPath != want {
		t.Fatalf("MainPath = %q, want %q", mainPath, want)
	}
}

func TestLoadManifestMinimalUsesDefaults(t *testing.T) {
	manifest, err := LoadManifest(writeManifest(t, `
name: tiny
main: main.hn
`))
	if err != nil {
		t.Fatalf("LoadManifest error: %v", err)
	}
	if manifest.Energy.Initial != nil || manifest.Source != nil {
		t.Fatalf("expected absent optional sections, got %#v", manifest)
	}
	cfg := manifest.EnergyConfig()
	defaults := energy.DefaultConfig()
	if cfg.EscrowPenalty != defaults.EscrowPenalty || cfg.Costs[energy.OpInvariant] != defaults.Costs[energy.OpInvariant] {
		t.Fatalf("expected default economy, got %#v", cfg)
	}
}

func TestLoadManifestSourceShorthand(t *testing.T) {
	manifest, err := LoadManifest(writeManifest(t, `
name: tiny
main: main.hn
source: /tmp/repo
`))
	if err != nil {
		t.Fatalf("LoadManifest error: %v", err)
	}
	if manifest.Source == nil || manifest.Source.Git != "/tmp/repo" || manifest.Source.Revision() != "" {
		t.Fatalf("unexpected source %#v", manifest.Source)
	}
}

func TestLoadManifestRejectsUnknownFields(t *testing.T) {
	cases := map[string]string{
		"top level": "name: x\nmain: m.hn\ntargets: {}\n",
		"energy":    "name: x\nmain: m.hn\nenergy:\n  budget: 3\n",
		"source":    "name: x\nmain: m.hn\nsource:\n  git: /tmp/r\n  commit: abc\n",
	}
	for name, contents := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadManifest(writeManifest(t, contents))
			if err == nil {
				t.Fatalf("expected unknown field error")
			}
			var verr *ValidationError
			if errors.As(err, &verr) {
				t.Fatalf("expected decode error, got validation error %v", err)
			}
		})
	}
}

func TestLoadManifestValidationAggregatesIssues(t *testing.T) {
	_, err := LoadManifest(writeManifest(t, `
energy:
  initial: -1
  costs:
    teleport: 3
    assert: -2
  escrow_penalty: -4
source:
  rev: abc
  branch: main
`))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	wants := []string{
		"name must be provided",
		"main must be provided",
		"energy.initial must not be negative",
		"energy.escrow_penalty must not be negative",
		"energy.costs.teleport is not a known entry",
		"energy.costs.assert must not be negative",
		"source.git must be provided",
		"only one of rev, tag, or branch",
	}
	if len(verr.Issues) != len(wants) {
		t.Fatalf("expected %d issues, got %d:\n%v", len(wants), len(verr.Issues), err)
	}
	msg := err.Error()
	for _, want := range wants {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected issue %q in:\n%s", want, msg)
		}
	}
}

func TestLoadManifestErrors(t *testing.T) {
	if _, err := LoadManifest(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "missing.yml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	empty := filepath.Join(t.TempDir(), ManifestFileName)
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadManifest(empty); err == nil || !strings.Contains(err.Error(), "is empty") {
		t.Fatalf("expected empty manifest error, got %v", err)
	}
	if _, err := LoadManifest(writeManifest(t, "name: x\nmain: m.hn\nenergy:\n  costs: [1, 2]\n")); err == nil {
		t.Fatalf("expected error for non-mapping cost table")
	}
}

func TestSourceRevisionPreference(t *testing.T) {
	cases := []struct {
		src  *SourceSpec
		want string
	}{
		{nil, ""},
		{&SourceSpec{Git: "g"}, ""},
		{&SourceSpec{Git: "g", Rev: "abc123"}, "abc123"},
		{&SourceSpec{Git: "g", Branch: "dev"}, "refs/remotes/origin/dev"},
		{&SourceSpec{Git: "g", Tag: "v1"}, "refs/tags/v1"},
	}
	for _, tc := range cases {
		if got := tc.src.Revision(); got != tc.want {
			t.Fatalf("Revision(%#v) = %q, want %q", tc.src, got, tc.want)
		}
	}
}

func TestResolveMainAgainstCheckout(t *testing.T) {
	manifest := &Manifest{Name: "demo", Main: "src/main.hn"}
	got, err := manifest.ResolveMain("/cache/checkout")
	if err != nil {
		t.Fatalf("ResolveMain error: %v", err)
	}
	if want := filepath.Join("/cache/checkout", "src", "main.hn"); got != want {
		t.Fatalf("ResolveMain = %q, want %q", got, want)
	}
	if _, err := (&Manifest{Name: "demo"}).ResolveMain("/x"); err == nil {
		t.Fatalf("expected error for missing main")
	}
}
