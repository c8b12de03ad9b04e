package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"hiesenoether/interpreter-go/pkg/energy"
)

// ManifestFileName is the file the CLI searches for when no entry is given.
const ManifestFileName = "program.yml"

// Manifest represents the parsed contents of program.yml.
type Manifest struct {
	Path   string
	Name   string
	Main   string
	Energy EnergySpec
	Source *SourceSpec
}

// EnergySpec carries the economy overrides for a program. Nil pointers mean
// the field was absent.
type EnergySpec struct {
	Initial       *int
	Costs         map[string]int
	Gains         map[string]int
	RemovalGains  map[string]int
	EscrowPenalty *int
}

// SourceSpec names a git revision the entry file should be checked out from.
type SourceSpec struct {
	Git    string
	Rev    string
	Tag    string
	Branch string
}

// Revision returns the revision expression to resolve, preferring rev over
// tag over branch. An empty result means the remote HEAD.
func (s *SourceSpec) Revision() string {
	if s == nil {
		return ""
	}
	switch {
	case s.Rev != "":
		return s.Rev
	case s.Tag != "":
		return "refs/tags/" + s.Tag
	case s.Branch != "":
		return "refs/remotes/origin/" + s.Branch
	default:
		return ""
	}
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// LoadManifest parses program.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", absPath)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}

	manifest := raw.toManifest(absPath)
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

func (m *Manifest) validate() error {
	var errs ValidationError
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	if m.Main == "" {
		errs.Issues = append(errs.Issues, "main must be provided")
	}

	defaults := energy.DefaultConfig()
	if m.Energy.Initial != nil && *m.Energy.Initial < 0 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("energy.initial must not be negative (got %d)", *m.Energy.Initial))
	}
	if m.Energy.EscrowPenalty != nil && *m.Energy.EscrowPenalty < 0 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("energy.escrow_penalty must not be negative (got %d)", *m.Energy.EscrowPenalty))
	}
	for _, table := range []struct {
		field string
		got   map[string]int
		known map[string]int
	}{
		{"costs", m.Energy.Costs, defaults.Costs},
		{"gains", m.Energy.Gains, defaults.Gains},
		{"removal_gains", m.Energy.RemovalGains, defaults.RemovalGains},
	} {
		for _, key := range sortedKeys(table.got) {
			if _, ok := table.known[key]; !ok {
				errs.Issues = append(errs.Issues, fmt.Sprintf("energy.%s.%s is not a known entry (expected one of %s)", table.field, key, strings.Join(sortedKeys(table.known), ", ")))
				continue
			}
			if table.got[key] < 0 {
				errs.Issues = append(errs.Issues, fmt.Sprintf("energy.%s.%s must not be negative", table.field, key))
			}
		}
	}

	if src := m.Source; src != nil {
		if src.Git == "" {
			errs.Issues = append(errs.Issues, "source.git must be provided")
		}
		selectors := 0
		for _, v := range []string{src.Rev, src.Tag, src.Branch} {
			if v != "" {
				selectors++
			}
		}
		if selectors > 1 {
			errs.Issues = append(errs.Issues, "source may specify only one of rev, tag, or branch")
		}
	}

	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// EnergyConfig builds the ledger configuration: defaults overlaid with the
// manifest's tables and penalty.
func (m *Manifest) EnergyConfig() energy.Config {
	cfg := energy.DefaultConfig()
	if m == nil {
		return cfg
	}
	cfg = cfg.Merge(energy.Config{
		Costs:        m.Energy.Costs,
		Gains:        m.Energy.Gains,
		RemovalGains: m.Energy.RemovalGains,
	})
	if m.Energy.EscrowPenalty != nil {
		cfg.EscrowPenalty = *m.Energy.EscrowPenalty
	}
	return cfg
}

// MainPath resolves the entry file relative to the manifest directory.
func (m *Manifest) MainPath() (string, error) {
	if m == nil {
		return "", fmt.Errorf("manifest: missing manifest")
	}
	return m.ResolveMain(filepath.Dir(m.Path))
}

// ResolveMain resolves the entry file against root, which is the manifest
// directory for local programs or a checkout for git sources.
func (m *Manifest) ResolveMain(root string) (string, error) {
	mainPath := strings.TrimSpace(m.Main)
	if mainPath == "" {
		return "", fmt.Errorf("manifest %q missing main entrypoint", m.Name)
	}
	if filepath.IsAbs(mainPath) {
		return filepath.Clean(mainPath), nil
	}
	if root == "" {
		return filepath.Clean(filepath.FromSlash(mainPath)), nil
	}
	return filepath.Join(root, filepath.FromSlash(mainPath)), nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type manifestFile struct {
	Name   string      `yaml:"name"`
	Main   string      `yaml:"main"`
	Energy energyYAML  `yaml:"energy"`
	Source *SourceSpec `yaml:"source"`
}

type energyYAML struct {
	Initial       *int        `yaml:"initial"`
	Costs         energyTable `yaml:"costs"`
	Gains         energyTable `yaml:"gains"`
	RemovalGains  energyTable `yaml:"removal_gains"`
	EscrowPenalty *int        `yaml:"escrow_penalty"`
}

type energyTable map[string]int

func (mf manifestFile) toManifest(path string) *Manifest {
	result := &Manifest{
		Path: path,
		Name: strings.TrimSpace(mf.Name),
		Main: strings.TrimSpace(mf.Main),
		Energy: EnergySpec{
			Initial:       mf.Energy.Initial,
			Costs:         mf.Energy.Costs.clone(),
			Gains:         mf.Energy.Gains.clone(),
			RemovalGains:  mf.Energy.RemovalGains.clone(),
			EscrowPenalty: mf.Energy.EscrowPenalty,
		},
	}
	if mf.Source != nil {
		src := *mf.Source
		src.Git = strings.TrimSpace(src.Git)
		src.Rev = strings.TrimSpace(src.Rev)
		src.Tag = strings.TrimSpace(src.Tag)
		src.Branch = strings.TrimSpace(src.Branch)
		result.Source = &src
	}
	return result
}

func (t energyTable) clone() map[string]int {
	out := make(map[string]int, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

func (t *energyTable) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == 0 {
		*t = make(energyTable)
		return nil
	}
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		*t = make(energyTable)
		return nil
	}
	if value.Kind == yaml.AliasNode {
		return t.UnmarshalYAML(value.Alias)
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("manifest: energy tables must be a mapping (line %d)", value.Line)
	}
	result := make(energyTable, len(value.Content)/2)
	for i := 0; i < len(value.Content); i += 2 {
		keyNode := value.Content[i]
		valNode := value.Content[i+1]

		var key string
		if err := keyNode.Decode(&key); err != nil {
			return err
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("manifest: energy entry names must be non-empty (line %d)", keyNode.Line)
		}
		var amount int
		if err := valNode.Decode(&amount); err != nil {
			return fmt.Errorf("manifest: energy entry %q: %w", key, err)
		}
		result[key] = amount
	}
	*t = result
	return nil
}

// UnmarshalYAML accepts either a bare repository URL or a mapping with a
// revision selector.
func (s *SourceSpec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*s = SourceSpec{Git: strings.TrimSpace(value.Value)}
		return nil
	case yaml.MappingNode:
		// Node.Decode does not inherit KnownFields from the outer decoder.
		for i := 0; i < len(value.Content); i += 2 {
			switch key := value.Content[i].Value; key {
			case "git", "rev", "tag", "branch":
			default:
				return fmt.Errorf("manifest: line %d: field %s not found in source", value.Content[i].Line, key)
			}
		}
		var raw struct {
			Git    string `yaml:"git"`
			Rev    string `yaml:"rev"`
			Tag    string `yaml:"tag"`
			Branch string `yaml:"branch"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		*s = SourceSpec{Git: raw.Git, Rev: raw.Rev, Tag: raw.Tag, Branch: raw.Branch}
		return nil
	case yaml.AliasNode:
		return s.UnmarshalYAML(value.Alias)
	default:
		return fmt.Errorf("manifest: source must be a string or mapping, found %s", value.ShortTag())
	}
}
