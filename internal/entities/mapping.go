package entities

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RakanEX/finance-db-pyscript/internal/model"
)

// MappingLoadError reports an external mapping file that could not be used.
// Callers degrade to the built-in defaults.
type MappingLoadError struct {
	Path string
	Err  error
}

func (e *MappingLoadError) Error() string {
	return fmt.Sprintf("loading entity mapping %s: %v", e.Path, e.Err)
}

func (e *MappingLoadError) Unwrap() error { return e.Err }

// Mapping renames raw entity labels to canonical names, per variant.
// It is read-only once built.
type Mapping struct {
	byVariant map[model.Variant]map[string]string
	rules     map[model.Variant][]Rule
}

// Defaults returns the built-in mapping.
func Defaults() *Mapping {
	m, _ := NewMapping(AllDefaultRules())
	return m
}

// NewMapping builds a Mapping from external rules. A variant named by at least
// one rule uses only its own rules; other variants keep their defaults. Rules
// for AnyVariant override defaults but never a rule written for the variant.
func NewMapping(rules []Rule) (*Mapping, error) {
	specific := make(map[model.Variant][]Rule)
	var wildcard []Rule
	for _, r := range rules {
		if r.Variant == AnyVariant {
			wildcard = append(wildcard, r)
			continue
		}
		v, err := model.ParseVariant(r.Variant)
		if err != nil {
			return nil, err
		}
		r.Variant = string(v)
		specific[v] = append(specific[v], r)
	}

	m := &Mapping{
		byVariant: make(map[model.Variant]map[string]string, len(model.Variants)),
		rules:     make(map[model.Variant][]Rule, len(model.Variants)),
	}
	for _, v := range model.Variants {
		own, external := specific[v]
		base := own
		if !external {
			base = DefaultRules(v)
		}

		lookup := make(map[string]string, len(base)+len(wildcard))
		var effective []Rule
		for _, r := range base {
			lookup[r.Raw] = r.Canonical
		}
		for _, r := range wildcard {
			// Wildcards beat built-in defaults but not rules written for this variant.
			if _, set := lookup[r.Raw]; set && external {
				continue
			}
			lookup[r.Raw] = r.Canonical
		}
		for _, r := range base {
			effective = append(effective, Rule{Variant: string(v), Raw: r.Raw, Canonical: lookup[r.Raw]})
		}
		for _, r := range wildcard {
			if !hasRaw(base, r.Raw) {
				effective = append(effective, Rule{Variant: string(v), Raw: r.Raw, Canonical: lookup[r.Raw]})
			}
		}
		m.byVariant[v] = lookup
		m.rules[v] = effective
	}
	return m, nil
}

func hasRaw(rules []Rule, raw string) bool {
	for _, r := range rules {
		if r.Raw == raw {
			return true
		}
	}
	return false
}

// Load reads a mapping CSV. On any failure it returns the default mapping
// together with a *MappingLoadError, so callers can warn and carry on.
func Load(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return Defaults(), &MappingLoadError{Path: path, Err: err}
	}
	defer f.Close()

	rules, err := ReadRules(f)
	if err != nil {
		return Defaults(), &MappingLoadError{Path: path, Err: err}
	}
	m, err := NewMapping(rules)
	if err != nil {
		return Defaults(), &MappingLoadError{Path: path, Err: err}
	}
	return m, nil
}

// IsLoadError reports whether err came from Load degrading to defaults.
func IsLoadError(err error) bool {
	var le *MappingLoadError
	return errors.As(err, &le)
}

// Resolve returns the canonical name for raw under variant. Unknown labels
// pass through unchanged (trimmed).
func (m *Mapping) Resolve(variant model.Variant, raw string) string {
	raw = strings.TrimSpace(raw)
	if m == nil {
		return raw
	}
	if canonical, ok := m.byVariant[variant][raw]; ok {
		return canonical
	}
	return raw
}

// Rules returns the effective rules for a variant.
func (m *Mapping) Rules(variant model.Variant) []Rule {
	return m.rules[variant]
}

// Save writes the effective rules of every variant to path.
func (m *Mapping) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating mapping dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating mapping file: %w", err)
	}
	defer f.Close()

	var all []Rule
	for _, v := range model.Variants {
		all = append(all, m.rules[v]...)
	}
	if err := WriteRules(f, all); err != nil {
		return fmt.Errorf("writing mapping file: %w", err)
	}
	return nil
}
