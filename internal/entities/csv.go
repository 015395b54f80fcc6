package entities

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Header is the CSV header for entity mapping files.
const Header = "variant,raw,canonical"

const (
	numFields    = 3
	colVariant   = 0
	colRaw       = 1
	colCanonical = 2
)

// AnyVariant marks a rule that applies to every report variant.
const AnyVariant = "*"

// Rule renames one raw entity label for a variant.
type Rule struct {
	Variant   string // a model.Variant name or AnyVariant
	Raw       string
	Canonical string
}

// ReadRules reads an entity mapping CSV (header row required).
func ReadRules(r io.Reader) ([]Rule, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading mapping CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var rules []Rule
	for i, rec := range records[1:] {
		rule, err := UnmarshalRule(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// WriteRules writes an entity mapping CSV including the header.
func WriteRules(w io.Writer, rules []Rule) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, rule := range rules {
		if err := cw.Write(MarshalRule(rule)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalRule converts a Rule to a CSV row.
func MarshalRule(rule Rule) []string {
	row := make([]string, numFields)
	row[colVariant] = rule.Variant
	row[colRaw] = rule.Raw
	row[colCanonical] = rule.Canonical
	return row
}

// UnmarshalRule converts a CSV row to a Rule.
func UnmarshalRule(record []string) (Rule, error) {
	if len(record) != numFields {
		return Rule{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	rule := Rule{
		Variant:   strings.TrimSpace(record[colVariant]),
		Raw:       strings.TrimSpace(record[colRaw]),
		Canonical: strings.TrimSpace(record[colCanonical]),
	}
	if rule.Variant == "" {
		return Rule{}, fmt.Errorf("missing variant")
	}
	if rule.Raw == "" {
		return Rule{}, fmt.Errorf("missing raw label")
	}
	if rule.Canonical == "" {
		return Rule{}, fmt.Errorf("missing canonical label for %q", rule.Raw)
	}
	return rule, nil
}
