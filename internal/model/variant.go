package model

import (
	"fmt"
	"strings"
)

// Variant identifies one of the known report export shapes.
type Variant string

const (
	VariantIncomeMonthly  Variant = "income-monthly"
	VariantIncomeDump     Variant = "income-dump"
	VariantBalanceMonthly Variant = "balance-monthly"
	VariantBalanceDump    Variant = "balance-dump"
)

// Variants lists every supported variant in a stable order.
var Variants = []Variant{
	VariantIncomeMonthly,
	VariantIncomeDump,
	VariantBalanceMonthly,
	VariantBalanceDump,
}

// legacy mode names used by the old import script.
var variantAliases = map[string]Variant{
	"monthly-income":  VariantIncomeMonthly,
	"dump-income":     VariantIncomeDump,
	"monthly-balance": VariantBalanceMonthly,
	"dump-balance":    VariantBalanceDump,
}

// ParseVariant resolves a variant name, case-insensitively.
// Both "income-monthly" and the legacy "monthly-income" spellings are accepted.
func ParseVariant(s string) (Variant, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, v := range Variants {
		if string(v) == key {
			return v, nil
		}
	}
	if v, ok := variantAliases[key]; ok {
		return v, nil
	}
	return "", fmt.Errorf("unknown report variant %q (want one of %s)", s, VariantNames())
}

// VariantNames returns the supported names joined for help text.
func VariantNames() string {
	names := make([]string, len(Variants))
	for i, v := range Variants {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}

// IsDump reports whether the variant pivots on period columns.
func (v Variant) IsDump() bool {
	return v == VariantIncomeDump || v == VariantBalanceDump
}
