package entities

import "github.com/RakanEX/finance-db-pyscript/internal/model"

// DefaultRules returns the built-in entity renames for a variant.
func DefaultRules(variant model.Variant) []Rule {
	v := string(variant)
	switch variant {
	case model.VariantIncomeMonthly:
		return []Rule{
			{Variant: v, Raw: "Total", Canonical: "Consol"},
			{Variant: v, Raw: "ElectronX", Canonical: "Holdings"},
		}
	case model.VariantIncomeDump:
		return []Rule{
			{Variant: v, Raw: "Co", Canonical: "Tech"},
			{Variant: v, Raw: "ElectronX", Canonical: "Holdings"},
		}
	case model.VariantBalanceMonthly:
		return []Rule{
			{Variant: v, Raw: "xElimination", Canonical: "Elim"},
			{Variant: v, Raw: "ElectronX", Canonical: "Holdings"},
			{Variant: v, Raw: "Total", Canonical: "Consol"},
		}
	case model.VariantBalanceDump:
		return []Rule{
			{Variant: v, Raw: "ElectronX", Canonical: "Holdings"},
		}
	default:
		return nil
	}
}

// AllDefaultRules returns the built-in renames for every variant.
func AllDefaultRules() []Rule {
	var rules []Rule
	for _, v := range model.Variants {
		rules = append(rules, DefaultRules(v)...)
	}
	return rules
}
