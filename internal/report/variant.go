package report

import (
	"fmt"

	"github.com/RakanEX/finance-db-pyscript/internal/model"
)

// Axis is the dimension carried by the pivoted value columns.
type Axis int

const (
	// AxisEntity means one value column per entity (monthly exports).
	AxisEntity Axis = iota
	// AxisDate means one value column per period (dump exports).
	AxisDate
)

func (a Axis) String() string {
	if a == AxisDate {
		return "date"
	}
	return "entity"
}

// EntityRule says how a file-scoped entity is read from its descriptive cell.
type EntityRule int

const (
	// EntityFromColumns takes entities from the value column headers.
	EntityFromColumns EntityRule = iota
	// EntityLastToken takes the last whitespace-delimited token.
	EntityLastToken
	// EntityBracketed takes the text inside the first "(...)", falling back
	// to the last token.
	EntityBracketed
)

// VariantConfig holds everything that differs between the report variants.
// Row indexes are physical line indexes in the export (0-based).
type VariantConfig struct {
	Variant         model.Variant
	Axis            Axis
	HeaderRow       int // first candidate line for the column header
	SkipAfterHeader int // non-blank rows discarded right after the header

	// Monthly exports: period literal in column 0 of PeriodRow.
	PeriodRow     int
	PeriodGrammar Grammar

	// Dump exports: entity literal in column 0 of EntityRow, period per column.
	EntityRow     int
	EntityRule    EntityRule
	ColumnGrammar Grammar

	// DropColumns are value columns ignored before pivoting.
	DropColumns []string
}

var builtinConfigs = map[model.Variant]VariantConfig{
	model.VariantIncomeMonthly: {
		Variant:         model.VariantIncomeMonthly,
		Axis:            AxisEntity,
		HeaderRow:       6,
		SkipAfterHeader: 1,
		PeriodRow:       3,
		PeriodGrammar:   TrailingMonthYear,
	},
	model.VariantIncomeDump: {
		Variant:         model.VariantIncomeDump,
		Axis:            AxisDate,
		HeaderRow:       6,
		SkipAfterHeader: 1,
		EntityRow:       1,
		EntityRule:      EntityLastToken,
		ColumnGrammar:   MonthYear,
		DropColumns:     []string{"Total"},
	},
	model.VariantBalanceMonthly: {
		Variant:         model.VariantBalanceMonthly,
		Axis:            AxisEntity,
		HeaderRow:       6,
		SkipAfterHeader: 0,
		PeriodRow:       3,
		PeriodGrammar:   TrailingMonthYear,
	},
	model.VariantBalanceDump: {
		Variant:         model.VariantBalanceDump,
		Axis:            AxisDate,
		HeaderRow:       7,
		SkipAfterHeader: 1,
		EntityRow:       1,
		EntityRule:      EntityBracketed,
		ColumnGrammar:   AsOfMonthYear,
		DropColumns:     []string{"Total"},
	},
}

// ConfigFor returns the built-in configuration of a variant.
func ConfigFor(v model.Variant) (VariantConfig, error) {
	cfg, ok := builtinConfigs[v]
	if !ok {
		return VariantConfig{}, fmt.Errorf("no layout for report variant %q", v)
	}
	return cfg, nil
}
