package report

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RakanEX/finance-db-pyscript/internal/entities"
	"github.com/RakanEX/finance-db-pyscript/internal/grid"
	"github.com/RakanEX/finance-db-pyscript/internal/model"
)

func mustConfig(t *testing.T, v model.Variant) VariantConfig {
	t.Helper()
	cfg, err := ConfigFor(v)
	require.NoError(t, err)
	return cfg
}

// monthlyGrid builds a six-line meta block with the period on line 3.
func monthlyGrid(period string, rest ...[]string) *grid.Grid {
	rows := [][]string{
		{"ElectronX Holdings"},
		{"Income Statement"},
		{"ElectronX Holdings (Consolidated)"},
		{period},
		{"Printed 07/02/2024"},
		{"Options"},
	}
	return grid.New(append(rows, rest...))
}

func TestDetect_Monthly(t *testing.T) {
	g := monthlyGrid("Jun 2024",
		[]string{"Financial Row", "Corp", "", "ElectronX", "Total"},
		[]string{"", "Amount", "", "Amount", "Amount"},
		[]string{"Income", "", "", "", ""},
	)
	l, err := Detect(g, mustConfig(t, model.VariantIncomeMonthly), entities.Defaults())
	require.NoError(t, err)

	assert.Equal(t, 6, l.HeaderRow)
	assert.Equal(t, 8, l.BodyRow)
	assert.Equal(t, "2024-06-30", l.Period.Format(model.DateFormat))
	require.Len(t, l.Columns, 3, "blank header columns are not value columns")
	assert.Equal(t, "Corp", l.Columns[0].Entity)
	assert.Equal(t, 3, l.Columns[1].Index)
	assert.Equal(t, "Holdings", l.Columns[1].Entity)
	assert.Equal(t, "Consol", l.Columns[2].Entity)
	require.Len(t, l.Body, 1)
	assert.Len(t, l.Body[0], 5)
}

func TestDetect_HeaderAfterBlankLines(t *testing.T) {
	g := monthlyGrid("As of Feb 2024",
		nil,
		nil,
		[]string{"Financial Row", "Corp"},
		[]string{"10050 - Cash", "$1.00"},
	)
	l, err := Detect(g, mustConfig(t, model.VariantBalanceMonthly), nil)
	require.NoError(t, err)
	assert.Equal(t, 8, l.HeaderRow)
	assert.Equal(t, "2024-02-29", l.Period.Format(model.DateFormat))
	require.Len(t, l.Body, 1)
	assert.Equal(t, "10050 - Cash", l.Body[0][0])
}

func TestDetect_BadPeriod(t *testing.T) {
	g := monthlyGrid("Second Quarter",
		[]string{"Financial Row", "Corp"},
	)
	_, err := Detect(g, mustConfig(t, model.VariantIncomeMonthly), nil)
	var dg *DateGrammarError
	require.True(t, errors.As(err, &dg))
	assert.Equal(t, "Second Quarter", dg.Literal)
}

func TestDetect_NoHeader(t *testing.T) {
	g := monthlyGrid("Jun 2024")
	_, err := Detect(g, mustConfig(t, model.VariantIncomeMonthly), nil)
	var mi *MalformedInputError
	require.True(t, errors.As(err, &mi))
	assert.True(t, IsFileScoped(err))
}

func TestDetect_OnlyLabelColumn(t *testing.T) {
	g := monthlyGrid("Jun 2024", []string{"Financial Row", "", " "})
	_, err := Detect(g, mustConfig(t, model.VariantIncomeMonthly), nil)
	var mi *MalformedInputError
	require.True(t, errors.As(err, &mi))
}

func TestDetect_Dump(t *testing.T) {
	g := grid.New([][]string{
		{"ElectronX Holdings"},
		{"Balance Sheet (ElectronX)"},
		{"Jan 2024 - Feb 2024"},
		nil,
		{"Printed"},
		{"Options"},
		nil,
		{"Financial Row", "As of Jan 2024", "As of Feb 2024", "Total"},
		{"", "Amount", "Amount", "Amount"},
	})
	l, err := Detect(g, mustConfig(t, model.VariantBalanceDump), entities.Defaults())
	require.NoError(t, err)
	assert.Equal(t, "Holdings", l.Entity)
	require.Len(t, l.Columns, 2)
	assert.Equal(t, "2024-01-31", l.Columns[0].Date.Format(model.DateFormat))
	assert.Equal(t, "2024-02-29", l.Columns[1].Date.Format(model.DateFormat))
	assert.Empty(t, l.Body)
}

func TestDetect_DumpBadColumnDate(t *testing.T) {
	g := grid.New([][]string{
		{"ElectronX Holdings"},
		{"Income Statement - ElectronX Co"},
		nil, nil, nil, nil,
		{"Financial Row", "Jan 2024", "Q1 2024"},
	})
	_, err := Detect(g, mustConfig(t, model.VariantIncomeDump), nil)
	var dg *DateGrammarError
	require.True(t, errors.As(err, &dg))
	assert.Equal(t, "Q1 2024", dg.Literal)
	assert.Equal(t, MonthYear, dg.Grammar)
}

func TestDetect_DumpMissingEntity(t *testing.T) {
	g := grid.New([][]string{
		{"ElectronX Holdings"},
		nil, nil, nil, nil, nil,
		{"Financial Row", "Jan 2024"},
	})
	_, err := Detect(g, mustConfig(t, model.VariantIncomeDump), nil)
	var mi *MalformedInputError
	require.True(t, errors.As(err, &mi))
}

func TestExtractEntity(t *testing.T) {
	tests := []struct {
		text string
		rule EntityRule
		want string
	}{
		{"Income Statement - ElectronX Co", EntityLastToken, "Co"},
		{"Income Statement - ElectronX Co  ", EntityLastToken, "Co"},
		{"Balance Sheet (ElectronX)", EntityBracketed, "ElectronX"},
		{"Balance Sheet ( ElectronX Tech ) (old)", EntityBracketed, "ElectronX Tech"},
		{"Balance Sheet ElectronX", EntityBracketed, "ElectronX"},
		{"", EntityLastToken, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractEntity(tt.text, tt.rule), "text %q", tt.text)
	}
}

func TestConfigFor(t *testing.T) {
	for _, v := range model.Variants {
		cfg, err := ConfigFor(v)
		require.NoError(t, err)
		assert.Equal(t, v, cfg.Variant)
		assert.Equal(t, v.IsDump(), cfg.Axis == AxisDate)
	}
	_, err := ConfigFor("cash-flow")
	assert.Error(t, err)
}
