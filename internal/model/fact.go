package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultScenario tags facts when the caller does not supply one.
const DefaultScenario = "Actual"

// DateFormat is the canonical period-end date layout.
const DateFormat = "2006-01-02"

// Columns is the fixed column order of an emitted batch.
var Columns = []string{
	"GL_Number",
	"Description",
	"Entity",
	"Type",
	"Date",
	"Value",
	"Scenario",
	"Timestamp",
}

// Fact is one normalized general-ledger amount, ready for persistence.
// GL_Number, Date, Entity and Value form the natural key.
type Fact struct {
	GLNumber    int
	Description string
	Entity      string
	Type        *string // nil when no section header preceded the row
	Date        time.Time
	Value       decimal.Decimal
	Scenario    string
	Timestamp   time.Time
}

// TypeString returns the section label, or "" when absent.
func (f Fact) TypeString() string {
	if f.Type == nil {
		return ""
	}
	return *f.Type
}

// DateString returns the period-end date as YYYY-MM-DD.
func (f Fact) DateString() string {
	return f.Date.Format(DateFormat)
}

// ValueString returns the canonical text form of the amount.
func (f Fact) ValueString() string {
	return FormatAmount(f.Value)
}

// Key returns the natural key used for upserts.
func (f Fact) Key() FactKey {
	return FactKey{
		GLNumber: f.GLNumber,
		Date:     f.DateString(),
		Entity:   f.Entity,
		Value:    f.ValueString(),
	}
}

// FactKey is the natural composite key (GL_Number, Date, Entity, Value).
type FactKey struct {
	GLNumber int
	Date     string
	Entity   string
	Value    string
}

// FormatAmount renders an amount with at least two decimal places:
// 1250 -> "1250.00", -310.5 -> "-310.50", 0.125 -> "0.125".
// Trailing zeros beyond two places are dropped: 12.5000 -> "12.50".
func FormatAmount(d decimal.Decimal) string {
	places := int32(2)
	if _, frac, ok := strings.Cut(d.String(), "."); ok && int32(len(frac)) > places {
		places = int32(len(frac))
	}
	return d.StringFixed(places)
}

// PeriodEnd returns the last calendar day of the given month, at UTC midnight.
func PeriodEnd(year int, month time.Month) time.Time {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
}

// StringPtr returns a pointer to s. Handy for building Type values.
func StringPtr(s string) *string {
	return &s
}
