package ledger

import (
	"fmt"

	"github.com/RakanEX/finance-db-pyscript/internal/model"
)

// ValidationError describes a single fact that breaks a ledger rule.
type ValidationError struct {
	Index       int    // position of the fact in the batch
	Field       string // offending column
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("fact %d [%s]: %s", e.Index, e.Field, e.Description)
}

// ValidateFacts checks the rules every persisted fact must satisfy: a
// five-digit GL number, a non-zero value, an entity, a month-end date and a
// scenario. Values keep whatever precision the export printed.
func ValidateFacts(facts []model.Fact) []ValidationError {
	var errs []ValidationError
	add := func(i int, field, format string, args ...any) {
		errs = append(errs, ValidationError{Index: i, Field: field, Description: fmt.Sprintf(format, args...)})
	}

	for i, f := range facts {
		if f.GLNumber <= 0 || f.GLNumber > 99999 {
			add(i, "gl_number", "GL number %d is not a 5-digit account", f.GLNumber)
		}

		if f.Value.IsZero() {
			add(i, "value", "zero amounts are never stored")
		}

		if f.Entity == "" {
			add(i, "entity", "entity is empty")
		}

		if f.Date.IsZero() {
			add(i, "date", "date is missing")
		} else if end := model.PeriodEnd(f.Date.Year(), f.Date.Month()); !f.Date.Equal(end) {
			add(i, "date", "date %s is not a period end", f.DateString())
		}

		if f.Scenario == "" {
			add(i, "scenario", "scenario is empty")
		}
	}
	return errs
}
