package report

import (
	"strings"
	"time"

	"github.com/RakanEX/finance-db-pyscript/internal/model"
)

// Grammar is the accepted shape of a reporting-period literal.
type Grammar int

const (
	// MonthYear accepts exactly "Mon YYYY", e.g. "Jun 2024".
	MonthYear Grammar = iota
	// AsOfMonthYear accepts "As of Mon YYYY".
	AsOfMonthYear
	// TrailingMonthYear reads the last two tokens as "Mon YYYY", so both
	// "Jun 2024" and "As of Jun 2024" are accepted.
	TrailingMonthYear
)

const monthYearLayout = "Jan 2006"

func (g Grammar) String() string {
	switch g {
	case MonthYear:
		return "Mon YYYY"
	case AsOfMonthYear:
		return "As of Mon YYYY"
	case TrailingMonthYear:
		return "[...] Mon YYYY"
	default:
		return "unknown"
	}
}

// ParsePeriod parses literal with grammar g and returns the period-end date
// (last calendar day of the month, UTC).
func ParsePeriod(literal string, g Grammar) (time.Time, error) {
	fields := strings.Fields(literal)
	fail := &DateGrammarError{Literal: literal, Grammar: g}

	var month, year string
	switch g {
	case MonthYear:
		if len(fields) != 2 {
			return time.Time{}, fail
		}
		month, year = fields[0], fields[1]
	case AsOfMonthYear:
		if len(fields) != 4 || !strings.EqualFold(fields[0], "as") || !strings.EqualFold(fields[1], "of") {
			return time.Time{}, fail
		}
		month, year = fields[2], fields[3]
	case TrailingMonthYear:
		if len(fields) < 2 {
			return time.Time{}, fail
		}
		month, year = fields[len(fields)-2], fields[len(fields)-1]
	default:
		return time.Time{}, fail
	}

	t, err := time.Parse(monthYearLayout, month+" "+year)
	if err != nil {
		return time.Time{}, fail
	}
	return model.PeriodEnd(t.Year(), t.Month()), nil
}
