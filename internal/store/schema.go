package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RakanEX/finance-db-pyscript/internal/model"
)

const upsertColumns = "gl_number, description, entity, type, date, value, scenario, timestamp"

const conflictClause = `ON CONFLICT (gl_number, date, entity, value) DO UPDATE SET
	description = excluded.description,
	type = excluded.type,
	scenario = excluded.scenario,
	timestamp = excluded.timestamp`

const orderClause = "ORDER BY date, entity, gl_number, value"

// upsertSQL builds the insert statement; placeholder renders the i-th (1-based) parameter.
func upsertSQL(table string, placeholder func(i int) string) string {
	ph := make([]string, 8)
	for i := range ph {
		ph[i] = placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s)\nVALUES (%s)\n%s",
		table, upsertColumns, strings.Join(ph, ", "), conflictClause)
}

func selectSQL(table string) string {
	return fmt.Sprintf("SELECT %s FROM %s %s", upsertColumns, table, orderClause)
}

// scannedFact holds one row in driver-neutral form.
type scannedFact struct {
	GLNumber    int64
	Description *string
	Entity      string
	Type        *string
	Date        time.Time
	Value       string
	Scenario    *string
	Timestamp   *time.Time
}

func (s scannedFact) fact() (model.Fact, error) {
	v, err := decimal.NewFromString(s.Value)
	if err != nil {
		return model.Fact{}, fmt.Errorf("stored value %q: %w", s.Value, err)
	}
	f := model.Fact{
		GLNumber: int(s.GLNumber),
		Entity:   s.Entity,
		Type:     s.Type,
		Date:     time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), 0, 0, 0, 0, time.UTC),
		Value:    v,
	}
	if s.Description != nil {
		f.Description = *s.Description
	}
	if s.Scenario != nil {
		f.Scenario = *s.Scenario
	}
	if s.Timestamp != nil {
		f.Timestamp = s.Timestamp.UTC()
	}
	return f, nil
}
