package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RakanEX/finance-db-pyscript/internal/model"
)

// Header is the CSV header of a ledger file.
const Header = "gl_number,description,entity,type,date,value,scenario,timestamp"

const (
	numFields    = 8
	colGLNumber  = 0
	colDesc      = 1
	colEntity    = 2
	colType      = 3
	colDate      = 4
	colValue     = 5
	colScenario  = 6
	colTimestamp = 7
)

// ReadFacts reads all facts from a ledger CSV reader.
func ReadFacts(r io.Reader) ([]model.Fact, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var facts []model.Fact
	for i, rec := range records[1:] {
		f, err := UnmarshalFact(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		facts = append(facts, f)
	}
	return facts, nil
}

// WriteFacts writes facts to a ledger CSV writer (including header).
func WriteFacts(w io.Writer, facts []model.Fact) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, f := range facts {
		if err := cw.Write(MarshalFact(f)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// AppendFacts writes facts to an existing ledger writer (no header).
func AppendFacts(w io.Writer, facts []model.Fact) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for i, f := range facts {
		if err := cw.Write(MarshalFact(f)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalFact converts a Fact to a CSV row. A nil Type is written empty.
func MarshalFact(f model.Fact) []string {
	row := make([]string, numFields)
	row[colGLNumber] = strconv.Itoa(f.GLNumber)
	row[colDesc] = f.Description
	row[colEntity] = f.Entity
	row[colType] = f.TypeString()
	row[colDate] = f.DateString()
	row[colValue] = f.ValueString()
	row[colScenario] = f.Scenario
	row[colTimestamp] = f.Timestamp.UTC().Format(time.RFC3339)
	return row
}

// UnmarshalFact converts a CSV row to a Fact. An empty type reads back as nil.
func UnmarshalFact(record []string) (model.Fact, error) {
	if len(record) != numFields {
		return model.Fact{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	gl, err := strconv.Atoi(record[colGLNumber])
	if err != nil {
		return model.Fact{}, fmt.Errorf("parsing gl_number %q: %w", record[colGLNumber], err)
	}

	date, err := time.Parse(model.DateFormat, record[colDate])
	if err != nil {
		return model.Fact{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	value, err := decimal.NewFromString(record[colValue])
	if err != nil {
		return model.Fact{}, fmt.Errorf("parsing value %q: %w", record[colValue], err)
	}

	var ts time.Time
	if record[colTimestamp] != "" {
		ts, err = time.Parse(time.RFC3339, record[colTimestamp])
		if err != nil {
			return model.Fact{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
		}
		ts = ts.UTC()
	}

	var typ *string
	if record[colType] != "" {
		typ = model.StringPtr(record[colType])
	}

	return model.Fact{
		GLNumber:    gl,
		Description: record[colDesc],
		Entity:      record[colEntity],
		Type:        typ,
		Date:        date,
		Value:       value,
		Scenario:    record[colScenario],
		Timestamp:   ts,
	}, nil
}
