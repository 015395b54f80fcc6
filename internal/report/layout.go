package report

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/RakanEX/finance-db-pyscript/internal/entities"
	"github.com/RakanEX/finance-db-pyscript/internal/grid"
)

var bracketed = regexp.MustCompile(`\((.*?)\)`)

// Column is one pivoted value column, with its axis value resolved.
type Column struct {
	Index  int       // position in the header row
	Header string    // trimmed header text
	Entity string    // canonical entity (AxisEntity)
	Date   time.Time // period end (AxisDate)
}

// Layout is what the detector learned about one export.
type Layout struct {
	HeaderRow int        // line index of the header
	Header    []string   // trimmed header cells
	BodyRow   int        // line index of Body[0]
	Body      [][]string // rows below the header, header-width
	Columns   []Column
	Period    time.Time // monthly exports
	Entity    string    // dump exports, canonical
}

// Detect locates the header, reads the period or entity from the meta block,
// and resolves the value columns of g according to cfg.
func Detect(g *grid.Grid, cfg VariantConfig, mapping *entities.Mapping) (*Layout, error) {
	headerRow := -1
	for i := cfg.HeaderRow; i < g.Len(); i++ {
		if !grid.IsBlank(g.Row(i)) {
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		return nil, &MalformedInputError{Reason: fmt.Sprintf("no header row at or after line %d", cfg.HeaderRow+1)}
	}

	raw := g.Row(headerRow)
	header := make([]string, len(raw))
	for i, h := range raw {
		header[i] = strings.TrimSpace(h)
	}
	if len(header) < 2 {
		return nil, &MalformedInputError{Reason: fmt.Sprintf("header on line %d has no value columns", headerRow+1)}
	}

	l := &Layout{HeaderRow: headerRow, Header: header}
	l.Body, l.BodyRow = bodyRows(g, headerRow, len(header), cfg.SkipAfterHeader)

	switch cfg.Axis {
	case AxisEntity:
		period, err := ParsePeriod(g.Cell(cfg.PeriodRow, 0), cfg.PeriodGrammar)
		if err != nil {
			return nil, err
		}
		l.Period = period
	case AxisDate:
		text := strings.TrimSpace(g.Cell(cfg.EntityRow, 0))
		if text == "" {
			return nil, &MalformedInputError{Reason: fmt.Sprintf("no entity label on line %d", cfg.EntityRow+1)}
		}
		l.Entity = mapping.Resolve(cfg.Variant, ExtractEntity(text, cfg.EntityRule))
	}

	cols, err := valueColumns(header, cfg, mapping)
	if err != nil {
		return nil, err
	}
	l.Columns = cols
	return l, nil
}

// bodyRows returns the header-width rows below the header, minus the first
// skip non-blank rows, and the line index of the first returned row.
func bodyRows(g *grid.Grid, headerRow, width, skip int) ([][]string, int) {
	rows := g.Rectangular(headerRow+1, width)
	start := 0
	for skip > 0 && start < len(rows) {
		if !grid.IsBlank(rows[start]) {
			skip--
		}
		start++
	}
	return rows[start:], headerRow + 1 + start
}

func valueColumns(header []string, cfg VariantConfig, mapping *entities.Mapping) ([]Column, error) {
	var cols []Column
	for i, h := range header[1:] {
		idx := i + 1
		if h == "" || dropped(h, cfg.DropColumns) {
			continue
		}
		col := Column{Index: idx, Header: h}
		switch cfg.Axis {
		case AxisEntity:
			col.Entity = mapping.Resolve(cfg.Variant, h)
		case AxisDate:
			date, err := ParsePeriod(h, cfg.ColumnGrammar)
			if err != nil {
				return nil, err
			}
			col.Date = date
		}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		return nil, &MalformedInputError{Reason: "header has no value columns"}
	}
	return cols, nil
}

func dropped(header string, drop []string) bool {
	for _, d := range drop {
		if strings.EqualFold(header, d) {
			return true
		}
	}
	return false
}

// ExtractEntity reads an entity name from a descriptive cell.
func ExtractEntity(text string, rule EntityRule) string {
	if rule == EntityBracketed {
		if m := bracketed.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
