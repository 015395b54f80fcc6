package report

import "strings"

// RawFact is one non-blank (row, value column) cell before field parsing.
type RawFact struct {
	Row    int // index into the body rows
	Label  string
	Type   *string
	Column Column
	Raw    string
}

// Reshape pivots the tagged body into long form: one RawFact per non-blank
// value cell of every data row, in row then column order.
func Reshape(body [][]string, tags []*string, cols []Column) []RawFact {
	var facts []RawFact
	for i, row := range body {
		if IsSectionHeader(row) {
			continue
		}
		label := ""
		if len(row) > 0 {
			label = strings.TrimSpace(row[0])
		}
		for _, col := range cols {
			if col.Index >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[col.Index])
			if cell == "" {
				continue
			}
			facts = append(facts, RawFact{
				Row:    i,
				Label:  label,
				Type:   tags[i],
				Column: col,
				Raw:    cell,
			})
		}
	}
	return facts
}
