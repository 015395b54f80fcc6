package report

import "strings"

// IsSectionHeader reports whether row is a section title: a non-blank first
// cell and nothing else.
func IsSectionHeader(row []string) bool {
	if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
		return false
	}
	for _, c := range row[1:] {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// TagSections returns, for each row, the section label in effect. Section
// header rows and rows before the first header get nil.
func TagSections(rows [][]string) []*string {
	tags := make([]*string, len(rows))
	var current *string
	for i, row := range rows {
		if IsSectionHeader(row) {
			label := strings.TrimSpace(row[0])
			current = &label
			continue
		}
		tags[i] = current
	}
	return tags
}
