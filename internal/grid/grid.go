package grid

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrEmpty is returned when a file holds no rows at all.
var ErrEmpty = errors.New("file has no rows")

// Grid is an ordered sequence of rows of raw cells. Rows may differ in width.
type Grid struct {
	rows [][]string
}

// New wraps rows in a Grid. The slice is not copied.
func New(rows [][]string) *Grid {
	return &Grid{rows: rows}
}

// ReadFile loads path and drops the first skip rows. Workbooks (.xlsx, .xlsm)
// are read from their first sheet; anything else is read as comma-delimited text.
func ReadFile(path string, skip int) (*Grid, error) {
	var (
		g   *Grid
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		g, err = readWorkbook(path)
	default:
		g, err = readDelimited(path)
	}
	if err != nil {
		return nil, err
	}
	if g.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	return g.Skip(skip), nil
}

// Len returns the number of rows.
func (g *Grid) Len() int { return len(g.rows) }

// Row returns row i, or nil when out of range.
func (g *Grid) Row(i int) []string {
	if i < 0 || i >= len(g.rows) {
		return nil
	}
	return g.rows[i]
}

// Cell returns the cell at (r, c), or "" when out of range.
func (g *Grid) Cell(r, c int) string {
	row := g.Row(r)
	if c < 0 || c >= len(row) {
		return ""
	}
	return row[c]
}

// Skip returns a grid without its first n rows.
func (g *Grid) Skip(n int) *Grid {
	if n <= 0 {
		return g
	}
	if n >= len(g.rows) {
		return &Grid{}
	}
	return &Grid{rows: g.rows[n:]}
}

// Rectangular returns a copy of rows[from:] where every row has exactly width
// cells: short rows are padded with "" and long rows are truncated.
func (g *Grid) Rectangular(from, width int) [][]string {
	if from < 0 {
		from = 0
	}
	if from >= len(g.rows) {
		return nil
	}
	out := make([][]string, 0, len(g.rows)-from)
	for _, row := range g.rows[from:] {
		fixed := make([]string, width)
		copy(fixed, row)
		out = append(out, fixed)
	}
	return out
}

// IsBlank reports whether every cell of row is empty after trimming.
func IsBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// trimTrailingBlank drops fully blank rows from the end.
func trimTrailingBlank(rows [][]string) [][]string {
	n := len(rows)
	for n > 0 && IsBlank(rows[n-1]) {
		n--
	}
	return rows[:n]
}
