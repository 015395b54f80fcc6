package grid

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// readDelimited reads a comma-delimited export. Each record is stored at the
// index of the physical line it starts on, so blank lines in the meta block
// keep later rows at their expected positions.
func readDelimited(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ParseDelimited(f)
	if err != nil {
		return nil, fmt.Errorf("read export %s: %w", path, err)
	}
	return &Grid{rows: rows}, nil
}

// ParseDelimited reads all records from r, tolerating ragged rows and a
// UTF-8 or UTF-16 byte order mark.
func ParseDelimited(r io.Reader) ([][]string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	cr := csv.NewReader(transform.NewReader(r, decoder))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		// csv.Reader skips empty lines; restore them as empty rows.
		for len(rows) < line-1 {
			rows = append(rows, nil)
		}
		rows = append(rows, rec)
	}
	return trimTrailingBlank(rows), nil
}
