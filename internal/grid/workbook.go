package grid

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// readWorkbook reads the first sheet of an .xlsx export.
func readWorkbook(path string) (*Grid, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer file.Close()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("workbook has no sheets: %s", path)
	}

	rows, err := file.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %s: %w", sheetName, err)
	}
	return &Grid{rows: trimTrailingBlank(rows)}, nil
}
