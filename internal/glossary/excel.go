package glossary

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// DecodeExcel reads the first sheet of an .xlsx file and returns its rows.
// Only the raw rows are returned; validation happens in Parse.
func DecodeExcel(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("not a readable Excel workbook: %v", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}
