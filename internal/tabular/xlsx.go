package tabular

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"tickmill/internal/domain"
)

const sheetName = "Sheet1"

// RenderXLSX serializes one flattened record as a single-sheet workbook with
// a header row and one data row. Values that parse as numbers after
// separator cleanup become numeric cells; everything else stays a string.
func RenderXLSX(rec domain.Record) ([]byte, error) {
	flat := rec.Flatten()

	header := make([]interface{}, len(domain.FieldNames))
	row := make([]interface{}, len(domain.FieldNames))
	for i, name := range domain.FieldNames {
		header[i] = name
		row[i] = cellValue(flat[name])
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("writing xlsx header: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A2", &row); err != nil {
		return nil, fmt.Errorf("writing xlsx row: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serializing xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// cellValue coerces numeric-looking values so spreadsheets treat them as
// numbers. Best-effort, not schema validation.
func cellValue(s string) interface{} {
	if s == "" {
		return ""
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	return s
}
