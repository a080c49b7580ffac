package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"tickmill/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// RenderCSV serializes one flattened record as a two-row CSV: a header of
// field names in schema order and a single data row. Pure function; storing
// the bytes is the caller's concern.
func RenderCSV(rec domain.Record) ([]byte, error) {
	flat := rec.Flatten()

	row := make([]string, len(domain.FieldNames))
	for i, name := range domain.FieldNames {
		row[i] = flat[name]
	}

	var buf bytes.Buffer
	buf.Write(BOM)
	w := csv.NewWriter(&buf)
	if err := w.Write(domain.FieldNames); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}
	if err := w.Write(row); err != nil {
		return nil, fmt.Errorf("writing csv row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}
