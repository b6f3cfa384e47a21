package artifact

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataerr"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataset"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/schema"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/validator"
)

// EncodeTable renders t as CSV with a header row in declared column order.
func EncodeTable(t *dataset.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(t.Def.ColumnNames()); err != nil {
		return nil, fmt.Errorf("failed to write header for %s: %w", t.Name(), err)
	}
	record := make([]string, len(t.Def.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Def.Columns {
			record[i] = dataset.Format(col.Type, row[i])
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write %s row: %w", t.Name(), err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush %s: %w", t.Name(), err)
	}
	return buf.Bytes(), nil
}

// DecodeTable parses CSV bytes for def. Malformed CSV is an error; fields
// that do not match their column type come back as violations.
func DecodeTable(def *schema.Table, data []byte) (*dataset.Table, []dataerr.Violation, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s csv: %w", def.Name, err)
	}
	if len(records) == 0 {
		return dataset.NewTable(def), []dataerr.Violation{{Table: def.Name, Rule: "header", Message: "file is empty"}}, nil
	}
	t, violations := validator.ParseRecords(def, records[0], records[1:])
	return t, violations, nil
}
