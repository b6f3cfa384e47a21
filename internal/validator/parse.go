package validator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataerr"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataset"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/schema"
)

// ParseRecords converts text records into a typed table. Fields that fail to
// parse become type violations and their rows are left out of the table.
func ParseRecords(def *schema.Table, header []string, records [][]string) (*dataset.Table, []dataerr.Violation) {
	t := dataset.NewTable(def)
	want := def.ColumnNames()
	if strings.Join(header, ",") != strings.Join(want, ",") {
		return t, []dataerr.Violation{{
			Table:   def.Name,
			Rule:    "header",
			Message: fmt.Sprintf("expected columns %v, got %v", want, header),
		}}
	}

	var violations []dataerr.Violation
	pk := def.ColumnIndex(def.PrimaryKey())
	for line, rec := range records {
		if len(rec) != len(want) {
			violations = append(violations, dataerr.Violation{
				Table:   def.Name,
				Rule:    "type",
				Message: fmt.Sprintf("record %d has %d fields, expected %d", line+1, len(rec), len(want)),
			})
			continue
		}
		var rowID int64
		if id, err := strconv.ParseInt(rec[pk], 10, 64); err == nil {
			rowID = id
		}

		row := make([]any, len(rec))
		ok := true
		for i, col := range def.Columns {
			if rec[i] == "" && col.Nullable {
				continue
			}
			v, err := dataset.Parse(col.Type, rec[i])
			if err != nil {
				violations = append(violations, dataerr.Violation{
					Table: def.Name, RowID: rowID, Column: col.Name, Rule: "type", Message: err.Error(),
				})
				ok = false
				continue
			}
			row[i] = v
		}
		if ok {
			t.Append(row...)
		}
	}
	return t, violations
}
