package database

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/schema"
)

// GenerateSchemaSQL returns the idempotent DDL for the whole catalog,
// parents first.
func GenerateSchemaSQL(a DatabaseAdapter, catalog *schema.Catalog, enforceFKs bool) ([]string, error) {
	order, err := catalog.InsertionOrder()
	if err != nil {
		return nil, err
	}
	var stmts []string
	for _, name := range order {
		t, _ := catalog.Table(name)
		stmts = append(stmts, GenerateCreateTableSQL(a, t, enforceFKs))
		if !a.InlineIndexes() {
			stmts = append(stmts, GenerateIndexSQL(a, t)...)
		}
	}
	return stmts, nil
}

func GenerateCreateTableSQL(a DatabaseAdapter, t *schema.Table, enforceFKs bool) string {
	q := a.QuoteIdentifier
	var defs []string

	for _, col := range t.Columns {
		parts := []string{q(col.Name), a.ColumnType(col)}
		if !col.Nullable {
			parts = append(parts, "NOT NULL")
		}
		if col.PrimaryKey {
			parts = append(parts, "PRIMARY KEY")
		} else if col.Unique {
			parts = append(parts, "UNIQUE")
		}
		defs = append(defs, strings.Join(parts, " "))
	}

	for _, col := range t.Columns {
		for _, check := range checks(a, col) {
			defs = append(defs, fmt.Sprintf("CONSTRAINT %s CHECK (%s)", q(constraintName("chk", t.Name, col.Name)), check))
		}
	}

	if enforceFKs {
		for _, fk := range t.ForeignKeys() {
			defs = append(defs, fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
				q(constraintName("fk", t.Name, fk.Column)), q(fk.Column), q(fk.RefTable), q(fk.RefColumn)))
		}
	}

	if a.InlineIndexes() {
		for _, col := range t.Columns {
			if col.Index {
				defs = append(defs, fmt.Sprintf("INDEX %s (%s)", q(constraintName("idx", t.Name, col.Name)), q(col.Name)))
			}
		}
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", q(t.Name), strings.Join(defs, ",\n  "))
}

func GenerateIndexSQL(a DatabaseAdapter, t *schema.Table) []string {
	var stmts []string
	for _, col := range t.Columns {
		if !col.Index {
			continue
		}
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			a.QuoteIdentifier(constraintName("idx", t.Name, col.Name)), a.QuoteIdentifier(t.Name), a.QuoteIdentifier(col.Name)))
	}
	return stmts
}

// checks mirrors the column's range and enum declarations. A column can
// carry several conditions; they are joined so every column gets one
// named constraint.
func checks(a DatabaseAdapter, col schema.Column) []string {
	var conds []string
	name := a.QuoteIdentifier(col.Name)
	if col.Min != nil {
		op := ">="
		if col.Min.Exclusive {
			op = ">"
		}
		conds = append(conds, fmt.Sprintf("%s %s %s", name, op, number(col.Min.Value)))
	}
	if col.Max != nil {
		op := "<="
		if col.Max.Exclusive {
			op = "<"
		}
		conds = append(conds, fmt.Sprintf("%s %s %s", name, op, number(col.Max.Value)))
	}
	if len(col.Enum) > 0 {
		vals := make([]string, len(col.Enum))
		for i, v := range col.Enum {
			vals[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
		}
		conds = append(conds, fmt.Sprintf("%s IN (%s)", name, strings.Join(vals, ", ")))
	}
	if len(conds) == 0 {
		return nil
	}
	return []string{strings.Join(conds, " AND ")}
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func constraintName(kind, table, column string) string {
	return kind + "_" + table + "_" + column
}
