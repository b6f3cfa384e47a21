// Package validator evaluates the declarative schema against candidate
// tables. It reports every violation it finds instead of stopping early.
package validator

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataerr"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataset"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/schema"
)

// Tolerance bounds float comparisons: a and b agree when
// |a-b| <= max(Abs, Rel*max(|a|,|b|)).
type Tolerance struct {
	Abs float64
	Rel float64
}

func (t Tolerance) Within(a, b float64) bool {
	limit := math.Max(t.Abs, t.Rel*math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= limit
}

type Validator struct {
	catalog   *schema.Catalog
	reference time.Time
	tol       Tolerance
}

func New(catalog *schema.Catalog, reference time.Time, tol Tolerance) *Validator {
	return &Validator{catalog: catalog, reference: reference, tol: tol}
}

func (v *Validator) Tolerance() Tolerance { return v.tol }

// ValidateTable checks t against its declaration and its committed parents.
func (v *Validator) ValidateTable(t *dataset.Table, committed *dataset.Snapshot) []dataerr.Violation {
	c := &check{table: t}

	parents := make(map[string]*parentIndex)
	for _, fk := range t.Def.ForeignKeys() {
		if _, ok := parents[fk.Column]; ok {
			continue
		}
		p, ok := committed.Table(fk.RefTable)
		if !ok {
			c.add(-1, fk.Column, "foreign_key", fmt.Sprintf("parent table %s is not committed", fk.RefTable))
			continue
		}
		parents[fk.Column] = &parentIndex{table: p, keys: keyIndex(p, fk.RefColumn)}
	}

	v.checkColumns(c, parents)
	v.checkRules(c, parents)
	return c.violations
}

type parentIndex struct {
	table *dataset.Table
	keys  map[int64]int
}

func keyIndex(t *dataset.Table, column string) map[int64]int {
	if column == t.Def.PrimaryKey() {
		return t.KeyIndex()
	}
	col := t.Col(column)
	idx := make(map[int64]int, t.Len())
	for i, r := range t.Rows {
		if n, ok := r[col].(int64); ok {
			if _, dup := idx[n]; !dup {
				idx[n] = i
			}
		}
	}
	return idx
}

type check struct {
	table      *dataset.Table
	violations []dataerr.Violation
}

func (c *check) add(row int, column, rule, msg string) {
	var id int64
	if row >= 0 && row < c.table.Len() {
		if n, ok := c.table.Rows[row][c.table.Col(c.table.Def.PrimaryKey())].(int64); ok {
			id = n
		}
	}
	c.violations = append(c.violations, dataerr.Violation{
		Table: c.table.Name(), RowID: id, Column: column, Rule: rule, Message: msg,
	})
}

func (v *Validator) checkColumns(c *check, parents map[string]*parentIndex) {
	t := c.table
	for ci, col := range t.Def.Columns {
		unique := col.Unique || col.PrimaryKey
		var seenInt map[int64]bool
		var seenText map[string]bool
		if unique {
			seenInt = make(map[int64]bool, t.Len())
			seenText = make(map[string]bool, t.Len())
		}

		for ri, row := range t.Rows {
			val := row[ci]
			if val == nil {
				if !col.Nullable {
					c.add(ri, col.Name, "not_null", "value is required")
				}
				continue
			}
			if !hasType(col.Type, val) {
				c.add(ri, col.Name, "type", fmt.Sprintf("expected %s, got %T", col.Type, val))
				continue
			}

			if unique {
				switch x := val.(type) {
				case int64:
					if seenInt[x] {
						c.add(ri, col.Name, "unique", fmt.Sprintf("duplicate value %d", x))
					}
					seenInt[x] = true
				case string:
					if seenText[x] {
						c.add(ri, col.Name, "unique", fmt.Sprintf("duplicate value %q", x))
					}
					seenText[x] = true
				}
			}

			if n, ok := numeric(val); ok {
				if col.Min != nil && !aboveMin(n, *col.Min) {
					c.add(ri, col.Name, "min", fmt.Sprintf("%s must be %s %g", dataset.Format(col.Type, val), minOp(*col.Min), col.Min.Value))
				}
				if col.Max != nil && !belowMax(n, *col.Max) {
					c.add(ri, col.Name, "max", fmt.Sprintf("%s must be %s %g", dataset.Format(col.Type, val), maxOp(*col.Max), col.Max.Value))
				}
			}

			if s, ok := val.(string); ok {
				if len(col.Enum) > 0 && !slices.Contains(col.Enum, s) {
					c.add(ri, col.Name, "enum", fmt.Sprintf("%q is not one of %s", s, strings.Join(col.Enum, ", ")))
				}
				if col.MinLength > 0 && utf8.RuneCountInString(strings.TrimSpace(s)) < col.MinLength {
					c.add(ri, col.Name, "min_length", fmt.Sprintf("%q is shorter than %d", s, col.MinLength))
				}
			}

			if d, ok := val.(time.Time); ok && col.NotAfterReference && d.After(v.reference) {
				c.add(ri, col.Name, "not_after_reference", fmt.Sprintf("%s is after %s", d.Format(dataset.DateLayout), v.reference.Format(dataset.DateLayout)))
			}

			if col.References != nil {
				p, ok := parents[col.Name]
				if !ok {
					continue
				}
				if _, found := p.keys[val.(int64)]; !found {
					c.add(ri, col.Name, "foreign_key", fmt.Sprintf("%s.%s=%d does not exist", col.References.RefTable, col.References.RefColumn, val.(int64)))
				}
			}
		}
	}
}

func (v *Validator) checkRules(c *check, parents map[string]*parentIndex) {
	t := c.table
	for _, rule := range t.Def.Rules {
		p, ok := parents[rule.ForeignKey]
		if !ok {
			continue
		}
		col := t.Col(rule.Column)
		fkCol := t.Col(rule.ForeignKey)
		pcol := p.table.Col(rule.ParentColumn)

		switch rule.Kind {
		case schema.RuleProductOf:
			factor := t.Col(rule.Factor)
			for ri, row := range t.Rows {
				pr, ok := parentRow(p, row[fkCol])
				if !ok {
					continue
				}
				f, ok1 := numeric(row[factor])
				base, ok2 := numeric(p.table.Rows[pr][pcol])
				got, ok3 := numeric(row[col])
				if !ok1 || !ok2 || !ok3 {
					continue
				}
				if want := f * base; !v.tol.Within(got, want) {
					c.add(ri, rule.Column, rule.Kind.String(), fmt.Sprintf("%.2f != %s × %s.%s = %.4f", got, rule.Factor, p.table.Name(), rule.ParentColumn, want))
				}
			}

		case schema.RuleParentSum:
			sums := make(map[int64]float64, p.table.Len())
			for _, row := range t.Rows {
				key, ok1 := row[fkCol].(int64)
				n, ok2 := numeric(row[col])
				if ok1 && ok2 {
					sums[key] += n
				}
			}
			refCol := p.table.Col(t.Def.Columns[fkCol].References.RefColumn)
			for _, prow := range p.table.Rows {
				key, ok1 := prow[refCol].(int64)
				want, ok2 := numeric(prow[pcol])
				if !ok1 || !ok2 {
					continue
				}
				if got := sums[key]; !v.tol.Within(got, want) {
					c.violations = append(c.violations, dataerr.Violation{
						Table:  t.Name(),
						Column: rule.Column,
						Rule:   rule.Kind.String(),
						Message: fmt.Sprintf("sum for %s=%d is %.2f but %s.%s is %.2f",
							rule.ForeignKey, key, got, p.table.Name(), rule.ParentColumn, want),
					})
				}
			}

		case schema.RuleNotBefore:
			for ri, row := range t.Rows {
				pr, ok := parentRow(p, row[fkCol])
				if !ok {
					continue
				}
				d, ok1 := row[col].(time.Time)
				floor, ok2 := p.table.Rows[pr][pcol].(time.Time)
				if ok1 && ok2 && d.Before(floor) {
					c.add(ri, rule.Column, rule.Kind.String(), fmt.Sprintf("%s is before %s.%s %s",
						d.Format(dataset.DateLayout), p.table.Name(), rule.ParentColumn, floor.Format(dataset.DateLayout)))
				}
			}
		}
	}
}

func parentRow(p *parentIndex, key any) (int, bool) {
	k, ok := key.(int64)
	if !ok {
		return 0, false
	}
	i, ok := p.keys[k]
	return i, ok
}

func hasType(typ schema.ColumnType, v any) bool {
	switch typ {
	case schema.TypeInt:
		_, ok := v.(int64)
		return ok
	case schema.TypeText:
		_, ok := v.(string)
		return ok
	case schema.TypeDate:
		_, ok := v.(time.Time)
		return ok
	case schema.TypeMoney:
		f, ok := v.(float64)
		return ok && !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return false
}

func numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func aboveMin(n float64, b schema.Bound) bool {
	if b.Exclusive {
		return n > b.Value
	}
	return n >= b.Value
}

func belowMax(n float64, b schema.Bound) bool {
	if b.Exclusive {
		return n < b.Value
	}
	return n <= b.Value
}

func minOp(b schema.Bound) string {
	if b.Exclusive {
		return ">"
	}
	return ">="
}

func maxOp(b schema.Bound) string {
	if b.Exclusive {
		return "<"
	}
	return "<="
}
