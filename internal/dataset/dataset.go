// Package dataset holds generated rows in declared column order. Values are
// typed by column: int64 for TypeInt, string for TypeText, time.Time (UTC
// midnight) for TypeDate and float64 rounded to cents for TypeMoney.
package dataset

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/schema"
)

const DateLayout = "2006-01-02"

type Row []any

type Table struct {
	Def  *schema.Table
	Rows []Row

	pos map[string]int
}

func NewTable(def *schema.Table) *Table {
	pos := make(map[string]int, len(def.Columns))
	for i, c := range def.Columns {
		pos[c.Name] = i
	}
	return &Table{Def: def, pos: pos}
}

func (t *Table) Name() string { return t.Def.Name }

func (t *Table) Len() int { return len(t.Rows) }

// Append adds a row; values must follow the declared column order.
func (t *Table) Append(values ...any) {
	if len(values) != len(t.Def.Columns) {
		panic(fmt.Sprintf("dataset: %s expects %d values, got %d", t.Def.Name, len(t.Def.Columns), len(values)))
	}
	t.Rows = append(t.Rows, Row(values))
}

// Col returns the position of column, or -1.
func (t *Table) Col(column string) int {
	if i, ok := t.pos[column]; ok {
		return i
	}
	return -1
}

func (t *Table) mustCol(column string) int {
	i := t.Col(column)
	if i < 0 {
		panic(fmt.Sprintf("dataset: %s has no column %s", t.Def.Name, column))
	}
	return i
}

func (t *Table) Int(row int, column string) int64 {
	v, _ := t.Rows[row][t.mustCol(column)].(int64)
	return v
}

func (t *Table) Money(row int, column string) float64 {
	v, _ := t.Rows[row][t.mustCol(column)].(float64)
	return v
}

func (t *Table) Text(row int, column string) string {
	v, _ := t.Rows[row][t.mustCol(column)].(string)
	return v
}

func (t *Table) Date(row int, column string) time.Time {
	v, _ := t.Rows[row][t.mustCol(column)].(time.Time)
	return v
}

// ID returns the primary key of row.
func (t *Table) ID(row int) int64 {
	return t.Int(row, t.Def.PrimaryKey())
}

// KeyIndex maps every primary key to its row position. Duplicate keys keep
// the first position.
func (t *Table) KeyIndex() map[int64]int {
	pk := t.mustCol(t.Def.PrimaryKey())
	idx := make(map[int64]int, len(t.Rows))
	for i, r := range t.Rows {
		id, ok := r[pk].(int64)
		if !ok {
			continue
		}
		if _, dup := idx[id]; !dup {
			idx[id] = i
		}
	}
	return idx
}

// Snapshot is the set of committed tables of one run.
type Snapshot struct {
	tables map[string]*Table
	order  []string
}

func NewSnapshot() *Snapshot {
	return &Snapshot{tables: make(map[string]*Table)}
}

// Commit records t as final. Committed tables are read-only for downstream stages.
func (s *Snapshot) Commit(t *Table) {
	if _, ok := s.tables[t.Name()]; !ok {
		s.order = append(s.order, t.Name())
	}
	s.tables[t.Name()] = t
}

func (s *Snapshot) Table(name string) (*Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Tables returns the committed tables in commit order.
func (s *Snapshot) Tables() []*Table {
	out := make([]*Table, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tables[name])
	}
	return out
}

func (s *Snapshot) Counts() map[string]int {
	counts := make(map[string]int, len(s.tables))
	for name, t := range s.tables {
		counts[name] = t.Len()
	}
	return counts
}

// RoundCents rounds a money amount half away from zero to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// Format renders v for the artifact files.
func Format(typ schema.ColumnType, v any) string {
	switch typ {
	case schema.TypeInt:
		n, _ := v.(int64)
		return strconv.FormatInt(n, 10)
	case schema.TypeDate:
		d, _ := v.(time.Time)
		return d.Format(DateLayout)
	case schema.TypeMoney:
		f, _ := v.(float64)
		return strconv.FormatFloat(f, 'f', 2, 64)
	default:
		s, _ := v.(string)
		return s
	}
}

// Parse converts an artifact field back to its typed value.
func Parse(typ schema.ColumnType, s string) (any, error) {
	switch typ {
	case schema.TypeInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", s)
		}
		return n, nil
	case schema.TypeDate:
		d, err := time.ParseInLocation(DateLayout, s, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("not a YYYY-MM-DD date: %q", s)
		}
		return d, nil
	case schema.TypeMoney:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("not a decimal amount: %q", s)
		}
		return f, nil
	default:
		return s, nil
	}
}

// SQLValue converts v into a driver argument. Dates travel as YYYY-MM-DD text
// so every dialect stores the same calendar date.
func SQLValue(typ schema.ColumnType, v any) any {
	if typ == schema.TypeDate {
		if d, ok := v.(time.Time); ok {
			return d.Format(DateLayout)
		}
	}
	return v
}
