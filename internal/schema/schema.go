// Package schema declares the relational model as data: columns, their
// constraints and the cross-row rules. The validator, the DDL generator and
// the auditor all read the same declarations.
package schema

import "fmt"

type ColumnType int

const (
	TypeInt ColumnType = iota
	TypeText
	TypeDate
	TypeMoney
)

func (t ColumnType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeText:
		return "text"
	case TypeDate:
		return "date"
	case TypeMoney:
		return "money"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// Bound is a numeric limit on a column value.
type Bound struct {
	Value     float64
	Exclusive bool
}

func Inclusive(v float64) *Bound { return &Bound{Value: v} }
func Exclusive(v float64) *Bound { return &Bound{Value: v, Exclusive: true} }

type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

type Column struct {
	Name       string
	Type       ColumnType
	PrimaryKey bool
	Nullable   bool
	Unique     bool
	Min        *Bound
	Max        *Bound
	Enum       []string
	MinLength  int
	// NotAfterReference bounds a date column by the run's reference date.
	NotAfterReference bool
	References        *ForeignKey
	Index             bool
}

type RuleKind int

const (
	// RuleProductOf: Column = Factor × parent.ParentColumn, parent found through ForeignKey.
	RuleProductOf RuleKind = iota
	// RuleParentSum: Σ Column over the rows sharing ForeignKey = parent.ParentColumn.
	RuleParentSum
	// RuleNotBefore: Column >= parent.ParentColumn.
	RuleNotBefore
)

func (k RuleKind) String() string {
	switch k {
	case RuleProductOf:
		return "product_of"
	case RuleParentSum:
		return "parent_sum"
	case RuleNotBefore:
		return "not_before"
	default:
		return fmt.Sprintf("RuleKind(%d)", int(k))
	}
}

// Rule is a constraint spanning a row and its parent row.
type Rule struct {
	Kind         RuleKind
	Column       string
	Factor       string
	ForeignKey   string
	ParentColumn string
}

type Table struct {
	Name    string
	Columns []Column
	Rules   []Rule
}

func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

func (t *Table) PrimaryKey() string {
	for _, c := range t.Columns {
		if c.PrimaryKey {
			return c.Name
		}
	}
	return ""
}

func (t *Table) ForeignKeys() []ForeignKey {
	var fks []ForeignKey
	for _, c := range t.Columns {
		if c.References != nil {
			fks = append(fks, *c.References)
		}
	}
	return fks
}

// ForeignKey returns the reference declared on column.
func (t *Table) ForeignKey(column string) (ForeignKey, bool) {
	c, ok := t.Column(column)
	if !ok || c.References == nil {
		return ForeignKey{}, false
	}
	return *c.References, true
}

// Dependencies lists referenced tables in column order, without duplicates
// or self references.
func (t *Table) Dependencies() []string {
	seen := make(map[string]bool)
	var deps []string
	for _, fk := range t.ForeignKeys() {
		if fk.RefTable == t.Name || seen[fk.RefTable] {
			continue
		}
		seen[fk.RefTable] = true
		deps = append(deps, fk.RefTable)
	}
	return deps
}

// Catalog is an ordered set of table declarations.
type Catalog struct {
	Tables []*Table
}

func (c *Catalog) Table(name string) (*Table, bool) {
	for _, t := range c.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// InsertionOrder returns the tables parents-first.
func (c *Catalog) InsertionOrder() ([]string, error) {
	g := NewDependencyGraph()
	for _, t := range c.Tables {
		g.AddTable(t.Name, t.Dependencies())
	}
	return g.BuildInsertionOrder()
}

// Dependents returns every table that directly or transitively references name.
func (c *Catalog) Dependents(name string) []string {
	blocked := map[string]bool{name: true}
	var out []string
	order, err := c.InsertionOrder()
	if err != nil {
		return nil
	}
	for _, tn := range order {
		t, _ := c.Table(tn)
		for _, dep := range t.Dependencies() {
			if blocked[dep] && !blocked[tn] {
				blocked[tn] = true
				out = append(out, tn)
			}
		}
	}
	return out
}

// Validate checks that every reference and rule points at declared columns.
func (c *Catalog) Validate() error {
	for _, t := range c.Tables {
		if t.PrimaryKey() == "" {
			return fmt.Errorf("table %s has no primary key", t.Name)
		}
		for _, fk := range t.ForeignKeys() {
			ref, ok := c.Table(fk.RefTable)
			if !ok {
				return fmt.Errorf("table %s: foreign key %s references unknown table %s", t.Name, fk.Column, fk.RefTable)
			}
			if _, ok := ref.Column(fk.RefColumn); !ok {
				return fmt.Errorf("table %s: foreign key %s references unknown column %s.%s", t.Name, fk.Column, fk.RefTable, fk.RefColumn)
			}
		}
		for _, r := range t.Rules {
			if _, ok := t.Column(r.Column); !ok {
				return fmt.Errorf("table %s: %s rule on unknown column %s", t.Name, r.Kind, r.Column)
			}
			fk, ok := t.ForeignKey(r.ForeignKey)
			if !ok {
				return fmt.Errorf("table %s: %s rule needs foreign key %s", t.Name, r.Kind, r.ForeignKey)
			}
			parent, _ := c.Table(fk.RefTable)
			if _, ok := parent.Column(r.ParentColumn); !ok {
				return fmt.Errorf("table %s: %s rule references unknown column %s.%s", t.Name, r.Kind, fk.RefTable, r.ParentColumn)
			}
			if r.Kind == RuleProductOf {
				if _, ok := t.Column(r.Factor); !ok {
					return fmt.Errorf("table %s: product_of rule on unknown factor %s", t.Name, r.Factor)
				}
			}
		}
	}
	_, err := c.InsertionOrder()
	return err
}
