package validator

import (
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataerr"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataset"
)

// Gate admits tables into a snapshot in dependency order. A table with
// violations is never committed and every table depending on it is blocked.
type Gate struct {
	v          *Validator
	snap       *dataset.Snapshot
	violations []dataerr.Violation
	rejected   map[string]bool
	blocked    []string
}

func (v *Validator) NewGate() *Gate {
	return &Gate{
		v:        v,
		snap:     dataset.NewSnapshot(),
		rejected: make(map[string]bool),
	}
}

// Blocked reports whether a table that name depends on was rejected or
// blocked. The caller must skip generation for it and call Block.
func (g *Gate) Blocked(name string) bool {
	def, ok := g.v.catalog.Table(name)
	if !ok {
		return false
	}
	for _, dep := range def.Dependencies() {
		if g.rejected[dep] {
			return true
		}
	}
	return false
}

func (g *Gate) Block(name string) {
	g.rejected[name] = true
	g.blocked = append(g.blocked, name)
}

// Admit validates t, together with violations already found while reading
// it, and commits it when clean.
func (g *Gate) Admit(t *dataset.Table, pre ...dataerr.Violation) []dataerr.Violation {
	found := append(append([]dataerr.Violation(nil), pre...), g.v.ValidateTable(t, g.snap)...)
	if len(found) > 0 {
		g.rejected[t.Name()] = true
		g.violations = append(g.violations, found...)
		return found
	}
	g.snap.Commit(t)
	return nil
}

// Snapshot returns the committed tables. It is complete only when Err is nil.
func (g *Gate) Snapshot() *dataset.Snapshot { return g.snap }

func (g *Gate) Err() error {
	if len(g.violations) == 0 && len(g.blocked) == 0 {
		return nil
	}
	return &dataerr.ValidationError{
		Violations: append([]dataerr.Violation(nil), g.violations...),
		Blocked:    append([]string(nil), g.blocked...),
	}
}
