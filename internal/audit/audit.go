// Package audit checks a loaded store against the manifest of the snapshot
// it was loaded from.
package audit

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/artifact"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/database"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataerr"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/metrics"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/schema"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/validator"
)

// Check names used in findings.
const (
	CheckRowCount     = "row_count"
	CheckOrphans      = "orphans"
	CheckAnomalyCount = "anomaly_count"
	CheckAnomalyRate  = "anomaly_rate"
)

// minExpectedCount is the smallest expected number of anomalous and of clean
// payments for which the rate is judged.
const minExpectedCount = 10

type Auditor struct {
	store   *database.Store
	catalog *schema.Catalog
	sigma   float64
	metrics *metrics.Registry
}

// Report holds every measurement taken, whether or not it produced a finding.
type Report struct {
	Counts map[string]int64
	// Orphans is keyed by "table.column".
	Orphans map[string]int64
	// Mismatches is keyed by "table.rule", e.g. "order_items.parent_sum".
	Mismatches      map[string]int
	Payments        int64
	Discrepancies   int
	DiscrepancyRate float64
	Findings        []dataerr.Finding
}

// New returns an auditor that accepts a measured anomaly fraction within
// sigma standard errors of the configured rate.
func New(store *database.Store, catalog *schema.Catalog, sigma float64) *Auditor {
	return &Auditor{store: store, catalog: catalog, sigma: sigma}
}

func (a *Auditor) WithMetrics(m *metrics.Registry) *Auditor {
	a.metrics = m
	return a
}

// Audit runs every check. The report is returned even when findings make
// the error non-nil.
func (a *Auditor) Audit(ctx context.Context, m *artifact.Manifest) (*Report, error) {
	order, err := a.catalog.InsertionOrder()
	if err != nil {
		return nil, err
	}
	tol := validator.Tolerance{Abs: m.Tolerance.Abs, Rel: m.Tolerance.Rel}
	r := &Report{
		Orphans:    make(map[string]int64),
		Mismatches: make(map[string]int),
	}

	if r.Counts, err = a.store.RowCounts(ctx, order); err != nil {
		return nil, err
	}
	for _, name := range order {
		want := int64(m.Counts[name])
		if got := r.Counts[name]; got != want {
			r.add(CheckRowCount, name, want, got)
		}
	}

	for _, name := range order {
		t, _ := a.catalog.Table(name)
		for _, fk := range t.ForeignKeys() {
			n, err := a.orphans(ctx, t, fk)
			if err != nil {
				return nil, err
			}
			r.Orphans[name+"."+fk.Column] = n
			if n > 0 {
				r.add(CheckOrphans, name+"."+fk.Column, 0, n)
			}
		}
		for _, rule := range t.Rules {
			n, err := a.ruleMismatches(ctx, t, rule, tol)
			if err != nil {
				return nil, err
			}
			r.Mismatches[name+"."+rule.Kind.String()] = n
			if n > 0 {
				r.add(rule.Kind.String(), name+"."+rule.Column, 0, int64(n))
			}
		}
	}

	if err := a.auditPayments(ctx, m, tol, r); err != nil {
		return nil, err
	}

	if a.metrics != nil {
		for _, f := range r.Findings {
			a.metrics.AuditFindings.WithLabelValues(f.Check).Inc()
		}
	}
	if len(r.Findings) > 0 {
		return r, &dataerr.AuditError{Findings: r.Findings}
	}
	return r, nil
}

func (r *Report) add(check, table string, want, got int64) {
	r.Findings = append(r.Findings, dataerr.Finding{
		Check:    check,
		Table:    table,
		Expected: strconv.FormatInt(want, 10),
		Actual:   strconv.FormatInt(got, 10),
	})
}

func (a *Auditor) orphans(ctx context.Context, t *schema.Table, fk schema.ForeignKey) (int64, error) {
	q := a.store.Adapter().QuoteIdentifier
	query, args, err := a.store.Builder().
		Select("COUNT(*)").
		From(q(t.Name) + " c").
		LeftJoin(fmt.Sprintf("%s p ON c.%s = p.%s", q(fk.RefTable), q(fk.Column), q(fk.RefColumn))).
		Where(fmt.Sprintf("p.%s IS NULL", q(fk.RefColumn))).
		ToSql()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := a.store.DB().QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to scan orphans of %s.%s: %w", t.Name, fk.Column, err)
	}
	return n, nil
}

// ruleMismatches counts rows of the persisted store that break a cross-row
// rule. Money comparisons are done here with the manifest tolerance rather
// than in SQL, where each dialect rounds differently.
func (a *Auditor) ruleMismatches(ctx context.Context, t *schema.Table, rule schema.Rule, tol validator.Tolerance) (int, error) {
	fk, ok := t.ForeignKey(rule.ForeignKey)
	if !ok {
		return 0, fmt.Errorf("rule %s on %s: %s is not a foreign key", rule.Kind, t.Name, rule.ForeignKey)
	}
	q := a.store.Adapter().QuoteIdentifier
	join := fmt.Sprintf("%s p ON c.%s = p.%s", q(fk.RefTable), q(fk.Column), q(fk.RefColumn))
	qb := a.store.Builder()

	switch rule.Kind {
	case schema.RuleProductOf:
		query, args, err := qb.
			Select("c."+q(rule.Column), "c."+q(rule.Factor), "p."+q(rule.ParentColumn)).
			From(q(t.Name) + " c").
			Join(join).
			ToSql()
		if err != nil {
			return 0, err
		}
		return a.countPairs(ctx, query, args, func(vals []float64) bool {
			return !tol.Within(vals[0], vals[1]*vals[2])
		})

	case schema.RuleParentSum:
		key := "p." + q(fk.RefColumn)
		total := "p." + q(rule.ParentColumn)
		query, args, err := qb.
			Select(total, fmt.Sprintf("COALESCE(SUM(c.%s), 0)", q(rule.Column))).
			From(q(fk.RefTable) + " p").
			LeftJoin(fmt.Sprintf("%s c ON c.%s = %s", q(t.Name), q(fk.Column), key)).
			GroupBy(key, total).
			ToSql()
		if err != nil {
			return 0, err
		}
		return a.countPairs(ctx, query, args, func(vals []float64) bool {
			return !tol.Within(vals[0], vals[1])
		})

	case schema.RuleNotBefore:
		// Dates are ISO text or native DATE in every dialect, so SQL comparison is exact.
		query, args, err := qb.
			Select("COUNT(*)").
			From(q(t.Name) + " c").
			Join(join).
			Where(fmt.Sprintf("c.%s < p.%s", q(rule.Column), q(rule.ParentColumn))).
			ToSql()
		if err != nil {
			return 0, err
		}
		var n int
		if err := a.store.DB().QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
			return 0, fmt.Errorf("failed to audit %s.%s: %w", t.Name, rule.Column, err)
		}
		return n, nil
	}
	return 0, fmt.Errorf("unsupported rule %s", rule.Kind)
}

// countPairs scans numeric result rows and counts those for which bad holds.
func (a *Auditor) countPairs(ctx context.Context, query string, args []any, bad func([]float64) bool) (int, error) {
	rows, err := a.store.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("audit query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}
	vals := make([]float64, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	n := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return 0, err
		}
		if bad(vals) {
			n++
		}
	}
	return n, rows.Err()
}

// auditPayments compares each payment with its order total. The number of
// discrepancies must equal the injected count. On samples large enough for a
// normal approximation its fraction must also be plausible for the
// configured rate.
func (a *Auditor) auditPayments(ctx context.Context, m *artifact.Manifest, tol validator.Tolerance, r *Report) error {
	q := a.store.Adapter().QuoteIdentifier
	query, args, err := a.store.Builder().
		Select("c."+q("amount"), "p."+q("total_amount")).
		From(q(schema.Payments) + " c").
		Join(fmt.Sprintf("%s p ON c.%s = p.%s", q(schema.Orders), q("order_id"), q("order_id"))).
		ToSql()
	if err != nil {
		return err
	}
	r.Discrepancies, err = a.countPairs(ctx, query, args, func(vals []float64) bool {
		return !tol.Within(vals[0], vals[1])
	})
	if err != nil {
		return err
	}

	r.Payments = r.Counts[schema.Payments]
	if r.Discrepancies != m.Anomaly.Injected {
		r.add(CheckAnomalyCount, schema.Payments, int64(m.Anomaly.Injected), int64(r.Discrepancies))
	}
	if r.Payments == 0 {
		return nil
	}

	n := float64(r.Payments)
	rate := m.Anomaly.Rate
	r.DiscrepancyRate = float64(r.Discrepancies) / n
	if n*rate < minExpectedCount || n*(1-rate) < minExpectedCount {
		// The normal band is meaningless here; the exact count above still holds.
		return nil
	}
	limit := a.sigma * math.Sqrt(rate*(1-rate)/n)
	if math.Abs(r.DiscrepancyRate-rate) > limit {
		r.Findings = append(r.Findings, dataerr.Finding{
			Check:    CheckAnomalyRate,
			Table:    schema.Payments,
			Expected: fmt.Sprintf("%.4f±%.4f", rate, limit),
			Actual:   fmt.Sprintf("%.4f", r.DiscrepancyRate),
		})
	}
	return nil
}
