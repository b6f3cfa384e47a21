package generator

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/config"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataerr"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataset"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/sampler"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/schema"
)

var reference = time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

func testOptions(customers, products, orders int) Options {
	cfg := config.Default()
	cfg.Counts = config.Counts{Customers: customers, Products: products, Orders: orders, OrderItems: config.Derived, Payments: config.Derived}
	return OptionsFromConfig(cfg, reference)
}

func generateAll(t *testing.T, opts Options, seed int64) (*dataset.Snapshot, *Generator) {
	t.Helper()
	catalog := schema.Ecommerce()
	order, err := catalog.InsertionOrder()
	require.NoError(t, err)

	g := New(catalog, opts, sampler.New(seed))
	snap := dataset.NewSnapshot()
	for _, name := range order {
		tbl, err := g.Generate(context.Background(), name, snap)
		require.NoError(t, err, name)
		snap.Commit(tbl)
	}
	return snap, g
}

func table(t *testing.T, snap *dataset.Snapshot, name string) *dataset.Table {
	t.Helper()
	tbl, ok := snap.Table(name)
	require.True(t, ok, name)
	return tbl
}

func TestGenerateProducesRequestedCounts(t *testing.T) {
	snap, _ := generateAll(t, testOptions(50, 20, 80), 1)
	assert.Equal(t, map[string]int{
		schema.Customers:  50,
		schema.Products:   20,
		schema.Orders:     80,
		schema.OrderItems: 200,
		schema.Payments:   80,
	}, snap.Counts())
}

func TestGenerateIsDeterministic(t *testing.T) {
	a, ga := generateAll(t, testOptions(40, 15, 60), 9)
	b, gb := generateAll(t, testOptions(40, 15, 60), 9)
	for _, tbl := range a.Tables() {
		assert.Equal(t, tbl.Rows, table(t, b, tbl.Name()).Rows, tbl.Name())
	}
	assert.Equal(t, ga.InjectedAnomalies(), gb.InjectedAnomalies())

	c, _ := generateAll(t, testOptions(40, 15, 60), 10)
	assert.NotEqual(t, table(t, a, schema.Customers).Rows, table(t, c, schema.Customers).Rows)
}

func TestForeignKeysAlwaysResolve(t *testing.T) {
	snap, _ := generateAll(t, testOptions(30, 10, 120), 4)
	catalog := schema.Ecommerce()
	for _, tbl := range snap.Tables() {
		for _, fk := range tbl.Def.ForeignKeys() {
			keys := table(t, snap, fk.RefTable).KeyIndex()
			for i := 0; i < tbl.Len(); i++ {
				_, ok := keys[tbl.Int(i, fk.Column)]
				require.True(t, ok, "%s row %d: %s dangling", tbl.Name(), i, fk.Column)
			}
		}
		_, ok := catalog.Table(tbl.Name())
		assert.True(t, ok)
	}
}

func TestLineTotalsAndOrderTotalsAgree(t *testing.T) {
	snap, _ := generateAll(t, testOptions(30, 25, 100), 5)
	products := table(t, snap, schema.Products)
	orders := table(t, snap, schema.Orders)
	items := table(t, snap, schema.OrderItems)

	prices := products.KeyIndex()
	sums := make(map[int64]float64)
	lines := make(map[int64]int)
	for i := 0; i < items.Len(); i++ {
		qty := items.Int(i, "quantity")
		require.Greater(t, qty, int64(0))
		price := products.Money(prices[items.Int(i, "product_id")], "price")
		assert.InDelta(t, float64(qty)*price, items.Money(i, "line_total"), 0.005)
		sums[items.Int(i, "order_id")] += items.Money(i, "line_total")
		lines[items.Int(i, "order_id")]++
	}
	for i := 0; i < orders.Len(); i++ {
		id := orders.ID(i)
		assert.GreaterOrEqual(t, lines[id], 1, "order %d has no items", id)
		assert.InDelta(t, sums[id], orders.Money(i, "total_amount"), 0.005)
	}
}

func TestDatesRespectLifecycle(t *testing.T) {
	snap, _ := generateAll(t, testOptions(30, 10, 90), 6)
	customers := table(t, snap, schema.Customers)
	orders := table(t, snap, schema.Orders)
	payments := table(t, snap, schema.Payments)

	cust := customers.KeyIndex()
	for i := 0; i < orders.Len(); i++ {
		signup := customers.Date(cust[orders.Int(i, "customer_id")], "signup_date")
		od := orders.Date(i, "order_date")
		assert.False(t, od.Before(signup))
		assert.False(t, od.After(reference))
	}
	ord := orders.KeyIndex()
	for i := 0; i < payments.Len(); i++ {
		od := orders.Date(ord[payments.Int(i, "order_id")], "order_date")
		pd := payments.Date(i, "payment_date")
		assert.False(t, pd.Before(od))
		assert.False(t, pd.After(reference))
	}
}

func TestCustomerEmailsAreUnique(t *testing.T) {
	snap, _ := generateAll(t, testOptions(3000, 1, 0), 2)
	customers := table(t, snap, schema.Customers)
	seen := make(map[string]bool)
	for i := 0; i < customers.Len(); i++ {
		e := customers.Text(i, "email")
		require.False(t, seen[e], "duplicate email %s", e)
		seen[e] = true
	}
}

func TestAnomalyRateOverFourThousandPayments(t *testing.T) {
	snap, g := generateAll(t, testOptions(2000, 600, 4000), 42)
	payments := table(t, snap, schema.Payments)
	orders := table(t, snap, schema.Orders)
	require.Equal(t, 4000, payments.Len())

	ord := orders.KeyIndex()
	mismatched := 0
	for i := 0; i < payments.Len(); i++ {
		total := orders.Money(ord[payments.Int(i, "order_id")], "total_amount")
		amount := payments.Money(i, "amount")
		require.GreaterOrEqual(t, amount, 0.0)
		if math.Abs(amount-total) > 0.005 {
			mismatched++
		}
	}
	assert.Equal(t, len(g.InjectedAnomalies()), mismatched)
	fraction := float64(mismatched) / float64(payments.Len())
	assert.GreaterOrEqual(t, fraction, 0.02)
	assert.LessOrEqual(t, fraction, 0.08)
}

func TestZeroOrdersLeavesDependentsEmpty(t *testing.T) {
	snap, g := generateAll(t, testOptions(100, 10, 0), 3)
	assert.Equal(t, 100, table(t, snap, schema.Customers).Len())
	assert.Zero(t, table(t, snap, schema.Orders).Len())
	assert.Zero(t, table(t, snap, schema.OrderItems).Len())
	assert.Zero(t, table(t, snap, schema.Payments).Len())
	assert.Empty(t, g.InjectedAnomalies())
}

func TestOrdersWithoutCustomersFail(t *testing.T) {
	opts := testOptions(0, 5, 10)
	catalog := schema.Ecommerce()
	g := New(catalog, opts, sampler.New(1))
	snap := dataset.NewSnapshot()
	for _, name := range []string{schema.Customers, schema.Products} {
		tbl, err := g.Generate(context.Background(), name, snap)
		require.NoError(t, err)
		snap.Commit(tbl)
	}

	_, err := g.Generate(context.Background(), schema.Orders, snap)
	require.ErrorIs(t, err, dataerr.ErrGeneration)
	var ge *dataerr.GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, schema.Orders, ge.Table)
}

func TestGenerateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := New(schema.Ecommerce(), testOptions(1, 1, 1), sampler.New(1))
	_, err := g.Generate(ctx, schema.Customers, dataset.NewSnapshot())
	assert.ErrorIs(t, err, context.Canceled)
}
