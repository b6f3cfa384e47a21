// Package generator produces the storefront tables one at a time, each row
// derived only from tables already committed to the snapshot.
package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/config"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataerr"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataset"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/sampler"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/schema"
)

type Options struct {
	Counts            config.Counts
	Reference         time.Time
	HistoryDays       int
	PriceMu           float64
	PriceSigma        float64
	OrdersPerCustomer float64
	BulkQuantityShare float64
	PaymentDelayDays  int
	Anomaly           config.Anomaly
}

// OptionsFromConfig resolves derived counts against cfg.
func OptionsFromConfig(cfg *config.Config, reference time.Time) Options {
	return Options{
		Counts:            cfg.Counts.Resolved(),
		Reference:         reference,
		HistoryDays:       cfg.HistoryDays,
		PriceMu:           cfg.Distributions.PriceMu,
		PriceSigma:        cfg.Distributions.PriceSigma,
		OrdersPerCustomer: cfg.Distributions.OrdersPerCustomer,
		BulkQuantityShare: cfg.Distributions.BulkQuantityShare,
		PaymentDelayDays:  cfg.Distributions.PaymentDelayDays,
		Anomaly:           cfg.Anomaly,
	}
}

type line struct {
	productID int64
	quantity  int64
	lineTotal float64
}

type Generator struct {
	catalog *schema.Catalog
	opts    Options
	root    *sampler.Sampler

	// baskets[i] holds the lines of order i+1, fixed when orders are generated.
	baskets   [][]line
	anomalies []int64
}

func New(catalog *schema.Catalog, opts Options, s *sampler.Sampler) *Generator {
	return &Generator{catalog: catalog, opts: opts, root: s}
}

// InjectedAnomalies lists the payment ids whose amount deliberately differs
// from the order total.
func (g *Generator) InjectedAnomalies() []int64 {
	return append([]int64(nil), g.anomalies...)
}

// Generate builds table from the committed parents in snap. The result is
// not committed; the caller validates it first.
func (g *Generator) Generate(ctx context.Context, table string, snap *dataset.Snapshot) (*dataset.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	def, ok := g.catalog.Table(table)
	if !ok {
		return nil, &dataerr.GenerationError{Table: table, Err: errors.New("table not in catalog")}
	}
	out := dataset.NewTable(def)

	var err error
	switch table {
	case schema.Customers:
		err = g.customers(out)
	case schema.Products:
		err = g.products(out)
	case schema.Orders:
		err = g.orders(out, snap)
	case schema.OrderItems:
		err = g.orderItems(out, snap)
	case schema.Payments:
		err = g.payments(out, snap)
	default:
		err = fmt.Errorf("no generator for table %s", table)
	}
	if err != nil {
		var ge *dataerr.GenerationError
		if errors.As(err, &ge) {
			return nil, err
		}
		return nil, &dataerr.GenerationError{Table: table, Err: err}
	}
	return out, nil
}

func parent(snap *dataset.Snapshot, name string, requested int) (*dataset.Table, error) {
	t, ok := snap.Table(name)
	if !ok || t.Len() == 0 {
		return nil, fmt.Errorf("%d rows requested but parent table %s is empty", requested, name)
	}
	return t, nil
}

func (g *Generator) customers(out *dataset.Table) error {
	s := g.root.Fork(schema.Customers)
	fake := newFaker(s)
	earliest := g.opts.Reference.AddDate(0, 0, -g.opts.HistoryDays)

	for i := 1; i <= g.opts.Counts.Customers; i++ {
		id := int64(i)
		first, last := fake.name()
		out.Append(id, first, last, fake.email(first, last, id), s.DateBetween(earliest, g.opts.Reference))
	}
	return nil
}

func (g *Generator) products(out *dataset.Table) error {
	s := g.root.Fork(schema.Products)
	fake := newFaker(s)

	for i := 1; i <= g.opts.Counts.Products; i++ {
		name := fake.productName()
		category := sampler.Pick(s, schema.Categories)
		price, err := s.PositiveMoney(g.opts.PriceMu, g.opts.PriceSigma)
		if err != nil {
			return fmt.Errorf("price for product %d: %w", i, err)
		}
		out.Append(int64(i), name, category, price)
	}
	return nil
}

func (g *Generator) orders(out *dataset.Table, snap *dataset.Snapshot) error {
	n := g.opts.Counts.Orders
	g.baskets = nil
	if n == 0 {
		return nil
	}
	customers, err := parent(snap, schema.Customers, n)
	if err != nil {
		return err
	}
	products, err := parent(snap, schema.Products, n)
	if err != nil {
		return err
	}

	s := g.root.Fork(schema.Orders)
	lambda := g.opts.OrdersPerCustomer
	if lambda == 0 {
		lambda = float64(n) / float64(customers.Len())
	}
	weights := make([]float64, customers.Len())
	for i := range weights {
		weights[i] = float64(s.Poisson(lambda))
	}
	cum := sampler.Weights(weights)

	g.baskets = g.drawBaskets(products, n)
	for i := 0; i < n; i++ {
		c := s.WeightedIndex(cum, customers.Len())
		orderDate := s.DateBetween(customers.Date(c, "signup_date"), g.opts.Reference)

		total := 0.0
		for _, l := range g.baskets[i] {
			total += l.lineTotal
		}
		out.Append(int64(i+1), customers.ID(c), orderDate, dataset.RoundCents(total))
	}
	return nil
}

// drawBaskets gives every order one line and spreads the remaining lines
// uniformly over the orders.
func (g *Generator) drawBaskets(products *dataset.Table, orders int) [][]line {
	s := g.root.Fork("baskets")
	sizes := make([]int, orders)
	for i := range sizes {
		sizes[i] = 1
	}
	for extra := g.opts.Counts.OrderItems - orders; extra > 0; extra-- {
		sizes[s.Categorical(orders)]++
	}

	baskets := make([][]line, orders)
	for i, size := range sizes {
		basket := make([]line, size)
		for j := range basket {
			p := s.Categorical(products.Len())
			qty := int64(s.IntRange(1, 3))
			if j > 0 && s.Bernoulli(g.opts.BulkQuantityShare) {
				qty = int64(s.IntRange(4, 10))
			}
			basket[j] = line{
				productID: products.ID(p),
				quantity:  qty,
				lineTotal: dataset.RoundCents(float64(qty) * products.Money(p, "price")),
			}
		}
		baskets[i] = basket
	}
	return baskets
}

func (g *Generator) orderItems(out *dataset.Table, snap *dataset.Snapshot) error {
	if g.opts.Counts.OrderItems == 0 {
		return nil
	}
	orders, err := parent(snap, schema.Orders, g.opts.Counts.OrderItems)
	if err != nil {
		return err
	}
	if orders.Len() != len(g.baskets) {
		return fmt.Errorf("committed orders (%d) do not match generated baskets (%d)", orders.Len(), len(g.baskets))
	}

	id := int64(0)
	for i := 0; i < orders.Len(); i++ {
		for _, l := range g.baskets[i] {
			id++
			out.Append(id, orders.ID(i), l.productID, l.quantity, l.lineTotal)
		}
	}
	return nil
}

func (g *Generator) payments(out *dataset.Table, snap *dataset.Snapshot) error {
	g.anomalies = nil
	k := g.opts.Counts.Payments
	if k == 0 {
		return nil
	}
	orders, err := parent(snap, schema.Orders, k)
	if err != nil {
		return err
	}
	if k > orders.Len() {
		return fmt.Errorf("%d payments requested for %d orders", k, orders.Len())
	}

	s := g.root.Fork(schema.Payments)
	for i, o := range s.SampleIndexes(orders.Len(), k) {
		id := int64(i + 1)
		method := sampler.Pick(s, schema.PaymentMethods)

		paid := orders.Date(o, "order_date").AddDate(0, 0, s.IntRange(0, g.opts.PaymentDelayDays))
		if paid.After(g.opts.Reference) {
			paid = g.opts.Reference
		}

		total := orders.Money(o, "total_amount")
		amount := total
		if s.Bernoulli(g.opts.Anomaly.Rate) {
			amount = g.perturb(s, total)
			g.anomalies = append(g.anomalies, id)
		}
		out.Append(id, orders.ID(o), method, amount, paid)
	}
	return nil
}

// perturb moves total by a relative magnitude, at least one cent and never
// below zero.
func (g *Generator) perturb(s *sampler.Sampler, total float64) float64 {
	mag := s.Float64Range(g.opts.Anomaly.MinMagnitude, g.opts.Anomaly.MaxMagnitude)
	delta := dataset.RoundCents(total * mag)
	if delta < 0.01 {
		delta = 0.01
	}
	if s.Bernoulli(0.5) && total-delta >= 0 {
		return dataset.RoundCents(total - delta)
	}
	return dataset.RoundCents(total + delta)
}
