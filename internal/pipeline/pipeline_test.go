package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/artifact"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/audit"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/config"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/database"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataerr"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataset"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/generator"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/metrics"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/sampler"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/schema"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/writer"
)

func TestMain(m *testing.M) {
	color.Output = io.Discard
	os.Exit(m.Run())
}

var now = time.Date(2026, 10, 17, 15, 4, 5, 0, time.UTC)

func testConfig(customers, products, orders int) *config.Config {
	cfg := config.Default()
	cfg.Counts = config.Counts{Customers: customers, Products: products, Orders: orders, OrderItems: config.Derived, Payments: config.Derived}
	return cfg
}

func newPipeline(t *testing.T, cfg *config.Config) (*Pipeline, TableSource) {
	t.Helper()
	catalog := schema.Ecommerce()
	p, err := New(cfg, catalog, now)
	require.NoError(t, err)
	g := generator.New(catalog, generator.OptionsFromConfig(cfg, p.Reference()), sampler.New(cfg.Seed))
	return p, g
}

// zeroPrice corrupts the second product before it reaches validation.
type zeroPrice struct {
	TableSource
}

func (z zeroPrice) Generate(ctx context.Context, table string, snap *dataset.Snapshot) (*dataset.Table, error) {
	t, err := z.TableSource.Generate(ctx, table, snap)
	if err == nil && table == schema.Products {
		t.Rows[1][t.Col("price")] = 0.0
	}
	return t, err
}

type countingLoader struct{ calls int }

func (l *countingLoader) Load(context.Context, *dataset.Snapshot) (*writer.Result, error) {
	l.calls++
	return &writer.Result{}, nil
}

func TestZeroPriceNeverReachesTheWriter(t *testing.T) {
	p, src := newPipeline(t, testConfig(20, 10, 30))
	reg := metrics.NewRegistry()
	p.WithMetrics(reg)
	loader := &countingLoader{}

	_, err := p.Run(context.Background(), zeroPrice{src}, Stages{Loader: loader})
	require.ErrorIs(t, err, dataerr.ErrValidation)
	assert.Equal(t, 4, dataerr.ExitCode(err))
	assert.Zero(t, loader.calls)

	var ve *dataerr.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Violations, 1)
	assert.Equal(t, "products", ve.Violations[0].Table)
	assert.Equal(t, int64(2), ve.Violations[0].RowID)
	assert.Contains(t, ve.Blocked, schema.OrderItems)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.Violations.WithLabelValues("products", "min")))
	assert.Equal(t, 0.0, testutil.ToFloat64(reg.LastRunSuccess))
}

func TestOrdersWithoutCustomersIsConfigurationError(t *testing.T) {
	_, err := New(testConfig(0, 10, 10), schema.Ecommerce(), now)
	assert.ErrorIs(t, err, dataerr.ErrConfiguration)
	assert.Equal(t, 2, dataerr.ExitCode(err))
}

func TestCustomersWithoutOrders(t *testing.T) {
	p, src := newPipeline(t, testConfig(100, 10, 0))
	g, err := p.Generate(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		schema.Customers: 100, schema.Products: 10, schema.Orders: 0, schema.OrderItems: 0, schema.Payments: 0,
	}, g.Snapshot.Counts())
	assert.Zero(t, g.Manifest.Anomaly.Injected)
}

func TestGenerateIsDeterministic(t *testing.T) {
	run := func() *artifact.Manifest {
		p, src := newPipeline(t, testConfig(30, 10, 50))
		m, err := p.Run(context.Background(), src, Stages{Artifacts: artifact.NewFSStore(t.TempDir())})
		require.NoError(t, err)
		return m
	}
	a, b := run(), run()
	assert.Equal(t, a.SnapshotID, b.SnapshotID)
	assert.Equal(t, a.Files, b.Files)
	assert.Equal(t, "2026-10-17", a.ReferenceDate)
}

type recordingPublisher struct{ published []string }

func (r *recordingPublisher) Publish(_ context.Context, m *artifact.Manifest) error {
	r.published = append(r.published, m.SnapshotID)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func TestEndToEndOnSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(50, 20, 100)
	cfg.Load.ChunkSize = 40
	catalog := schema.Ecommerce()
	reg := metrics.NewRegistry()

	store, err := database.Open(ctx, "sqlite", "sqlite://"+filepath.Join(t.TempDir(), "ecom.db"))
	require.NoError(t, err)
	defer store.Close()

	p, src := newPipeline(t, cfg)
	p.WithMetrics(reg)
	artifacts := artifact.NewFSStore(t.TempDir())
	pub := &recordingPublisher{}
	stages := Stages{
		Artifacts: artifacts,
		Loader:    writer.New(store, catalog, writer.OptionsFromConfig(cfg)).WithMetrics(reg),
		Auditor:   audit.New(store, catalog, cfg.Audit.AnomalySigma).WithMetrics(reg),
		Publisher: pub,
	}

	m, err := p.Run(ctx, src, stages)
	require.NoError(t, err)
	assert.Equal(t, []string{m.SnapshotID}, pub.published)
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.LastRunSuccess))
	assert.Equal(t, 250.0, testutil.ToFloat64(reg.RowsLoaded.WithLabelValues(schema.OrderItems)))

	// Reloading the stored artifacts replaces the snapshot with identical counts.
	snap, stored, err := p.ReadArtifacts(ctx, artifacts)
	require.NoError(t, err)
	assert.Equal(t, m.SnapshotID, stored.SnapshotID)
	require.NoError(t, p.Deliver(ctx, snap, stored, stages))

	counts, err := store.RowCounts(ctx, []string{schema.Customers, schema.Products, schema.Orders, schema.OrderItems, schema.Payments})
	require.NoError(t, err)
	for name, n := range m.Counts {
		assert.EqualValues(t, n, counts[name], name)
	}
}

func TestTamperedArtifactFailsValidation(t *testing.T) {
	ctx := context.Background()
	p, src := newPipeline(t, testConfig(10, 5, 10))
	dir := t.TempDir()
	_, err := p.Run(ctx, src, Stages{Artifacts: artifact.NewFSStore(dir)})
	require.NoError(t, err)

	path := filepath.Join(dir, artifact.FileName(schema.Customers))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append(data, []byte("11,Ada,Lovelace,ada@example.com,2026-01-01\n")...), 0o644))

	_, _, err = p.ReadArtifacts(ctx, artifact.NewFSStore(dir))
	var ve *dataerr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "checksum", ve.Violations[0].Rule)
}
