// Package pipeline runs the generate, load and audit stages in order and
// reports progress on the console. Stages never reach back upstream: a
// snapshot is only handed to the loader once every table passed validation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fatih/color"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/announce"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/artifact"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/audit"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/config"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataerr"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataset"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/metrics"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/schema"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/validator"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/writer"
)

// TableSource produces one table at a time from the committed snapshot.
type TableSource interface {
	Generate(ctx context.Context, table string, snap *dataset.Snapshot) (*dataset.Table, error)
	InjectedAnomalies() []int64
}

type Loader interface {
	Load(ctx context.Context, snap *dataset.Snapshot) (*writer.Result, error)
}

type Auditor interface {
	Audit(ctx context.Context, m *artifact.Manifest) (*audit.Report, error)
}

// Stages wires the optional parts of a run. Nil members are skipped.
type Stages struct {
	Artifacts artifact.Store
	Loader    Loader
	Auditor   Auditor
	Publisher announce.Publisher
}

type Pipeline struct {
	cfg       *config.Config
	catalog   *schema.Catalog
	reference time.Time
	metrics   *metrics.Registry
}

// New validates cfg and fixes the reference date for the run.
func New(cfg *config.Config, catalog *schema.Catalog, now time.Time) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := catalog.Validate(); err != nil {
		return nil, dataerr.NewConfigError("schema", "%v", err)
	}
	ref, err := cfg.ResolveReferenceDate(now)
	if err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg, catalog: catalog, reference: ref}, nil
}

func (p *Pipeline) WithMetrics(m *metrics.Registry) *Pipeline {
	p.metrics = m
	return p
}

func (p *Pipeline) Reference() time.Time { return p.reference }

func (p *Pipeline) tolerance() validator.Tolerance {
	return validator.Tolerance{Abs: p.cfg.Tolerance.Abs, Rel: p.cfg.Tolerance.Rel}
}

// Generated is a fully validated snapshot and its unsealed manifest.
type Generated struct {
	Snapshot *dataset.Snapshot
	Manifest artifact.Manifest
}

// Generate builds each table in dependency order and validates it before
// the next one is generated. Tables that depend on a rejected table are
// blocked, not generated.
func (p *Pipeline) Generate(ctx context.Context, src TableSource) (*Generated, error) {
	order, err := p.catalog.InsertionOrder()
	if err != nil {
		return nil, err
	}
	color.Cyan("🌱 Generating snapshot (seed %d, reference date %s)...", p.cfg.Seed, p.reference.Format(config.DateLayout))

	gate := validator.New(p.catalog, p.reference, p.tolerance()).NewGate()
	for _, name := range order {
		if gate.Blocked(name) {
			gate.Block(name)
			color.Yellow("  ⏭️  %s blocked by a rejected parent table", name)
			continue
		}
		t, err := src.Generate(ctx, name, gate.Snapshot())
		if err != nil && ctx.Err() == nil && gate.Err() != nil {
			// A rejected table can starve a generator that reads it without a
			// declared foreign key (orders draw their baskets from products).
			gate.Block(name)
			color.Yellow("  ⏭️  %s blocked: %v", name, err)
			continue
		}
		if err != nil {
			color.Red("  ❌ %s: %v", name, err)
			return nil, err
		}
		if p.metrics != nil {
			p.metrics.RowsGenerated.WithLabelValues(name).Add(float64(t.Len()))
		}
		if vs := gate.Admit(t); len(vs) > 0 {
			p.reportViolations(name, vs)
			continue
		}
		color.Green("  ✓ %s (%d rows)", name, t.Len())
	}
	if err := gate.Err(); err != nil {
		return nil, err
	}

	snap := gate.Snapshot()
	anomalies := src.InjectedAnomalies()
	if p.metrics != nil {
		p.metrics.AnomaliesInjected.Set(float64(len(anomalies)))
	}
	return &Generated{Snapshot: snap, Manifest: p.baseManifest(snap, anomalies)}, nil
}

func (p *Pipeline) baseManifest(snap *dataset.Snapshot, anomalies []int64) artifact.Manifest {
	return artifact.Manifest{
		Seed:          p.cfg.Seed,
		ReferenceDate: p.reference.Format(config.DateLayout),
		HistoryDays:   p.cfg.HistoryDays,
		Counts:        snap.Counts(),
		Anomaly: artifact.AnomalyInfo{
			Rate:         p.cfg.Anomaly.Rate,
			MinMagnitude: p.cfg.Anomaly.MinMagnitude,
			MaxMagnitude: p.cfg.Anomaly.MaxMagnitude,
			Injected:     len(anomalies),
			PaymentIDs:   anomalies,
		},
		Tolerance: artifact.ToleranceInfo{Abs: p.cfg.Tolerance.Abs, Rel: p.cfg.Tolerance.Rel},
	}
}

const maxReportedViolations = 10

func (p *Pipeline) reportViolations(table string, vs []dataerr.Violation) {
	color.Red("  ❌ %s rejected: %d violation(s)", table, len(vs))
	for i, v := range vs {
		if p.metrics != nil {
			p.metrics.Violations.WithLabelValues(v.Table, v.Rule).Inc()
		}
		if i < maxReportedViolations {
			fmt.Fprintf(color.Output, "     • %s\n", v)
		}
	}
	if len(vs) > maxReportedViolations {
		fmt.Fprintf(color.Output, "     … and %d more\n", len(vs)-maxReportedViolations)
	}
}

// WriteArtifacts stores the CSV files and seals the manifest.
func (p *Pipeline) WriteArtifacts(ctx context.Context, store artifact.Store, g *Generated) (*artifact.Manifest, error) {
	color.Cyan("💾 Writing artifacts to %s...", store.Location())
	m, err := artifact.Write(ctx, store, g.Snapshot, g.Manifest, p.cfg.Artifacts.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to write artifacts: %w", err)
	}
	color.Green("✅ Snapshot %s written", m.SnapshotID)
	return m, nil
}

// ReadArtifacts loads a stored snapshot and validates it again against the
// reference date and tolerance recorded in its manifest.
func (p *Pipeline) ReadArtifacts(ctx context.Context, store artifact.Store) (*dataset.Snapshot, *artifact.Manifest, error) {
	color.Cyan("📖 Reading artifacts from %s...", store.Location())
	loaded, err := artifact.Read(ctx, store, p.catalog)
	if err != nil {
		return nil, nil, err
	}
	m := loaded.Manifest

	ref, err := time.ParseInLocation(config.DateLayout, m.ReferenceDate, time.UTC)
	if err != nil {
		return nil, nil, fmt.Errorf("manifest %s has invalid reference_date %q", m.SnapshotID, m.ReferenceDate)
	}
	order, err := p.catalog.InsertionOrder()
	if err != nil {
		return nil, nil, err
	}

	tol := validator.Tolerance{Abs: m.Tolerance.Abs, Rel: m.Tolerance.Rel}
	gate := validator.New(p.catalog, ref, tol).NewGate()
	for _, name := range order {
		if gate.Blocked(name) {
			gate.Block(name)
			continue
		}
		if vs := gate.Admit(loaded.Tables[name], loaded.Violations[name]...); len(vs) > 0 {
			p.reportViolations(name, vs)
		}
	}
	if err := gate.Err(); err != nil {
		return nil, nil, err
	}
	color.Green("✅ Snapshot %s validated", m.SnapshotID)
	return gate.Snapshot(), m, nil
}

func (p *Pipeline) Load(ctx context.Context, loader Loader, snap *dataset.Snapshot) (*writer.Result, error) {
	color.Cyan("📝 Loading snapshot (mode %s, chunk size %d)...", p.cfg.Load.Mode, p.cfg.Load.ChunkSize)
	res, err := loader.Load(ctx, snap)
	if err != nil {
		color.Red("❌ Load failed, store left unchanged: %v", err)
		return nil, err
	}
	for name, n := range res.Replaced {
		if n > 0 {
			color.Yellow("  ⚠️  Replaced %d existing rows in %s", n, name)
		}
	}
	for _, t := range res.Tables {
		retries := ""
		if t.Retries > 0 {
			retries = fmt.Sprintf(", %d retries", t.Retries)
		}
		color.Green("  ✓ %s: %d rows in %d chunk(s)%s", t.Table, t.Rows, t.Chunks, retries)
	}
	color.Green("✅ Loaded in %s", res.Duration.Round(time.Millisecond))
	return res, nil
}

func (p *Pipeline) Audit(ctx context.Context, auditor Auditor, m *artifact.Manifest) (*audit.Report, error) {
	color.Cyan("🔍 Auditing store against snapshot %s...", m.SnapshotID)
	r, err := auditor.Audit(ctx, m)
	if err != nil {
		var auditErr *dataerr.AuditError
		if errors.As(err, &auditErr) {
			for _, f := range auditErr.Findings {
				color.Red("  ❌ %s", f)
			}
		}
		return r, err
	}
	color.Green("✅ Audit passed: %d payment discrepancies (%.2f%%), all as injected",
		r.Discrepancies, 100*r.DiscrepancyRate)
	return r, nil
}

// Run executes a full run: generate, then every configured stage.
func (p *Pipeline) Run(ctx context.Context, src TableSource, stages Stages) (m *artifact.Manifest, err error) {
	defer func() {
		if p.metrics == nil {
			return
		}
		if err != nil {
			p.metrics.LastRunSuccess.Set(0)
		} else {
			p.metrics.LastRunSuccess.Set(1)
		}
	}()

	g, err := p.Generate(ctx, src)
	if err != nil {
		return nil, err
	}

	if stages.Artifacts != nil {
		if m, err = p.WriteArtifacts(ctx, stages.Artifacts, g); err != nil {
			return nil, err
		}
	} else {
		sealed := g.Manifest
		if err := sealed.Seal(); err != nil {
			return nil, err
		}
		m = &sealed
	}
	PrintCounts(g.Snapshot.Counts())

	return m, p.Deliver(ctx, g.Snapshot, m, stages)
}

// Deliver loads, audits and announces a validated snapshot.
func (p *Pipeline) Deliver(ctx context.Context, snap *dataset.Snapshot, m *artifact.Manifest, stages Stages) error {
	if stages.Loader == nil {
		return nil
	}
	if _, err := p.Load(ctx, stages.Loader, snap); err != nil {
		return err
	}
	if stages.Auditor != nil {
		if _, err := p.Audit(ctx, stages.Auditor, m); err != nil {
			return err
		}
	}
	if stages.Publisher != nil {
		if err := stages.Publisher.Publish(ctx, m); err != nil {
			// Announcing is best effort once the store is committed.
			color.Yellow("⚠️  Failed to announce snapshot %s: %v", m.SnapshotID, err)
		}
	}
	return nil
}

// PrintCounts prints a row-count summary, one table per line.
func PrintCounts[N int | int64](counts map[string]N) {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	color.Cyan("\n📊 Row counts:")
	for _, name := range names {
		fmt.Fprintf(color.Output, "  %-12s %8d\n", name, counts[name])
	}
}
