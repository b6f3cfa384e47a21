package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Registry struct {
	reg               *prometheus.Registry
	RowsGenerated     *prometheus.CounterVec
	Violations        *prometheus.CounterVec
	ChunksCommitted   *prometheus.CounterVec
	ChunkRetries      *prometheus.CounterVec
	RowsLoaded        *prometheus.CounterVec
	LoadDurationSec   prometheus.Histogram
	AuditFindings     *prometheus.CounterVec
	AnomaliesInjected prometheus.Gauge
	LastRunSuccess    prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	rowsGenerated := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ecomgen_rows_generated_total"}, []string{"table"})
	violations := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ecomgen_validation_violations_total"}, []string{"table", "rule"})
	chunks := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ecomgen_load_chunks_committed_total"}, []string{"table"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ecomgen_load_chunk_retries_total"}, []string{"table"})
	rowsLoaded := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ecomgen_rows_loaded_total"}, []string{"table"})
	loadDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ecomgen_load_duration_seconds",
		Buckets: prometheus.DefBuckets,
	})
	findings := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ecomgen_audit_findings_total"}, []string{"check"})
	anomalies := prometheus.NewGauge(prometheus.GaugeOpts{Name: "ecomgen_anomalies_injected"})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{Name: "ecomgen_last_run_success"})

	r.MustRegister(rowsGenerated, violations, chunks, retries, rowsLoaded, loadDuration, findings, anomalies, lastRun)
	return &Registry{
		reg:               r,
		RowsGenerated:     rowsGenerated,
		Violations:        violations,
		ChunksCommitted:   chunks,
		ChunkRetries:      retries,
		RowsLoaded:        rowsLoaded,
		LoadDurationSec:   loadDuration,
		AuditFindings:     findings,
		AnomaliesInjected: anomalies,
		LastRunSuccess:    lastRun,
	}
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}

func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }
