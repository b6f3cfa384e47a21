package cmd

import (
	"context"
	"time"

	"github.com/fatih/color"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/config"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/database"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataerr"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/metrics"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/pipeline"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/schema"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/writer"
)

func loadConfig() (*config.Config, error) {
	if configErr != nil {
		return nil, dataerr.NewConfigError("config", "%v", configErr)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, dataerr.NewConfigError("config", "%v", err)
	}
	return cfg, nil
}

// newPipeline loads and validates the config and prepares a metrics
// registry when --metrics-file is set.
func newPipeline() (*config.Config, *pipeline.Pipeline, *metrics.Registry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	p, err := pipeline.New(cfg, schema.Ecommerce(), time.Now())
	if err != nil {
		return nil, nil, nil, err
	}
	var reg *metrics.Registry
	if metricsFile != "" {
		reg = metrics.NewRegistry()
		p.WithMetrics(reg)
	}
	return cfg, p, reg, nil
}

func flushMetrics(reg *metrics.Registry) {
	if reg == nil {
		return
	}
	if err := reg.WriteTextfile(metricsFile); err != nil {
		color.Yellow("⚠️  Failed to write metrics to %s: %v", metricsFile, err)
	}
}

func openDatabase(ctx context.Context, cfg *config.Config) (*database.Store, error) {
	dbURL, err := cfg.GetDatabaseURL()
	if err != nil {
		return nil, err
	}
	store, err := database.Open(ctx, cfg.Database.Provider, dbURL)
	if err != nil {
		return nil, &dataerr.LoadError{Err: err}
	}
	return store, nil
}

func newWriter(cfg *config.Config, store *database.Store, reg *metrics.Registry) *writer.Writer {
	w := writer.New(store, schema.Ecommerce(), writer.OptionsFromConfig(cfg)).WithMetrics(reg)
	w.OnChunk(func(e writer.ChunkEvent) {
		if e.Retries > 0 {
			color.Yellow("  ↻ %s chunk %d/%d committed after %d retries", e.Table, e.Chunk, e.Chunks, e.Retries)
		}
	})
	return w
}
