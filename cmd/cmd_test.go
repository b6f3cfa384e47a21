package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/artifact"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataerr"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	return runWith(context.Background(), args...)
}

func runWith(ctx context.Context, args ...string) error {
	rootCmd.SetArgs(args)
	return executeContext(ctx)
}

func TestGenerateLoadAuditCycle(t *testing.T) {
	dir := t.TempDir()
	artifacts := filepath.Join(dir, "data")
	metrics := filepath.Join(dir, "ecomgen.prom")
	cfgPath := filepath.Join(dir, "ecomgen.config.yaml")
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(dir, "ecom.db"))

	cfg := fmt.Sprintf(`seed: 5
reference_date: "2026-10-17"
counts:
  customers: 30
  products: 10
  orders: 40
  order_items: -1
  payments: -1
artifacts:
  dir: %q
load:
  mode: refuse
  chunk_size: 16
`, artifacts)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))

	require.NoError(t, run(t, "generate", "--load", "--quiet", "--config", cfgPath, "--metrics-file", metrics))
	assert.FileExists(t, filepath.Join(artifacts, artifact.ManifestName))
	assert.FileExists(t, filepath.Join(artifacts, "order_items.csv"))

	prom, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `ecomgen_rows_loaded_total{table="order_items"} 100`)

	require.NoError(t, run(t, "audit", "--quiet", "--config", cfgPath))

	err = run(t, "load", "--quiet", "--config", cfgPath)
	assert.ErrorIs(t, err, dataerr.ErrLoad)
	assert.Equal(t, 5, dataerr.ExitCode(err))
}

func TestMissingConfigFileIsConfigurationError(t *testing.T) {
	err := run(t, "generate", "--quiet", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, dataerr.ErrConfiguration)
}

func TestInitWritesConfigOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ecomgen.config.yaml")
	require.NoError(t, run(t, "init", "--quiet", "--path", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(data, []byte("chunk_size: 1000")))

	assert.Error(t, run(t, "init", "--quiet", "--path", path))
}

func TestInterruptedGenerateStopsBeforeLoading(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(dir, "ecom.db"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runWith(ctx, "generate", "--load", "--quiet", "--config", writeSmallConfig(t, dir))
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(dir, "data", artifact.ManifestName))
}

func writeSmallConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "small.yaml")
	cfg := fmt.Sprintf("seed: 3\ncounts:\n  customers: 10\n  products: 5\n  orders: 10\nartifacts:\n  dir: %q\n", filepath.Join(dir, "data"))
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))
	return path
}
