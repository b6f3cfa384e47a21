package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataerr"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Seed != 42 {
		t.Errorf("Expected seed 42, got %d", cfg.Seed)
	}
	if cfg.Counts.Customers != 2000 || cfg.Counts.Products != 600 || cfg.Counts.Orders != 4000 {
		t.Errorf("Unexpected default counts: %+v", cfg.Counts)
	}
	resolved := cfg.Counts.Resolved()
	if resolved.OrderItems != 10000 {
		t.Errorf("Expected derived order_items 10000, got %d", resolved.OrderItems)
	}
	if resolved.Payments != 4000 {
		t.Errorf("Expected derived payments 4000, got %d", resolved.Payments)
	}
	if cfg.Load.ChunkSize != 1000 {
		t.Errorf("Expected chunk_size 1000, got %d", cfg.Load.ChunkSize)
	}
	if cfg.Load.RetryBackoff != 200*time.Millisecond {
		t.Errorf("Expected retry_backoff 200ms, got %s", cfg.Load.RetryBackoff)
	}
	if !cfg.Database.EnforceForeignKeys {
		t.Error("Expected foreign keys to be enforced by default")
	}
	if cfg.Database.URLEnv != "DATABASE_URL" {
		t.Errorf("Expected database url_env to be 'DATABASE_URL', got '%s'", cfg.Database.URLEnv)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got %v", err)
	}
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ecomgen.config.json")
	body := `{"seed": 7, "counts": {"customers": 100, "orders": 0}, "load": {"mode": "refuse"}}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("ECOMGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("read config: %v", err)
	}
	t.Setenv("ECOMGEN_LOAD_CHUNK_SIZE", "250")

	cfg, err := LoadFrom(v)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Seed != 7 {
		t.Errorf("Expected seed 7, got %d", cfg.Seed)
	}
	if cfg.Load.ChunkSize != 250 {
		t.Errorf("Expected env override chunk_size 250, got %d", cfg.Load.ChunkSize)
	}
	if cfg.Load.Mode != LoadModeRefuse {
		t.Errorf("Expected mode refuse, got %s", cfg.Load.Mode)
	}

	counts := cfg.Counts.Resolved()
	if counts.OrderItems != 0 || counts.Payments != 0 {
		t.Errorf("Derived counts should follow zero orders, got %+v", counts)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("100 customers / 0 orders should validate, got %v", err)
	}
}

func TestValidateRejectsInconsistentCounts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"orders without customers", func(c *Config) { c.Counts.Customers = 0; c.Counts.Orders = 10 }, "counts.orders"},
		{"items without products", func(c *Config) { c.Counts.Products = 0 }, "counts.order_items"},
		{"payments exceed orders", func(c *Config) { c.Counts.Payments = 5000 }, "counts.payments"},
		{"fewer items than orders", func(c *Config) { c.Counts.OrderItems = 10 }, "counts.order_items"},
		{"negative count", func(c *Config) { c.Counts.Customers = -3 }, "counts.customers"},
		{"anomaly rate", func(c *Config) { c.Anomaly.Rate = 1.5 }, "anomaly.rate"},
		{"bad magnitudes", func(c *Config) { c.Anomaly.MinMagnitude = 0.6 }, "anomaly"},
		{"bad provider", func(c *Config) { c.Database.Provider = "oracle" }, "database.provider"},
		{"bad mode", func(c *Config) { c.Load.Mode = "append" }, "load.mode"},
		{"bad reference date", func(c *Config) { c.ReferenceDate = "17/10/2026" }, "reference_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !errors.Is(err, dataerr.ErrConfiguration) {
				t.Errorf("Expected configuration error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("Expected error to name %s, got %v", tt.field, err)
			}
		})
	}
}

func TestResolveReferenceDate(t *testing.T) {
	cfg := Default()
	now := time.Date(2026, 10, 17, 23, 59, 0, 0, time.FixedZone("X", -3*3600))

	got, err := cfg.ResolveReferenceDate(now)
	if err != nil {
		t.Fatalf("ResolveReferenceDate: %v", err)
	}
	if got.Format(DateLayout) != "2026-10-18" {
		t.Errorf("Expected UTC calendar date 2026-10-18, got %s", got.Format(DateLayout))
	}

	cfg.ReferenceDate = "2025-01-31"
	got, err = cfg.ResolveReferenceDate(now)
	if err != nil {
		t.Fatalf("ResolveReferenceDate: %v", err)
	}
	if got.Format(DateLayout) != "2025-01-31" {
		t.Errorf("Expected configured date, got %s", got.Format(DateLayout))
	}
}

func TestGetDatabaseURL(t *testing.T) {
	cfg := Default()
	cfg.Database.URLEnv = "ECOMGEN_TEST_DB_URL"

	t.Setenv("ECOMGEN_TEST_DB_URL", "postgres://u:p@localhost/ecom")
	url, err := cfg.GetDatabaseURL()
	if err != nil || url != "postgres://u:p@localhost/ecom" {
		t.Errorf("Expected env URL, got %q (%v)", url, err)
	}

	t.Setenv("ECOMGEN_TEST_DB_URL", "")
	url, err = cfg.GetDatabaseURL()
	if err != nil || url != cfg.Database.URL {
		t.Errorf("Expected config URL fallback, got %q (%v)", url, err)
	}

	cfg.Database.URL = ""
	if _, err := cfg.GetDatabaseURL(); !errors.Is(err, dataerr.ErrConfiguration) {
		t.Errorf("Expected configuration error, got %v", err)
	}
}

func TestMarshalDocumentedReadsBack(t *testing.T) {
	cfg := Default()
	cfg.Seed = 7
	cfg.Load.RetryBackoff = 750 * time.Millisecond

	data, err := MarshalDocumented(cfg)
	if err != nil {
		t.Fatalf("MarshalDocumented failed: %v", err)
	}
	if !strings.Contains(string(data), "# Rows per table.") {
		t.Errorf("Expected section comments, got:\n%s", data)
	}
	if !strings.Contains(string(data), "retry_backoff: 750ms") {
		t.Errorf("Expected string duration, got:\n%s", data)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(string(data))); err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}
	got, err := LoadFrom(v)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if got.Seed != 7 || got.Load.RetryBackoff != 750*time.Millisecond || got.Counts != cfg.Counts {
		t.Errorf("Round trip mismatch: seed=%d backoff=%s counts=%+v", got.Seed, got.Load.RetryBackoff, got.Counts)
	}
	if got.Database != cfg.Database || got.Anomaly != cfg.Anomaly {
		t.Errorf("Round trip mismatch: %+v / %+v", got.Database, got.Anomaly)
	}
}

func TestLoadReadsGlobalViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("load.chunk_size", 250)
	viper.Set("load.mode", LoadModeRefuse)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := LoadSettings{
		Mode:         LoadModeRefuse,
		ChunkSize:    250,
		MaxRetries:   Default().Load.MaxRetries,
		RetryBackoff: Default().Load.RetryBackoff,
		ChunkTimeout: Default().Load.ChunkTimeout,
	}
	if cfg.Load != want {
		t.Errorf("Expected %+v, got %+v", want, cfg.Load)
	}
}

func TestValidateReportsCountsInStableOrder(t *testing.T) {
	cfg := Default()
	cfg.Counts.Customers = -3
	cfg.Counts.Products = -2
	cfg.Counts.OrderItems = -4

	first := cfg.Validate()
	if first == nil {
		t.Fatal("Expected validation error")
	}
	msg := first.Error()
	c, p, i := strings.Index(msg, "counts.customers"), strings.Index(msg, "counts.products"), strings.Index(msg, "counts.order_items")
	if c < 0 || p < c || i < p {
		t.Errorf("Expected customers, products, order_items in that order, got %v", msg)
	}
	for n := 0; n < 20; n++ {
		if got := cfg.Validate().Error(); got != msg {
			t.Fatalf("Validate output changed between calls:\n%s\n%s", msg, got)
		}
	}
}
