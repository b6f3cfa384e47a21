package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataerr"
)

const (
	// DateLayout is the calendar date format used in config, artifacts and the store.
	DateLayout = "2006-01-02"

	// Derived marks a count that is computed from the orders count.
	Derived = -1

	itemsPerOrder = 2.5
)

const (
	LoadModeReplace = "replace"
	LoadModeRefuse  = "refuse"
)

type Config struct {
	Seed          int64         `json:"seed" yaml:"seed" mapstructure:"seed"`
	ReferenceDate string        `json:"reference_date" yaml:"reference_date" mapstructure:"reference_date"`
	HistoryDays   int           `json:"history_days" yaml:"history_days" mapstructure:"history_days"`
	Counts        Counts        `json:"counts" yaml:"counts" mapstructure:"counts"`
	Distributions Distributions `json:"distributions" yaml:"distributions" mapstructure:"distributions"`
	Anomaly       Anomaly       `json:"anomaly" yaml:"anomaly" mapstructure:"anomaly"`
	Tolerance     Tolerance     `json:"tolerance" yaml:"tolerance" mapstructure:"tolerance"`
	Artifacts     Artifacts     `json:"artifacts" yaml:"artifacts" mapstructure:"artifacts"`
	Database      Database      `json:"database" yaml:"database" mapstructure:"database"`
	Load          LoadSettings  `json:"load" yaml:"load" mapstructure:"load"`
	Audit         Audit         `json:"audit" yaml:"audit" mapstructure:"audit"`
	Announce      Announce      `json:"announce" yaml:"announce" mapstructure:"announce"`
}

// Counts holds the requested rows per table. OrderItems and Payments may be
// Derived, in which case they follow the orders count (2.5 items and one
// payment per order).
type Counts struct {
	Customers  int `json:"customers" yaml:"customers" mapstructure:"customers"`
	Products   int `json:"products" yaml:"products" mapstructure:"products"`
	Orders     int `json:"orders" yaml:"orders" mapstructure:"orders"`
	OrderItems int `json:"order_items" yaml:"order_items" mapstructure:"order_items"`
	Payments   int `json:"payments" yaml:"payments" mapstructure:"payments"`
}

type Distributions struct {
	PriceMu    float64 `json:"price_mu" yaml:"price_mu" mapstructure:"price_mu"`
	PriceSigma float64 `json:"price_sigma" yaml:"price_sigma" mapstructure:"price_sigma"`
	// OrdersPerCustomer is the Poisson mean of a customer's activity weight.
	// Zero means orders/customers.
	OrdersPerCustomer float64 `json:"orders_per_customer" yaml:"orders_per_customer" mapstructure:"orders_per_customer"`
	BulkQuantityShare float64 `json:"bulk_quantity_share" yaml:"bulk_quantity_share" mapstructure:"bulk_quantity_share"`
	PaymentDelayDays  int     `json:"payment_delay_days" yaml:"payment_delay_days" mapstructure:"payment_delay_days"`
}

// Anomaly configures the deliberate payment/order total mismatches.
type Anomaly struct {
	Rate         float64 `json:"rate" yaml:"rate" mapstructure:"rate"`
	MinMagnitude float64 `json:"min_magnitude" yaml:"min_magnitude" mapstructure:"min_magnitude"`
	MaxMagnitude float64 `json:"max_magnitude" yaml:"max_magnitude" mapstructure:"max_magnitude"`
}

type Tolerance struct {
	Abs float64 `json:"abs" yaml:"abs" mapstructure:"abs"`
	Rel float64 `json:"rel" yaml:"rel" mapstructure:"rel"`
}

type Artifacts struct {
	Dir     string     `json:"dir" yaml:"dir" mapstructure:"dir"`
	Workers int        `json:"workers" yaml:"workers" mapstructure:"workers"`
	S3      S3Artifact `json:"s3" yaml:"s3" mapstructure:"s3"`
}

type S3Artifact struct {
	Bucket          string `json:"bucket" yaml:"bucket" mapstructure:"bucket"`
	Prefix          string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
	Region          string `json:"region" yaml:"region" mapstructure:"region"`
	Endpoint        string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	PathStyle       bool   `json:"path_style" yaml:"path_style" mapstructure:"path_style"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id" mapstructure:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key" mapstructure:"secret_access_key"`
}

type Database struct {
	Provider           string `json:"provider" yaml:"provider" mapstructure:"provider"`
	URLEnv             string `json:"url_env" yaml:"url_env" mapstructure:"url_env"`
	URL                string `json:"url" yaml:"url" mapstructure:"url"`
	EnforceForeignKeys bool   `json:"enforce_foreign_keys" yaml:"enforce_foreign_keys" mapstructure:"enforce_foreign_keys"`
}

// LoadSettings controls how the writer persists a snapshot.
type LoadSettings struct {
	Mode         string        `json:"mode" yaml:"mode" mapstructure:"mode"`
	ChunkSize    int           `json:"chunk_size" yaml:"chunk_size" mapstructure:"chunk_size"`
	MaxRetries   int           `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
	RetryBackoff time.Duration `json:"retry_backoff" yaml:"retry_backoff" mapstructure:"retry_backoff"`
	ChunkTimeout time.Duration `json:"chunk_timeout" yaml:"chunk_timeout" mapstructure:"chunk_timeout"`
}

type Audit struct {
	// AnomalySigma is how many standard errors the measured discrepancy
	// fraction may stray from the configured anomaly rate.
	AnomalySigma float64 `json:"anomaly_sigma" yaml:"anomaly_sigma" mapstructure:"anomaly_sigma"`
}

type Announce struct {
	Kafka Kafka `json:"kafka" yaml:"kafka" mapstructure:"kafka"`
}

type Kafka struct {
	Brokers []string `json:"brokers" yaml:"brokers" mapstructure:"brokers"`
	Topic   string   `json:"topic" yaml:"topic" mapstructure:"topic"`
	Key     string   `json:"key" yaml:"key" mapstructure:"key"`
}

var defaults = map[string]any{
	"seed":                              int64(42),
	"reference_date":                    "",
	"history_days":                      3 * 365,
	"counts.customers":                  2000,
	"counts.products":                   600,
	"counts.orders":                     4000,
	"counts.order_items":                Derived,
	"counts.payments":                   Derived,
	"distributions.price_mu":            3.0,
	"distributions.price_sigma":         1.0,
	"distributions.orders_per_customer": 0.0,
	"distributions.bulk_quantity_share": 0.3,
	"distributions.payment_delay_days":  7,
	"anomaly.rate":                      0.05,
	"anomaly.min_magnitude":             0.05,
	"anomaly.max_magnitude":             0.5,
	"tolerance.abs":                     0.005,
	"tolerance.rel":                     1e-6,
	"artifacts.dir":                     "data",
	"artifacts.workers":                 4,
	"artifacts.s3.bucket":               "",
	"artifacts.s3.prefix":               "",
	"artifacts.s3.region":               "",
	"artifacts.s3.endpoint":             "",
	"artifacts.s3.path_style":           false,
	"artifacts.s3.access_key_id":        "",
	"artifacts.s3.secret_access_key":    "",
	"database.provider":                 "sqlite",
	"database.url_env":                  "DATABASE_URL",
	"database.url":                      "sqlite://./database/ecom.db",
	"database.enforce_foreign_keys":     true,
	"load.mode":                         LoadModeReplace,
	"load.chunk_size":                   1000,
	"load.max_retries":                  3,
	"load.retry_backoff":                "200ms",
	"load.chunk_timeout":                "30s",
	"audit.anomaly_sigma":               4.0,
	"announce.kafka.brokers":            []string{},
	"announce.kafka.topic":              "ecomgen.snapshots",
	"announce.kafka.key":                "ecomgen-snapshot-latest",
}

// SetDefaults registers every known key on v so that environment overrides
// and Unmarshal see the full key set.
func SetDefaults(v *viper.Viper) {
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Artifacts.Workers <= 0 {
		cfg.Artifacts.Workers = 1
	}
	return &cfg, nil
}

// Default returns the built-in configuration without reading any file.
func Default() *Config {
	cfg, err := LoadFrom(viper.New())
	if err != nil {
		panic(err)
	}
	return cfg
}

// Resolved returns the counts with derived values filled in.
func (c Counts) Resolved() Counts {
	out := c
	if out.OrderItems == Derived {
		out.OrderItems = int(math.Round(float64(out.Orders) * itemsPerOrder))
	}
	if out.Payments == Derived {
		out.Payments = out.Orders
	}
	return out
}

// ResolveReferenceDate parses reference_date, or truncates now to a UTC
// calendar date when it is unset.
func (c *Config) ResolveReferenceDate(now time.Time) (time.Time, error) {
	if c.ReferenceDate == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.ParseInLocation(DateLayout, c.ReferenceDate, time.UTC)
	if err != nil {
		return time.Time{}, dataerr.NewConfigError("reference_date", "expected YYYY-MM-DD, got %q", c.ReferenceDate)
	}
	return t, nil
}

// GetDatabaseURL prefers the environment variable named by url_env and falls
// back to the url key.
func (c *Config) GetDatabaseURL() (string, error) {
	if c.Database.URLEnv != "" {
		if dbURL := os.Getenv(c.Database.URLEnv); dbURL != "" {
			return dbURL, nil
		}
	}
	if c.Database.URL != "" {
		return c.Database.URL, nil
	}
	return "", dataerr.NewConfigError("database.url", "database URL not found in environment variable %s or config", c.Database.URLEnv)
}

// Validate reports every inconsistent generation or load parameter.
func (c *Config) Validate() error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, dataerr.NewConfigError(field, format, args...))
	}

	counts := c.Counts.Resolved()
	for _, f := range []struct {
		field string
		n     int
	}{
		{"counts.customers", counts.Customers},
		{"counts.products", counts.Products},
		{"counts.orders", counts.Orders},
		{"counts.order_items", counts.OrderItems},
		{"counts.payments", counts.Payments},
	} {
		if f.n < 0 {
			add(f.field, "must be >= 0 (or %d for derived counts), got %d", Derived, f.n)
		}
	}
	if counts.Orders > 0 && counts.Customers == 0 {
		add("counts.orders", "%d orders requested but no customers", counts.Orders)
	}
	if counts.OrderItems > 0 && counts.Orders == 0 {
		add("counts.order_items", "%d order items requested but no orders", counts.OrderItems)
	}
	if counts.OrderItems > 0 && counts.Products == 0 {
		add("counts.order_items", "%d order items requested but no products", counts.OrderItems)
	}
	if counts.Orders > 0 && counts.OrderItems < counts.Orders {
		add("counts.order_items", "every order needs at least one item: %d items < %d orders", counts.OrderItems, counts.Orders)
	}
	if counts.Payments > counts.Orders {
		add("counts.payments", "each payment settles a distinct order: %d payments > %d orders", counts.Payments, counts.Orders)
	}

	if c.HistoryDays <= 0 {
		add("history_days", "must be > 0, got %d", c.HistoryDays)
	}
	if _, err := c.ResolveReferenceDate(time.Now()); err != nil {
		errs = append(errs, err)
	}
	if c.Distributions.PriceSigma <= 0 {
		add("distributions.price_sigma", "must be > 0, got %g", c.Distributions.PriceSigma)
	}
	if c.Distributions.OrdersPerCustomer < 0 {
		add("distributions.orders_per_customer", "must be >= 0, got %g", c.Distributions.OrdersPerCustomer)
	}
	if s := c.Distributions.BulkQuantityShare; s < 0 || s > 1 {
		add("distributions.bulk_quantity_share", "must be within [0,1], got %g", s)
	}
	if c.Distributions.PaymentDelayDays < 0 {
		add("distributions.payment_delay_days", "must be >= 0, got %d", c.Distributions.PaymentDelayDays)
	}

	if r := c.Anomaly.Rate; r < 0 || r > 1 {
		add("anomaly.rate", "must be within [0,1], got %g", r)
	}
	if c.Anomaly.MinMagnitude <= 0 || c.Anomaly.MaxMagnitude > 1 || c.Anomaly.MinMagnitude > c.Anomaly.MaxMagnitude {
		add("anomaly", "magnitudes must satisfy 0 < min_magnitude <= max_magnitude <= 1, got [%g, %g]",
			c.Anomaly.MinMagnitude, c.Anomaly.MaxMagnitude)
	}
	if c.Tolerance.Abs < 0 || c.Tolerance.Rel < 0 {
		add("tolerance", "abs and rel must be >= 0")
	}

	if c.Artifacts.Dir == "" && c.Artifacts.S3.Bucket == "" {
		add("artifacts", "either artifacts.dir or artifacts.s3.bucket is required")
	}

	supported := false
	for _, p := range SupportedProviders {
		if c.Database.Provider == p {
			supported = true
			break
		}
	}
	if !supported {
		add("database.provider", "unsupported provider %q, supported: %v", c.Database.Provider, SupportedProviders)
	}

	if c.Load.Mode != LoadModeReplace && c.Load.Mode != LoadModeRefuse {
		add("load.mode", "must be %q or %q, got %q", LoadModeReplace, LoadModeRefuse, c.Load.Mode)
	}
	if c.Load.ChunkSize <= 0 {
		add("load.chunk_size", "must be > 0, got %d", c.Load.ChunkSize)
	}
	if c.Load.MaxRetries < 0 {
		add("load.max_retries", "must be >= 0, got %d", c.Load.MaxRetries)
	}
	if c.Load.ChunkTimeout <= 0 {
		add("load.chunk_timeout", "must be > 0, got %s", c.Load.ChunkTimeout)
	}
	if c.Audit.AnomalySigma <= 0 {
		add("audit.anomaly_sigma", "must be > 0, got %g", c.Audit.AnomalySigma)
	}

	return errors.Join(errs...)
}

// SupportedProviders lists the accepted database.provider values.
var SupportedProviders = []string{"sqlite", "sqlite3", "sqlite-purego", "postgresql", "postgres", "mysql"}
