package config

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

var sectionDocs = map[string]string{
	"seed":           "Seed of the root sampler. The same seed and config reproduce the same snapshot byte for byte.",
	"reference_date": "Upper bound for every generated date (YYYY-MM-DD). Empty means today in UTC.",
	"history_days":   "Signup dates are drawn from [reference_date - history_days, reference_date].",
	"counts":         "Rows per table. order_items and payments may be -1 to follow orders (2.5 items and 1 payment per order).",
	"distributions":  "price ~ lognormal(price_mu, price_sigma); orders_per_customer 0 means orders/customers.",
	"anomaly":        "Fraction of payments whose amount deliberately differs from the order total, and by how much.",
	"tolerance":      "Money values agree when |a-b| <= max(abs, rel*max(|a|,|b|)).",
	"artifacts":      "Where CSV files and manifest.json are written. Set s3.bucket to store them in S3.",
	"database":       "Target store. The URL is read from the env var named by url_env, then from url.",
	"load":           "mode is replace or refuse. Chunks that fail transiently are retried max_retries times.",
	"audit":          "Allowed distance, in standard errors, between the measured and configured anomaly rate.",
	"announce":       "Publish the manifest to Kafka after a successful load and audit. Empty brokers disables it.",
}

// MarshalYAML writes durations in their string form so the file reads back
// through viper unchanged.
func (l LoadSettings) MarshalYAML() (any, error) {
	return struct {
		Mode         string `yaml:"mode"`
		ChunkSize    int    `yaml:"chunk_size"`
		MaxRetries   int    `yaml:"max_retries"`
		RetryBackoff string `yaml:"retry_backoff"`
		ChunkTimeout string `yaml:"chunk_timeout"`
	}{l.Mode, l.ChunkSize, l.MaxRetries, l.RetryBackoff.String(), l.ChunkTimeout.String()}, nil
}

// MarshalDocumented renders cfg as YAML with a comment above every section.
func MarshalDocumented(cfg *Config) ([]byte, error) {
	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if text, ok := sectionDocs[doc.Content[i].Value]; ok {
			doc.Content[i].HeadComment = text
		}
	}
	doc.HeadComment = "ecomgen configuration. Every key can be overridden with ECOMGEN_<SECTION>_<KEY>."

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
