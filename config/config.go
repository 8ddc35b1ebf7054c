// Package config loads deployment settings for the bulk order importer.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"bulkorder/services"
)

// Config holds the application configuration.
type Config struct {
	OrderAPIURL          string `yaml:"order_api_url"`
	OrderAPIToken        string `yaml:"order_api_token"`
	DateOrder            string `yaml:"date_order"`
	BatchPolicy          string `yaml:"batch_policy"`
	AllowZeroAmounts     bool   `yaml:"allow_zero_amounts"`
	MaxUploadMB          int    `yaml:"max_upload_mb"`
	SubmitTimeoutSeconds int    `yaml:"submit_timeout_seconds"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		DateOrder:            string(services.DateOrderAuto),
		BatchPolicy:          string(services.PolicyStrict),
		MaxUploadMB:          10,
		SubmitTimeoutSeconds: 60,
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order. path may be empty; INGEST_CONFIG is used then.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using system environment variables")
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("INGEST_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("ORDER_API_URL"); v != "" {
		c.OrderAPIURL = v
	}
	if v := os.Getenv("ORDER_API_TOKEN"); v != "" {
		c.OrderAPIToken = v
	}
	if v := os.Getenv("INGEST_DATE_ORDER"); v != "" {
		c.DateOrder = v
	}
	if v := os.Getenv("INGEST_BATCH_POLICY"); v != "" {
		c.BatchPolicy = v
	}
	if v := os.Getenv("INGEST_ALLOW_ZERO_AMOUNTS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("INGEST_ALLOW_ZERO_AMOUNTS: %w", err)
		}
		c.AllowZeroAmounts = b
	}
	if v := os.Getenv("INGEST_MAX_UPLOAD_MB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("INGEST_MAX_UPLOAD_MB: %w", err)
		}
		c.MaxUploadMB = n
	}
	if v := os.Getenv("INGEST_SUBMIT_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("INGEST_SUBMIT_TIMEOUT_SECONDS: %w", err)
		}
		c.SubmitTimeoutSeconds = n
	}
	return nil
}

// Validate checks enum membership and ranges.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.OrderAPIURL, is.URL),
		validation.Field(&c.DateOrder, validation.Required, validation.In(
			string(services.DateOrderAuto), string(services.DateOrderMDY), string(services.DateOrderDMY))),
		validation.Field(&c.BatchPolicy, validation.Required, validation.In(
			string(services.PolicyStrict), string(services.PolicyQuarantine))),
		validation.Field(&c.MaxUploadMB, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.SubmitTimeoutSeconds, validation.Required, validation.Min(1), validation.Max(600)),
	)
}

// IngestOptions maps the configuration onto pipeline options.
func (c Config) IngestOptions() services.Options {
	return services.Options{
		DateOrder:        services.DateOrder(c.DateOrder),
		Policy:           services.BatchPolicy(c.BatchPolicy),
		AllowZeroAmounts: c.AllowZeroAmounts,
	}
}

// MaxUploadBytes is the upload size limit in bytes.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// SubmitTimeout is the per-batch submission timeout.
func (c Config) SubmitTimeout() time.Duration {
	return time.Duration(c.SubmitTimeoutSeconds) * time.Second
}

// StaleClaimAfter is how long an upload may sit in submission before an
// operator can discard it. The client gives up after SubmitTimeout, so a
// claim twice that old belongs to a submit that never finished.
func (c Config) StaleClaimAfter() time.Duration {
	return 2 * c.SubmitTimeout()
}

// OrderClient returns the submission client for the configured endpoint.
func (c Config) OrderClient() *services.OrderClient {
	return services.NewOrderClient(c.OrderAPIURL, c.OrderAPIToken, c.SubmitTimeout())
}
