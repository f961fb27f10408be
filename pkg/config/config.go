package config

import (
	"context"
	"time"
)

// Config is the complete wfa configuration.
type Config struct {
	Runtime RuntimeConfig `koanf:"runtime" validate:"required"`
	Tasks   TasksConfig   `koanf:"tasks"   validate:"required"`
}

// RuntimeConfig controls process-wide behavior.
type RuntimeConfig struct {
	LogLevel           string `koanf:"log_level"            env:"WFA_LOG_LEVEL"            validate:"oneof=debug info warn error disabled"`
	LogJSON            bool   `koanf:"log_json"             env:"WFA_LOG_JSON"`
	ValidatorCacheSize int    `koanf:"validator_cache_size" env:"WFA_VALIDATOR_CACHE_SIZE" validate:"min=1"`
}

// TasksConfig groups the settings of the builtin tasks.
type TasksConfig struct {
	CSV      CSVConfig      `koanf:"csv"`
	Exchange ExchangeConfig `koanf:"exchange"`
}

type CSVConfig struct {
	// Delimiter used when a csv task input omits one.
	Delimiter string `koanf:"delimiter" env:"WFA_CSV_DELIMITER" validate:"delimiter"`
}

// ExchangeConfig configures the currency exchange task. URLs are templates
// with {date} and {from} placeholders.
type ExchangeConfig struct {
	PrimaryURL  string        `koanf:"primary_url"  env:"WFA_EXCHANGE_PRIMARY_URL"  validate:"required,url_template"`
	FallbackURL string        `koanf:"fallback_url" env:"WFA_EXCHANGE_FALLBACK_URL" validate:"omitempty,url_template"`
	Timeout     time.Duration `koanf:"timeout"      env:"WFA_EXCHANGE_TIMEOUT"      validate:"gt=0"`
	MaxRetries  uint64        `koanf:"max_retries"  env:"WFA_EXCHANGE_MAX_RETRIES"  validate:"max=10"`
	RetryDelay  time.Duration `koanf:"retry_delay"  env:"WFA_EXCHANGE_RETRY_DELAY"  validate:"gte=0"`
	// Currencies restricts accepted codes; empty means the builtin table.
	Currencies []string `koanf:"currencies" env:"WFA_EXCHANGE_CURRENCIES" validate:"dive,currency_code"`
}

const (
	DefaultPrimaryURL  = "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@{date}/v1/currencies/{from}.json"
	DefaultFallbackURL = "https://{date}.currency-api.pages.dev/v1/currencies/{from}.json"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			LogLevel:           "info",
			LogJSON:            false,
			ValidatorCacheSize: 256,
		},
		Tasks: TasksConfig{
			CSV: CSVConfig{
				Delimiter: ",",
			},
			Exchange: ExchangeConfig{
				PrimaryURL:  DefaultPrimaryURL,
				FallbackURL: DefaultFallbackURL,
				Timeout:     10 * time.Second,
				MaxRetries:  2,
				RetryDelay:  200 * time.Millisecond,
			},
		},
	}
}

// Load builds a Config from defaults, the given sources and the environment.
func Load(ctx context.Context, sources ...Source) (*Config, error) {
	return NewLoader().Load(ctx, sources...)
}
