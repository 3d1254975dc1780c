package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers accepted by store.driver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverValkey   = "valkey"
	DriverPostgres = "postgres"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Reading ReadingConfig `yaml:"reading"`
	Chat    ChatConfig    `yaml:"chat"`
	Store   StoreConfig   `yaml:"store"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string          `yaml:"address"`
	ReadTimeout  time.Duration   `yaml:"readTimeout"`
	WriteTimeout time.Duration   `yaml:"writeTimeout"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
	CORSOrigins  []string        `yaml:"corsOrigins"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// ReadingConfig controls the daily reading cache.
type ReadingConfig struct {
	BaseURL         string        `yaml:"baseUrl"`
	Timeout         time.Duration `yaml:"timeout"`
	Timezone        string        `yaml:"timezone"`
	LocalFallback   bool          `yaml:"localFallback"`
	RefreshInterval time.Duration `yaml:"refreshInterval"`
}

// ChatConfig controls webhook delivery.
type ChatConfig struct {
	WebhookURL      string        `yaml:"webhookUrl"`
	RelayTemplate   string        `yaml:"relayTemplate"`
	Origin          string        `yaml:"origin"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxRetries      int           `yaml:"maxRetries"`
	RetryDelay      time.Duration `yaml:"retryDelay"`
	LocalReplyDelay time.Duration `yaml:"localReplyDelay"`
	Development     bool          `yaml:"development"`
}

// StoreConfig selects the key-value backend.
type StoreConfig struct {
	Driver     string         `yaml:"driver"`
	SQLitePath string         `yaml:"sqlitePath"`
	Valkey     ValkeyConfig   `yaml:"valkey"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

// ValkeyConfig contains connection information for the shared cache.
type ValkeyConfig struct {
	Addr   string `yaml:"addr"`
	Prefix string `yaml:"prefix"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// Location resolves reading.timezone.
func (r ReadingConfig) Location() (*time.Location, error) {
	tz := strings.TrimSpace(r.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_CORS_ORIGINS"); v != "" {
		cfg.HTTP.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("READING_BASE_URL"); v != "" {
		cfg.Reading.BaseURL = v
	}
	if v := os.Getenv("READING_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Reading.Timeout = parsed
		}
	}
	if v := os.Getenv("READING_TIMEZONE"); v != "" {
		cfg.Reading.Timezone = v
	}
	if v := os.Getenv("READING_LOCAL_FALLBACK"); v != "" {
		cfg.Reading.LocalFallback = parseBool(v)
	}
	if v := os.Getenv("READING_REFRESH_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Reading.RefreshInterval = parsed
		}
	}
	if v := os.Getenv("CHAT_WEBHOOK_URL"); v != "" {
		cfg.Chat.WebhookURL = v
	}
	if v := os.Getenv("CHAT_RELAY_TEMPLATE"); v != "" {
		cfg.Chat.RelayTemplate = v
	}
	if v := os.Getenv("CHAT_ORIGIN"); v != "" {
		cfg.Chat.Origin = v
	}
	if v := os.Getenv("CHAT_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Chat.Timeout = parsed
		}
	}
	if v := os.Getenv("CHAT_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Chat.MaxRetries = parsed
		}
	}
	if v := os.Getenv("CHAT_RETRY_DELAY"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Chat.RetryDelay = parsed
		}
	}
	if v := os.Getenv("CHAT_LOCAL_REPLY_DELAY"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Chat.LocalReplyDelay = parsed
		}
	}
	if v := os.Getenv("CHAT_DEVELOPMENT"); v != "" {
		cfg.Chat.Development = parseBool(v)
	}
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		cfg.Store.Driver = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("STORE_SQLITE_PATH"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := os.Getenv("STORE_VALKEY_ADDR"); v != "" {
		cfg.Store.Valkey.Addr = v
	}
	if v := os.Getenv("STORE_VALKEY_PREFIX"); v != "" {
		cfg.Store.Valkey.Prefix = v
	}
	if v := os.Getenv("STORE_POSTGRES_DSN"); v != "" {
		cfg.Store.Postgres.DSN = v
	}
	if v := os.Getenv("STORE_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Store.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("STORE_POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Store.Postgres.MinConns = int32(parsed)
		}
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			CORSOrigins: []string{"http://localhost:5173"},
		},
		Reading: ReadingConfig{
			BaseURL:         "http://localhost:3001",
			Timeout:         10 * time.Second,
			Timezone:        "Local",
			LocalFallback:   false,
			RefreshInterval: time.Minute,
		},
		Chat: ChatConfig{
			WebhookURL:      "http://localhost:5678/webhook/astro-master",
			RelayTemplate:   "https://corsproxy.io/?",
			Timeout:         15 * time.Second,
			MaxRetries:      3,
			RetryDelay:      time.Second,
			LocalReplyDelay: time.Second,
		},
		Store: StoreConfig{
			Driver:     DriverSQLite,
			SQLitePath: "data/astro.db",
			Valkey: ValkeyConfig{
				Prefix: "astro",
			},
			Postgres: PostgresConfig{
				MaxConns: 4,
				MinConns: 0,
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if strings.TrimSpace(c.Reading.BaseURL) == "" {
		return errors.New("reading.baseUrl cannot be empty")
	}
	if c.Reading.Timeout < 0 {
		return errors.New("reading.timeout cannot be negative")
	}
	if c.Reading.RefreshInterval <= 0 {
		return errors.New("reading.refreshInterval must be positive")
	}
	if _, err := c.Reading.Location(); err != nil {
		return fmt.Errorf("reading.timezone: %w", err)
	}
	if strings.TrimSpace(c.Chat.WebhookURL) == "" {
		return errors.New("chat.webhookUrl cannot be empty")
	}
	if strings.TrimSpace(c.Chat.RelayTemplate) == "" {
		return errors.New("chat.relayTemplate cannot be empty")
	}
	if c.Chat.Timeout <= 0 {
		return errors.New("chat.timeout must be positive")
	}
	if c.Chat.MaxRetries < 0 {
		return errors.New("chat.maxRetries cannot be negative")
	}
	if c.Chat.RetryDelay < 0 || c.Chat.LocalReplyDelay < 0 {
		return errors.New("chat delays cannot be negative")
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(c.Store.SQLitePath) == "" {
			return errors.New("store.sqlitePath cannot be empty for the sqlite driver")
		}
	case DriverValkey:
		if strings.TrimSpace(c.Store.Valkey.Addr) == "" {
			return errors.New("store.valkey.addr cannot be empty for the valkey driver")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Store.Postgres.DSN) == "" {
			return errors.New("store.postgres.dsn cannot be empty for the postgres driver")
		}
	default:
		return fmt.Errorf("store.driver %q is not supported", c.Store.Driver)
	}
	return nil
}
