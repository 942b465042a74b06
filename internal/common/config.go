package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"github.com/ternarybob/screener/internal/models"
)

// Cache backends
const (
	CacheBackendFile   = "file"
	CacheBackendBadger = "badger"
	CacheBackendRedis  = "redis"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Fetch     FetchConfig     `toml:"fetch"`
	Cache     CacheConfig     `toml:"cache"`
	Storage   StorageConfig   `toml:"storage"`
	EODHD     EODHDConfig     `toml:"eodhd"`
	Breaker   BreakerConfig   `toml:"breaker"`
	Screener  ScreenerConfig  `toml:"screener"`
	Reports   ReportsConfig   `toml:"reports"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Logging   LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host" validate:"required"`
}

// FetchConfig controls the data acquirer
type FetchConfig struct {
	Delay       Duration `toml:"delay"`        // Minimum spacing between provider calls
	TTL         Duration `toml:"ttl"`          // Cache freshness window
	Retries     int      `toml:"retries" validate:"min=1"`
	UseCache    bool     `toml:"use_cache"`
	BackoffStep Duration `toml:"backoff_step"` // Backoff after attempt n is n * step
}

type CacheConfig struct {
	Backend string `toml:"backend" validate:"oneof=file badger redis"`
	Dir     string `toml:"dir"` // Directory for the file backend
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
	Redis  RedisConfig  `toml:"redis"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
	InMemory       bool   `toml:"in_memory"`
}

// RedisConfig configures the shared redis cache
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db" validate:"min=0"`
	Prefix   string `toml:"prefix"`
}

// EODHDConfig configures the fundamentals provider
type EODHDConfig struct {
	APIKey   string   `toml:"api_key"`
	BaseURL  string   `toml:"base_url" validate:"omitempty,url"`
	Timeout  Duration `toml:"timeout"`
	Exchange string   `toml:"exchange"` // Exchange assumed for tickers without a suffix
}

// BreakerConfig configures the circuit breaker around the provider
type BreakerConfig struct {
	Enabled     bool     `toml:"enabled"`
	MaxFailures int      `toml:"max_failures" validate:"min=1"`
	OpenTimeout Duration `toml:"open_timeout"`
}

// ScreenerConfig holds the default criteria and tickers
type ScreenerConfig struct {
	Criteria       string                `toml:"criteria"`      // Inline "key=value,key=value"
	CriteriaFile   string                `toml:"criteria_file"` // YAML or JSON file with screener.criteria
	Rules          models.CriteriaConfig `toml:"rules"`         // [[screener.rules]] key/value tables
	DefaultTickers []string              `toml:"default_tickers"`
}

type ReportsConfig struct {
	Dir     string   `toml:"dir" validate:"required"`
	Formats []string `toml:"formats" validate:"dive,oneof=csv json html md pdf"`
}

type SchedulerConfig struct {
	Enabled bool `toml:"enabled"`
}

type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=trace debug info warn error"`
	Output     []string `toml:"output"` // "stdout", "console", "file"
	File       string   `toml:"file"`
	TimeFormat string   `toml:"time_format"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 5000,
			Host: "127.0.0.1",
		},
		Fetch: FetchConfig{
			Delay:       NewDuration(500 * time.Millisecond),
			TTL:         NewDuration(24 * time.Hour),
			Retries:     3,
			UseCache:    true,
			BackoffStep: NewDuration(time.Second),
		},
		Cache: CacheConfig{
			Backend: CacheBackendFile,
			Dir:     "./data/cache",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/badger",
			},
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "screener:cache:",
			},
		},
		EODHD: EODHDConfig{
			BaseURL:  "https://eodhd.com/api",
			Timeout:  NewDuration(30 * time.Second),
			Exchange: "US",
		},
		Breaker: BreakerConfig{
			Enabled:     false,
			MaxFailures: 5,
			OpenTimeout: NewDuration(time.Minute),
		},
		Reports: ReportsConfig{
			Dir:     "./reports",
			Formats: []string{"csv", "json", "html"},
		},
		Scheduler: SchedulerConfig{
			Enabled: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"console"},
			TimeFormat: "15:04:05",
		},
	}
}

// LoadFromFile loads configuration from a single file path.
// An empty path returns the defaults with environment overrides applied.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority: defaults -> file1 -> file2 -> ... -> env
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier files
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func applyEnvOverrides(config *Config) {
	// Server configuration
	if port := os.Getenv("SCREENER_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SCREENER_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Provider credentials (SCREENER_ prefixed variable wins)
	if key := os.Getenv("SCREENER_EODHD_API_KEY"); key != "" {
		config.EODHD.APIKey = key
	} else if key := os.Getenv("EODHD_API_KEY"); key != "" && config.EODHD.APIKey == "" {
		config.EODHD.APIKey = key
	}

	// Cache configuration
	if backend := os.Getenv("SCREENER_CACHE_BACKEND"); backend != "" {
		config.Cache.Backend = strings.ToLower(strings.TrimSpace(backend))
	}
	if addr := os.Getenv("SCREENER_REDIS_ADDR"); addr != "" {
		config.Storage.Redis.Addr = addr
	}

	// Logging configuration
	if level := os.Getenv("SCREENER_LOG_LEVEL"); level != "" {
		config.Logging.Level = strings.ToLower(level)
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
// Zero values leave the loaded configuration untouched.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks structural constraints on the loaded configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Fetch.Delay.Duration < 0 {
		return fmt.Errorf("invalid configuration: fetch.delay must not be negative")
	}
	if c.Fetch.TTL.Duration <= 0 {
		return fmt.Errorf("invalid configuration: fetch.ttl must be positive")
	}
	if c.Cache.Backend == CacheBackendRedis && c.Storage.Redis.Addr == "" {
		return fmt.Errorf("invalid configuration: storage.redis.addr is required for the redis cache backend")
	}
	return nil
}

// ValidateSchedule checks that schedule is a standard 5-field cron expression
func ValidateSchedule(schedule string) error {
	if strings.TrimSpace(schedule) == "" {
		return fmt.Errorf("schedule cannot be empty")
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}
