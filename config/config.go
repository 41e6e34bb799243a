package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// PagePlaceholder marks where the page number goes in PageURLTemplate.
const PagePlaceholder = "{page}"

// Config holds scraper and server configuration.
type Config struct {
	APIKey     string `mapstructure:"API_KEY"`
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	PageURLTemplate  string `mapstructure:"PAGE_URL_TEMPLATE"`
	DefaultPageLimit int    `mapstructure:"DEFAULT_PAGE_LIMIT"`
	MaxPageLimit     int    `mapstructure:"MAX_PAGE_LIMIT"`

	FetchAttempts      int           `mapstructure:"FETCH_ATTEMPTS"`
	RetryDelay         time.Duration `mapstructure:"RETRY_DELAY"`
	Timeout            time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	InsecureSkipVerify bool          `mapstructure:"INSECURE_SKIP_VERIFY"`
	UserAgent          string        `mapstructure:"USER_AGENT"`
	Parallelism        int           `mapstructure:"PARALLELISM"`
	CurrencySymbol     string        `mapstructure:"CURRENCY_SYMBOL"`

	ImageDir        string `mapstructure:"IMAGE_DIR"`
	StorageBackends string `mapstructure:"STORAGE_BACKENDS"` // comma list of json, csv, sqlite, postgres
	JSONFile        string `mapstructure:"JSON_FILE"`
	CSVFile         string `mapstructure:"CSV_FILE"`
	SQLitePath      string `mapstructure:"SQLITE_PATH"`
	PostgresURL     string `mapstructure:"POSTGRES_URL"`

	CacheBackend   string `mapstructure:"CACHE_BACKEND"` // memory, lru, or redis
	CacheSize      int    `mapstructure:"CACHE_SIZE"`
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int    `mapstructure:"REDIS_DB"`
	RedisKeyPrefix string `mapstructure:"REDIS_KEY_PREFIX"`
}

// DefaultConfig returns defaults for the demo target.
func DefaultConfig() *Config {
	return &Config{
		ServerPort:         "8080",
		LogLevel:           "info",
		PageURLTemplate:    "https://dentalstall.com/shop/page/{page}/",
		DefaultPageLimit:   10,
		MaxPageLimit:       100,
		FetchAttempts:      3,
		RetryDelay:         5 * time.Second,
		Timeout:            30 * time.Second,
		InsecureSkipVerify: true,
		UserAgent:          "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		Parallelism:        0,
		CurrencySymbol:     "₹",
		ImageDir:           "resources",
		StorageBackends:    "json",
		JSONFile:           "resources/products.json",
		CSVFile:            "resources/products.csv",
		SQLitePath:         "resources/products.db",
		CacheBackend:       "memory",
		CacheSize:          10000,
		RedisAddr:          "localhost:6379",
		RedisKeyPrefix:     "product:",
	}
}

// Load reads configuration from defaults, an optional config file, and the environment.
// Environment variables win over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %q: %w", path, err)
		}
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("API_KEY", d.APIKey)
	v.SetDefault("SERVER_PORT", d.ServerPort)
	v.SetDefault("LOG_LEVEL", d.LogLevel)
	v.SetDefault("PAGE_URL_TEMPLATE", d.PageURLTemplate)
	v.SetDefault("DEFAULT_PAGE_LIMIT", d.DefaultPageLimit)
	v.SetDefault("MAX_PAGE_LIMIT", d.MaxPageLimit)
	v.SetDefault("FETCH_ATTEMPTS", d.FetchAttempts)
	v.SetDefault("RETRY_DELAY", d.RetryDelay)
	v.SetDefault("REQUEST_TIMEOUT", d.Timeout)
	v.SetDefault("INSECURE_SKIP_VERIFY", d.InsecureSkipVerify)
	v.SetDefault("USER_AGENT", d.UserAgent)
	v.SetDefault("PARALLELISM", d.Parallelism)
	v.SetDefault("CURRENCY_SYMBOL", d.CurrencySymbol)
	v.SetDefault("IMAGE_DIR", d.ImageDir)
	v.SetDefault("STORAGE_BACKENDS", d.StorageBackends)
	v.SetDefault("JSON_FILE", d.JSONFile)
	v.SetDefault("CSV_FILE", d.CSVFile)
	v.SetDefault("SQLITE_PATH", d.SQLitePath)
	v.SetDefault("POSTGRES_URL", d.PostgresURL)
	v.SetDefault("CACHE_BACKEND", d.CacheBackend)
	v.SetDefault("CACHE_SIZE", d.CacheSize)
	v.SetDefault("REDIS_ADDR", d.RedisAddr)
	v.SetDefault("REDIS_PASSWORD", d.RedisPassword)
	v.SetDefault("REDIS_DB", d.RedisDB)
	v.SetDefault("REDIS_KEY_PREFIX", d.RedisKeyPrefix)
}

// Backends returns the configured storage backends, lower-cased and trimmed.
func (c *Config) Backends() []string {
	var out []string
	for _, part := range strings.Split(c.StorageBackends, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// PageURL renders the catalog URL for a page number.
func (c *Config) PageURL(page int) string {
	return strings.ReplaceAll(c.PageURLTemplate, PagePlaceholder, fmt.Sprint(page))
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.PageURLTemplate == "" {
		return fmt.Errorf("page URL template cannot be empty")
	}
	if !strings.Contains(c.PageURLTemplate, PagePlaceholder) {
		return fmt.Errorf("page URL template must contain %s", PagePlaceholder)
	}
	parsedURL, err := url.Parse(c.PageURL(1))
	if err != nil {
		return fmt.Errorf("invalid page URL template: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("page URL template must include a host")
	}

	if c.MaxPageLimit <= 0 {
		return fmt.Errorf("max page limit must be positive")
	}
	if c.DefaultPageLimit < 0 || c.DefaultPageLimit > c.MaxPageLimit {
		return fmt.Errorf("default page limit must be between 0 and %d", c.MaxPageLimit)
	}
	if c.FetchAttempts <= 0 {
		return fmt.Errorf("fetch attempts must be positive")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("parallelism cannot be negative")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.ImageDir == "" {
		return fmt.Errorf("image dir cannot be empty")
	}

	backends := c.Backends()
	if len(backends) == 0 {
		return fmt.Errorf("at least one storage backend is required")
	}
	for _, b := range backends {
		switch b {
		case "json":
			if c.JSONFile == "" {
				return fmt.Errorf("json storage requires JSON_FILE")
			}
		case "csv":
			if c.CSVFile == "" {
				return fmt.Errorf("csv storage requires CSV_FILE")
			}
		case "sqlite":
			if c.SQLitePath == "" {
				return fmt.Errorf("sqlite storage requires SQLITE_PATH")
			}
		case "postgres":
			if c.PostgresURL == "" {
				return fmt.Errorf("postgres storage requires POSTGRES_URL")
			}
		default:
			return fmt.Errorf("unknown storage backend %q", b)
		}
	}

	switch c.CacheBackend {
	case "memory":
	case "lru":
		if c.CacheSize <= 0 {
			return fmt.Errorf("lru cache size must be positive")
		}
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("redis cache requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("cache backend must be memory, lru, or redis")
	}

	return nil
}

// ValidateServer additionally requires the API key used by the HTTP entry point.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY environment variable is not set")
	}
	return nil
}
