package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate for unusable settings.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all application-level configuration
type Config struct {
	// Database
	DatabaseURL string `yaml:"database_url"`

	// Site
	ListenAddr  string `yaml:"listen_addr"`
	SiteURL     string `yaml:"site_url"`
	APIPath     string `yaml:"api_path"`
	PageGroup   string `yaml:"page_group"`
	PageSize    int    `yaml:"page_size"`
	MediaPrefix string `yaml:"media_prefix"`
	SeedFile    string `yaml:"seed_file"`

	// Loader
	MaxRetries     int `yaml:"max_retries"`
	RetryBaseMs    int `yaml:"retry_base_ms"`
	RateLimitDelay int `yaml:"rate_limit_delay_ms"` // milliseconds between requests

	// Crawl
	MaxIdleScrolls  int  `yaml:"max_idle_scrolls"`
	CrawlTimeoutSec int  `yaml:"crawl_timeout_sec"`
	Headless        bool `yaml:"headless"`

	// Source
	SourceURL   string `yaml:"source_url"`
	SourceRules string `yaml:"source_rules"` // YAML parser rules, built-in when empty
	MediaDir    string `yaml:"media_dir"`

	// Guards
	RateLimitWindowSec int `yaml:"rate_limit_window_sec"`
	RateLimitMax       int `yaml:"rate_limit_max"`

	// Output
	CSVFilePath  string `yaml:"csv_file_path"`
	ICSFilePath  string `yaml:"ics_file_path"`
	HTMLFilePath string `yaml:"html_file_path"`

	// Presentation
	Locale   string `yaml:"locale"`
	TimeZone string `yaml:"time_zone"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from environment variables or falls back to defaults
func Load() *Config {
	return &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		ListenAddr:         getEnv("LISTEN_ADDR", ":8000"),
		SiteURL:            getEnv("SITE_URL", "http://localhost:8000"),
		APIPath:            getEnv("API_PATH", "/api/masterclasses/"),
		PageGroup:          getEnv("PAGE_GROUP", "topic"),
		PageSize:           getEnvInt("PAGE_SIZE", 12),
		MediaPrefix:        getEnv("MEDIA_PREFIX", "/media/downloads/img/"),
		SeedFile:           getEnv("SEED_FILE", ""),
		MaxRetries:         getEnvInt("MAX_RETRIES", 3),
		RetryBaseMs:        getEnvInt("RETRY_BASE_MS", 1000),
		RateLimitDelay:     getEnvInt("RATE_LIMIT_DELAY_MS", 500),
		MaxIdleScrolls:     getEnvInt("MAX_IDLE_SCROLLS", 3),
		CrawlTimeoutSec:    getEnvInt("CRAWL_TIMEOUT_SEC", 300),
		Headless:           getEnv("HEADLESS", "true") != "false",
		SourceURL:          getEnv("SOURCE_URL", "https://leonardo.ru/masterclasses/petersburg/"),
		SourceRules:        getEnv("SOURCE_RULES", ""),
		MediaDir:           getEnv("MEDIA_DIR", "media/downloads/img"),
		RateLimitWindowSec: getEnvInt("RATE_LIMIT_WINDOW_SEC", 60),
		RateLimitMax:       getEnvInt("RATE_LIMIT_MAX", 120),
		CSVFilePath:        getEnv("CSV_FILE_PATH", ""),
		ICSFilePath:        getEnv("ICS_FILE_PATH", ""),
		HTMLFilePath:       getEnv("HTML_FILE_PATH", "output/gallery.html"),
		Locale:             getEnv("LOCALE", "ru"),
		TimeZone:           getEnv("TIME_ZONE", "Europe/Moscow"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "auto"),
	}
}

// LoadFile overlays the YAML file at path on top of the environment config.
// Keys missing from the file keep their environment or default values.
func LoadFile(path string) (*Config, error) {
	cfg := Load()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the loader or site cannot work with.
func (c *Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("%w: page_size must be positive, got %d", ErrInvalidConfig, c.PageSize)
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("%w: max_retries must be positive, got %d", ErrInvalidConfig, c.MaxRetries)
	}
	if !strings.HasPrefix(c.APIPath, "/") {
		return fmt.Errorf("%w: api_path must start with '/', got %q", ErrInvalidConfig, c.APIPath)
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("%w: locale %q: %v", ErrInvalidConfig, c.Locale, err)
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("%w: time_zone %q: %v", ErrInvalidConfig, c.TimeZone, err)
	}
	switch c.LogFormat {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("%w: log_format must be auto, console or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// Location returns the viewer time zone used for date formatting.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RetryBase is the backoff unit between load attempts.
func (c *Config) RetryBase() time.Duration {
	return time.Duration(c.RetryBaseMs) * time.Millisecond
}

// CrawlTimeout bounds one browser crawl.
func (c *Config) CrawlTimeout() time.Duration {
	return time.Duration(c.CrawlTimeoutSec) * time.Second
}

// RateLimitWindow is the per-IP guard window.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSec) * time.Second
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}
