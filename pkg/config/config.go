package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yasarefe-official/igxdown/pkg/logger"
)

// Config holds all configuration options for the bot
type Config struct {
	// Telegram transport settings
	Telegram TelegramConfig `yaml:"telegram"`

	// Backend selection and tuning
	Backends BackendsConfig `yaml:"backends"`

	// Per-user rate limiting
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Fetch and delivery settings
	Download DownloadConfig `yaml:"download"`

	// User language preferences
	Language LanguageConfig `yaml:"language"`

	// Logging configuration
	Logging logger.Config `yaml:"logging"`
}

// TelegramConfig holds Telegram-specific configuration
type TelegramConfig struct {
	Token         string `yaml:"token"`
	UpdateTimeout int    `yaml:"update_timeout"`
	Concurrency   int    `yaml:"concurrency"`
}

// BackendsConfig holds backend ordering and tuning
type BackendsConfig struct {
	// Order lists backend names in priority order
	Order []string `yaml:"order"`
	// Shuffle randomizes the order on each request to spread load
	// across third-party services
	Shuffle bool `yaml:"shuffle"`
	// Timeout bounds a single backend attempt
	Timeout          time.Duration `yaml:"timeout"`
	SnapgrabEndpoint string        `yaml:"snapgrab_endpoint"`
	YtDlpPath        string        `yaml:"ytdlp_path"`
}

// RateLimitConfig holds per-user rate limiting configuration
type RateLimitConfig struct {
	// PerUserInterval is the minimum spacing between a user's requests
	PerUserInterval time.Duration `yaml:"per_user_interval"`
	Burst           int           `yaml:"burst"`
}

// DownloadConfig holds fetch and delivery configuration
type DownloadConfig struct {
	// TotalBudget caps wall-clock time across all backend attempts,
	// the fetch, and delivery of one request
	TotalBudget time.Duration `yaml:"total_budget"`
	// MaxFileSize rejects media above the platform attachment limit
	MaxFileSize int64 `yaml:"max_file_size"`
	// SendByURL delivers by reference URL when the probe passes,
	// avoiding the local round trip
	SendByURL     bool   `yaml:"send_by_url"`
	TempDir       string `yaml:"temp_dir"`
	MinProbeBytes int64  `yaml:"min_probe_bytes"`
}

// LanguageConfig holds user language preference settings
type LanguageConfig struct {
	Default      string `yaml:"default"`
	DatabasePath string `yaml:"database_path"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			UpdateTimeout: 30,
			Concurrency:   10,
		},
		Backends: BackendsConfig{
			Order:            []string{"instagram", "snapgrab", "ytdlp"},
			Shuffle:          false,
			Timeout:          60 * time.Second,
			SnapgrabEndpoint: "https://snapgrab.app/api/ajaxSearch",
			YtDlpPath:        "yt-dlp",
		},
		RateLimit: RateLimitConfig{
			PerUserInterval: 3 * time.Second,
			Burst:           1,
		},
		Download: DownloadConfig{
			TotalBudget:   300 * time.Second,
			MaxFileSize:   50 * 1024 * 1024,
			SendByURL:     false,
			TempDir:       os.TempDir(),
			MinProbeBytes: 1024,
		},
		Language: LanguageConfig{
			Default:      "en",
			DatabasePath: "igxdown.db",
		},
		Logging: logger.Config{
			Level: "info",
		},
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// findConfigFile searches for config file in standard locations
func findConfigFile() string {
	locations := []string{
		".igxdown.yaml",
		".igxdown.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "igxdown", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".igxdown.yaml"),
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// TELEGRAM_TOKEN kept for compatibility with older deployments
	if token := os.Getenv("TELEGRAM_TOKEN"); token != "" {
		c.Telegram.Token = token
	}
	if token := os.Getenv("IGXDOWN_TELEGRAM_TOKEN"); token != "" {
		c.Telegram.Token = token
	}
	if order := os.Getenv("IGXDOWN_BACKEND_ORDER"); order != "" {
		c.Backends.Order = splitList(order)
	}
	if shuffle := os.Getenv("IGXDOWN_BACKEND_SHUFFLE"); shuffle != "" {
		c.Backends.Shuffle = strings.ToLower(shuffle) == "true"
	}
	if endpoint := os.Getenv("IGXDOWN_SNAPGRAB_ENDPOINT"); endpoint != "" {
		c.Backends.SnapgrabEndpoint = endpoint
	}
	if path := os.Getenv("IGXDOWN_YTDLP_PATH"); path != "" {
		c.Backends.YtDlpPath = path
	}
	if d, ok := envDuration("IGXDOWN_BACKEND_TIMEOUT"); ok {
		c.Backends.Timeout = d
	}
	if d, ok := envDuration("IGXDOWN_RATE_LIMIT_INTERVAL"); ok {
		c.RateLimit.PerUserInterval = d
	}
	if d, ok := envDuration("IGXDOWN_TOTAL_BUDGET"); ok {
		c.Download.TotalBudget = d
	}
	if size := os.Getenv("IGXDOWN_MAX_FILE_SIZE"); size != "" {
		if val, err := strconv.ParseInt(size, 10, 64); err == nil && val > 0 {
			c.Download.MaxFileSize = val
		}
	}
	if byURL := os.Getenv("IGXDOWN_SEND_BY_URL"); byURL != "" {
		c.Download.SendByURL = strings.ToLower(byURL) == "true"
	}
	if dir := os.Getenv("IGXDOWN_TEMP_DIR"); dir != "" {
		c.Download.TempDir = dir
	}
	if lang := os.Getenv("IGXDOWN_DEFAULT_LANGUAGE"); lang != "" {
		c.Language.Default = lang
	}
	if path := os.Getenv("IGXDOWN_DATABASE_PATH"); path != "" {
		c.Language.DatabasePath = path
	}
	if level := os.Getenv("IGXDOWN_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func envDuration(key string) (time.Duration, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("telegram token is required"))
	}
	if c.Telegram.UpdateTimeout <= 0 {
		errs = append(errs, errors.New("update timeout must be positive"))
	}
	if c.Telegram.Concurrency <= 0 {
		errs = append(errs, errors.New("concurrency must be positive"))
	}
	if len(c.Backends.Order) == 0 {
		errs = append(errs, errors.New("at least one backend is required"))
	}
	for _, name := range c.Backends.Order {
		switch name {
		case "instagram", "snapgrab", "ytdlp":
		default:
			errs = append(errs, fmt.Errorf("unknown backend %q", name))
		}
	}
	if c.Backends.Timeout <= 0 {
		errs = append(errs, errors.New("backend timeout must be positive"))
	}
	if c.RateLimit.PerUserInterval <= 0 {
		errs = append(errs, errors.New("rate limit interval must be positive"))
	}
	if c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("rate limit burst must be positive"))
	}
	if c.Download.TotalBudget <= 0 {
		errs = append(errs, errors.New("total budget must be positive"))
	}
	if c.Download.TotalBudget < c.Backends.Timeout {
		errs = append(errs, errors.New("total budget must not be below the backend timeout"))
	}
	if c.Download.MaxFileSize <= 0 {
		errs = append(errs, errors.New("max file size must be positive"))
	}
	if c.Language.Default == "" {
		errs = append(errs, errors.New("default language is required"))
	}
	if c.Language.DatabasePath == "" {
		errs = append(errs, errors.New("database path is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Load loads configuration from all sources with proper precedence:
// environment variables > .env file > config file > defaults
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}
