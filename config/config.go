package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/valutatrade/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	defaultDataDir         = "data"
	defaultRatesTTLSeconds = 300
	defaultHomeCurrency    = "USD"
	defaultRequestTimeout  = 10 * time.Second
	defaultLogLevel        = "info"
	defaultLogMaxSizeMB    = 10
	defaultLogBackups      = 3
)

// Config application settings.
type Config struct {
	DataDir            string        `yaml:"data_dir" toml:"data_dir"`
	RatesTTLSeconds    int           `yaml:"rates_ttl_seconds" toml:"rates_ttl_seconds"`
	HomeCurrency       string        `yaml:"home_currency" toml:"home_currency"`
	ExchangeRateAPIKey string        `yaml:"exchangerate_api_key" toml:"exchangerate_api_key"`
	RequestTimeout     time.Duration `yaml:"request_timeout" toml:"request_timeout"`
	OfflineRates       bool          `yaml:"offline_rates" toml:"offline_rates"`
	LogFile            string        `yaml:"log_file" toml:"log_file"`
	LogLevel           string        `yaml:"log_level" toml:"log_level"`
	LogMaxSizeMB       int           `yaml:"log_max_size_mb" toml:"log_max_size_mb"`
	LogBackups         int           `yaml:"log_backups" toml:"log_backups"`
	JournalDir         string        `yaml:"journal_dir" toml:"journal_dir"`
	BackupDir          string        `yaml:"backup_dir" toml:"backup_dir"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		DataDir:         defaultDataDir,
		RatesTTLSeconds: defaultRatesTTLSeconds,
		HomeCurrency:    defaultHomeCurrency,
		RequestTimeout:  defaultRequestTimeout,
		LogLevel:        defaultLogLevel,
		LogMaxSizeMB:    defaultLogMaxSizeMB,
		LogBackups:      defaultLogBackups,
	}
}

// RatesTTL returns the rate cache lifetime.
func (c Config) RatesTTL() time.Duration {
	return time.Duration(c.RatesTTLSeconds) * time.Second
}

// LogPath returns the log file, inside DataDir unless configured.
func (c Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.DataDir, "actions.log")
}

// JournalPath returns the trade journal directory.
func (c Config) JournalPath() string {
	if c.JournalDir != "" {
		return c.JournalDir
	}
	return filepath.Join(c.DataDir, "journal")
}

// BackupPath returns where previous versions of records are kept.
func (c Config) BackupPath() string {
	if c.BackupDir != "" {
		return c.BackupDir
	}
	return filepath.Join(c.DataDir, "backups")
}

// Validate checks ranges and normalizes codes.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("data_dir must not be empty")
	}
	if c.RatesTTLSeconds <= 0 {
		return errors.Errorf("rates_ttl_seconds must be positive, got %d", c.RatesTTLSeconds)
	}
	if c.RequestTimeout <= 0 {
		return errors.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	home, err := domain.LookupCurrency(c.HomeCurrency)
	if err != nil {
		return errors.Wrap(err, "home_currency")
	}
	c.HomeCurrency = home.Code

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		return errors.Errorf("unsupported log_level %q", c.LogLevel)
	}
	if c.LogMaxSizeMB <= 0 {
		return errors.Errorf("log_max_size_mb must be positive, got %d", c.LogMaxSizeMB)
	}
	if c.LogBackups < 0 {
		return errors.Errorf("log_backups must not be negative, got %d", c.LogBackups)
	}

	return nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return errors.Wrapf(err, "parse yaml config %s", path)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return errors.Wrapf(err, "parse toml config %s", path)
		}
	default:
		return errors.Errorf("unsupported config format %q, use .yaml or .toml", filepath.Ext(path))
	}

	return nil
}
