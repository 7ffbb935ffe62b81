package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "VALUTATRADE_"

// Load merges defaults, the optional config file at path, a .env file in the
// working directory and VALUTATRADE_* variables, then validates the result.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	// .env is optional
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.DataDir, "DATA_DIR")
	setInt(&cfg.RatesTTLSeconds, "RATES_TTL_SECONDS")
	setStr(&cfg.HomeCurrency, "HOME_CURRENCY")
	setStr(&cfg.ExchangeRateAPIKey, "EXCHANGERATE_API_KEY")
	setDuration(&cfg.RequestTimeout, "REQUEST_TIMEOUT")
	setBool(&cfg.OfflineRates, "OFFLINE_RATES")
	setStr(&cfg.LogFile, "LOG_FILE")
	setStr(&cfg.LogLevel, "LOG_LEVEL")
	setInt(&cfg.LogMaxSizeMB, "LOG_MAX_SIZE_MB")
	setInt(&cfg.LogBackups, "LOG_BACKUPS")
	setStr(&cfg.JournalDir, "JOURNAL_DIR")
	setStr(&cfg.BackupDir, "BACKUP_DIR")
}

// Each setter only mutates the target when the variable is set and parses.

func setStr(dst *string, key string) {
	if v := os.Getenv(envPrefix + key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(envPrefix + key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(envPrefix + key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(envPrefix + key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
