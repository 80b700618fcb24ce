package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"adxIndicator/internal/adapters/logger"
)

// Config holds all application configuration.
type Config struct {
	// Indicator Parameters
	ADXWindow int  // Smoothing period, e.g. 14
	ADXFillNA bool // Replace undefined outputs with the fill value

	// Input Selection
	Symbol     string
	Interval   string
	InputCSV   string // Read klines from this CSV instead of the database
	KlineLimit int    // Most recent bars to analyze, 0 for all

	// Output
	OutputCSV string // Write the series here instead of printing a table

	// Database
	DBPath string

	// Logging
	LogLevel  logger.LogLevel
	LogFormat logger.Format
}

// fileConfig mirrors Config for the optional YAML file. Unset keys keep
// their defaults.
type fileConfig struct {
	ADX struct {
		Window *int  `yaml:"window"`
		FillNA *bool `yaml:"fillna"`
	} `yaml:"adx"`
	Symbol   string `yaml:"symbol"`
	Interval string `yaml:"interval"`
	Input    struct {
		CSV   string `yaml:"csv"`
		Limit *int   `yaml:"limit"`
	} `yaml:"input"`
	Output struct {
		CSV string `yaml:"csv"`
	} `yaml:"output"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from an optional YAML file named by
// CONFIG_FILE and then from environment variables (.env file). Environment
// variables take precedence over the file.
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	var errs []string // Collect validation errors

	defaults, err := loadFile(getEnv("CONFIG_FILE", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{}

	// Indicator Parameters
	cfg.ADXWindow, err = getEnvAsIntRequired("ADX_WINDOW", intOr(defaults.ADX.Window, 14))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid ADX_WINDOW: %v", err))
	} else if cfg.ADXWindow == 0 {
		errs = append(errs, "ADX_WINDOW may not be 0")
	} else if cfg.ADXWindow < 0 {
		errs = append(errs, "ADX_WINDOW must be positive")
	}
	cfg.ADXFillNA = getEnvAsBool("ADX_FILLNA", defaults.ADX.FillNA != nil && *defaults.ADX.FillNA)

	// Input Selection
	cfg.Symbol = getEnv("SYMBOL", stringOr(defaults.Symbol, "ETHUSDT"))
	if cfg.Symbol == "" {
		errs = append(errs, "SYMBOL must be set")
	}
	cfg.Interval = getEnv("INTERVAL", stringOr(defaults.Interval, "1h"))
	if cfg.Interval == "" {
		errs = append(errs, "INTERVAL must be set")
	}
	cfg.InputCSV = getEnv("INPUT_CSV", defaults.Input.CSV)

	cfg.KlineLimit, err = getEnvAsIntRequired("KLINE_LIMIT", intOr(defaults.Input.Limit, 0))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid KLINE_LIMIT: %v", err))
	} else if cfg.KlineLimit < 0 {
		errs = append(errs, "KLINE_LIMIT cannot be negative")
	}

	// Output
	cfg.OutputCSV = getEnv("OUTPUT_CSV", defaults.Output.CSV)

	// Database
	cfg.DBPath = getEnv("DB_PATH", stringOr(defaults.Database.Path, "./data/klines.db"))
	if cfg.DBPath == "" && cfg.InputCSV == "" {
		errs = append(errs, "DB_PATH or INPUT_CSV must be set")
	}

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", stringOr(defaults.Logging.Level, "INFO")))
	cfg.LogFormat = logger.ParseFormat(getEnv("LOG_FORMAT", stringOr(defaults.Logging.Format, "text")))

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

func loadFile(path string) (*fileConfig, error) {
	fc := &fileConfig{}
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}
	return fc, nil
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func stringOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
