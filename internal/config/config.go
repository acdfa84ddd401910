package config

import (
	"os"
	"strconv"
	"time"

	"gocascade/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Cluster ClusterConfig
	Verify  VerifyConfig
	Ledger  LedgerConfig
	Report  ReportConfig
	Console ConsoleConfig
}

// ClusterConfig holds connection settings for the analytics server
type ClusterConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// VerifyConfig holds verification harness settings
type VerifyConfig struct {
	Tolerance   float64
	Parallelism int
	Seed        int64
}

// LedgerConfig holds run ledger persistence settings. URL may be empty, in
// which case runs are kept in memory only.
type LedgerConfig struct {
	URL string
}

// ReportConfig holds report rendering settings
type ReportConfig struct {
	Dir string
}

// ConsoleConfig holds results console settings
type ConsoleConfig struct {
	Port string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	clusterConfig, err := loadClusterConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load cluster configuration")
	}
	config.Cluster = *clusterConfig

	verifyConfig, err := loadVerifyConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load verify configuration")
	}
	config.Verify = *verifyConfig

	config.Ledger = LedgerConfig{URL: getEnvOrDefault("DATABASE_URL", "")}
	config.Report = ReportConfig{Dir: getEnvOrDefault("REPORT_DIR", "reports")}
	config.Console = ConsoleConfig{Port: getEnvOrDefault("CONSOLE_PORT", "8087")}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadClusterConfig() (*ClusterConfig, error) {
	timeoutStr := getEnvOrDefault("CASCADE_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, errors.ConfigInvalid("CASCADE_TIMEOUT must be a duration like 30s")
	}

	return &ClusterConfig{
		URL:     getEnvOrDefault("CASCADE_URL", "http://localhost:54321"),
		Token:   getEnvOrDefault("CASCADE_TOKEN", ""),
		Timeout: timeout,
	}, nil
}

func loadVerifyConfig() (*VerifyConfig, error) {
	tolerance, err := getEnvFloatOrDefault("VERIFY_TOLERANCE", 1e-6)
	if err != nil {
		return nil, errors.ConfigInvalid("VERIFY_TOLERANCE must be a number")
	}

	parallelism, err := getEnvIntOrDefault("VERIFY_PARALLELISM", 4)
	if err != nil {
		return nil, errors.ConfigInvalid("VERIFY_PARALLELISM must be an integer")
	}

	seed, err := getEnvInt64OrDefault("VERIFY_SEED", 42)
	if err != nil {
		return nil, errors.ConfigInvalid("VERIFY_SEED must be an integer")
	}

	return &VerifyConfig{
		Tolerance:   tolerance,
		Parallelism: parallelism,
		Seed:        seed,
	}, nil
}

func validateConfig(config *Config) error {
	if config.Cluster.URL == "" {
		return errors.ConfigInvalid("CASCADE_URL cannot be empty")
	}
	if config.Cluster.Timeout <= 0 {
		return errors.ConfigInvalid("CASCADE_TIMEOUT must be positive")
	}
	if config.Verify.Tolerance <= 0 {
		return errors.ConfigInvalid("VERIFY_TOLERANCE must be positive")
	}
	if config.Verify.Parallelism < 1 {
		return errors.ConfigInvalid("VERIFY_PARALLELISM must be at least 1")
	}
	if config.Console.Port == "" {
		return errors.ConfigInvalid("CONSOLE_PORT cannot be empty")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}

func getEnvInt64OrDefault(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.ParseInt(value, 10, 64)
}

func getEnvFloatOrDefault(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.ParseFloat(value, 64)
}
