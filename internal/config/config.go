// Package config loads the K-WON compliance backplane's configuration from
// environment variables, the way the teacher's validator service does: a
// flat struct, small getEnv* helpers, and an explicit Validate() pass that
// must run before the service starts serving traffic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the K-WON compliance backplane.
type Config struct {
	// Server
	ListenAddr string

	// Data source (C3 Event Ingestor)
	UseLocalSource     bool
	LocalAPIBase       string
	LocalToken         string
	LocalAddressFilter string
	EtherscanAPIKey    string
	EtherscanBaseURL   string
	USDTContract       string

	// Ingestor tunables
	PollIntervalSec    int
	CollectMaxPages    int
	CollectMaxSeconds  int
	EtherscanOffset    int
	EtherscanRateSleep time.Duration
	SafeLagBlocks      int64

	// Batcher/Anchorer tunables (C4)
	MerklePollIntervalSec  int
	MerkleMinPendingEvents int
	MerkleBatchLimit       int
	MerkleBatchMode        string
	AnchorChain            string
	AnchorTxPrefix         string

	// Storage (C2)
	DatabaseURL         string
	DatabaseMaxConns    int
	DatabaseMinConns    int
	DatabaseMaxIdleTime int
	DatabaseMaxLifetime int

	// Orchestrator (C8)
	ArtifactsDir       string
	ReportTemplate     string
	MaxRevisions       int
	MaxRetriesDataLoad int
	MonthlyCronSpec    string

	// Policy engine override (C6)
	PolicyConfigPath string

	LogLevel string
}

// Load reads configuration from environment variables. Every variable name
// below is the exact name the ingestor, batcher, and orchestrator read; no
// other *_URL/*_KEY spelling is recognized.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr: getEnv("API_HOST", "0.0.0.0") + ":" + getEnv("API_PORT", "8080"),

		UseLocalSource:     getEnvBool("USE_LOCAL_SFIAT", false),
		LocalAPIBase:       getEnv("LOCAL_API_BASE", ""),
		LocalToken:         getEnv("LOCAL_TOKEN", ""),
		LocalAddressFilter: getEnv("LOCAL_ADDRESS_FILTER", ""),
		EtherscanAPIKey:    getEnv("ETHERSCAN_API_KEY", ""),
		EtherscanBaseURL:   getEnv("ETHERSCAN_BASE_URL", "https://api.etherscan.io/v2/api"),
		USDTContract:       getEnv("USDT_CONTRACT", ""),

		PollIntervalSec:    getEnvInt("POLL_INTERVAL_SEC", 30),
		CollectMaxPages:    getEnvInt("COLLECT_MAX_PAGES", 10),
		CollectMaxSeconds:  getEnvInt("COLLECT_MAX_SECONDS", 20),
		EtherscanOffset:    getEnvInt("ETHERSCAN_OFFSET", 1000),
		EtherscanRateSleep: getEnvDuration("ETHERSCAN_RATE_SLEEP", 250*time.Millisecond),
		SafeLagBlocks:      12,

		MerklePollIntervalSec:  getEnvInt("MERKLE_POLL_INTERVAL_SEC", 60),
		MerkleMinPendingEvents: getEnvInt("MERKLE_MIN_PENDING_EVENTS", 10),
		MerkleBatchLimit:       getEnvInt("MERKLE_BATCH_LIMIT", 500),
		MerkleBatchMode:        getEnv("MERKLE_BATCH_MODE", "oldest"),
		AnchorChain:            getEnv("ANCHOR_CHAIN", "mock"),
		AnchorTxPrefix:         getEnv("ANCHOR_TX_PREFIX", "mock-anchor-"),

		DatabaseURL:         getEnv("DB_URL", ""),
		DatabaseMaxConns:    getEnvInt("DATABASE_MAX_CONNS", 25),
		DatabaseMinConns:    getEnvInt("DATABASE_MIN_CONNS", 5),
		DatabaseMaxIdleTime: getEnvInt("DATABASE_MAX_IDLE_TIME", 300),
		DatabaseMaxLifetime: getEnvInt("DATABASE_MAX_LIFETIME", 3600),

		ArtifactsDir:       getEnv("ARTIFACTS_DIR", "./artifacts"),
		ReportTemplate:     getEnv("REPORT_TEMPLATE_PATH", "./templates/monthly_report.docx"),
		MaxRevisions:       getEnvInt("MAX_REVISIONS", 3),
		MaxRetriesDataLoad: getEnvInt("MAX_RETRIES_DATA_LOAD", 3),
		MonthlyCronSpec:    getEnv("MONTHLY_CRON_SPEC", "0 3 1 * *"),

		PolicyConfigPath: getEnv("POLICY_CONFIG_PATH", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// Validate checks that configuration required for the selected data source
// and storage backend is present.
func (c *Config) Validate() error {
	var errs []string

	if c.DatabaseURL == "" {
		errs = append(errs, "DB_URL is required but not set")
	}

	if c.UseLocalSource {
		if c.LocalAPIBase == "" {
			errs = append(errs, "LOCAL_API_BASE is required when USE_LOCAL_SFIAT=true")
		}
	} else {
		if c.EtherscanAPIKey == "" {
			errs = append(errs, "ETHERSCAN_API_KEY is required when USE_LOCAL_SFIAT=false")
		}
		if c.USDTContract == "" {
			errs = append(errs, "USDT_CONTRACT is required when USE_LOCAL_SFIAT=false")
		}
	}

	if c.MerkleBatchMode != "oldest" && c.MerkleBatchMode != "latest" {
		errs = append(errs, fmt.Sprintf("MERKLE_BATCH_MODE must be 'oldest' or 'latest', got %q", c.MerkleBatchMode))
	}

	if c.MaxRevisions < 1 {
		errs = append(errs, "MAX_REVISIONS must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if ms, err := strconv.Atoi(value); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}
