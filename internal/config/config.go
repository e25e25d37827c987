package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Paths
	DataDir         string // Root for produced artifacts
	SnapshotDir     string // Dated snapshot artifacts
	ScanHistoryDir  string // Historical pattern-scan artifacts
	PriceHistoryDir string // Per-symbol price history databases
	LedgerDBPath    string // Snapshot run ledger
	StagesPath      string // Scoring stage definitions (JSON)

	// Position sizing
	PortfolioValue      float64
	MaxRiskPerTrade     float64
	MaxPositionFraction float64
	MinCompositeScore   float64

	LogLevel string
	DevMode  bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		DataDir:         getEnv("DATA_DIR", "./data"),
		SnapshotDir:     getEnv("SNAPSHOT_DIR", "./data/snapshots"),
		ScanHistoryDir:  getEnv("SCAN_HISTORY_DIR", "./data/scans"),
		PriceHistoryDir: getEnv("PRICE_HISTORY_DIR", "./data/history"),
		LedgerDBPath:    getEnv("LEDGER_DB_PATH", "./data/runs.db"),
		StagesPath:      getEnv("STAGES_PATH", "./config/stages.json"),

		PortfolioValue:      getEnvAsFloat("PORTFOLIO_VALUE", 100000),
		MaxRiskPerTrade:     getEnvAsFloat("MAX_RISK_PER_TRADE", 0.02),
		MaxPositionFraction: getEnvAsFloat("MAX_POSITION_FRACTION", 0.10),
		MinCompositeScore:   getEnvAsFloat("MIN_COMPOSITE_SCORE", 60),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and sane
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.PortfolioValue <= 0 {
		return fmt.Errorf("PORTFOLIO_VALUE must be positive, got %v", c.PortfolioValue)
	}
	if c.MaxPositionFraction <= 0 || c.MaxPositionFraction > 1 {
		return fmt.Errorf("MAX_POSITION_FRACTION must be in (0, 1], got %v", c.MaxPositionFraction)
	}
	if c.MaxRiskPerTrade <= 0 || c.MaxRiskPerTrade > 1 {
		return fmt.Errorf("MAX_RISK_PER_TRADE must be in (0, 1], got %v", c.MaxRiskPerTrade)
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
