// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/wuxing-lab/tianji/internal/modules/strategy"
)

// Config holds application configuration
type Config struct {
	DataDir      string // Base directory for the journal database and session snapshot
	Port         int
	DevMode      bool
	LogLevel     string
	StartingCash float64 // Ledger starting cash for a fresh journal

	QuoteBaseURL string // Tencent quote endpoint, overridable for tests
	GeminiAPIKey string // Empty disables the advisory collaborator
	GeminiModel  string

	Strategy strategy.Config
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("TIANJI_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:      absDataDir,
		Port:         getEnvAsInt("TIANJI_PORT", 8011),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		StartingCash: getEnvAsFloat("STARTING_CASH", 1_000_000),
		QuoteBaseURL: getEnv("QUOTE_BASE_URL", "http://qt.gtimg.cn"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		Strategy:     loadStrategyConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.StartingCash <= 0 {
		return fmt.Errorf("starting cash must be positive, got %v", c.StartingCash)
	}
	if err := c.Strategy.Validate(); err != nil {
		return fmt.Errorf("invalid strategy configuration: %w", err)
	}
	// Gemini credentials optional: the advisory collaborator degrades to
	// "unavailable" without them
	return nil
}

// loadStrategyConfig builds the immutable strategy parameters, starting from
// the standard rule set with per-parameter env overrides.
func loadStrategyConfig() strategy.Config {
	sc := strategy.DefaultConfig()
	sc.PositionRatio = getEnvAsFloat("STRATEGY_POSITION_RATIO", sc.PositionRatio)
	sc.BatchSplit = getEnvAsFloat("STRATEGY_BATCH_SPLIT", sc.BatchSplit)
	sc.AddBuyDrop = getEnvAsFloat("STRATEGY_ADD_BUY_DROP", sc.AddBuyDrop)
	sc.StopLossFromAvg = getEnvAsFloat("STRATEGY_STOP_LOSS", sc.StopLossFromAvg)
	sc.TPMainBoard = getEnvAsFloat("STRATEGY_TP_MAIN_BOARD", sc.TPMainBoard)
	sc.TPTechBoard = getEnvAsFloat("STRATEGY_TP_TECH_BOARD", sc.TPTechBoard)
	sc.TrailingDrop = getEnvAsFloat("STRATEGY_TRAILING_DROP", sc.TrailingDrop)
	sc.MaxHoldingDays = getEnvAsInt("STRATEGY_MAX_HOLDING_DAYS", sc.MaxHoldingDays)
	return sc
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
