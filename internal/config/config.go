package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration loaded from environment variables.
// The fund economics here are the deal's fixed assumptions; they seed
// waterfall parameters explicitly rather than living as package globals.
type Config struct {
	DatabaseURL    string
	HTTPPort       string
	AdminAPIKey    string
	ReportInterval time.Duration

	// Google Sheets export (optional).
	SheetsSpreadsheetID string
	SheetsCredentials   string

	// Default fund assumptions.
	FundSize           decimal.Decimal
	PostMoneyValuation decimal.Decimal
	CarveOutRate       decimal.Decimal
	CarveOutThreshold  decimal.Decimal

	// Default sweep grid (base currency units).
	SweepFrom decimal.Decimal
	SweepTo   decimal.Decimal
	SweepStep decimal.Decimal
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		DatabaseURL:    envOrDefault("DATABASE_URL", ""),
		HTTPPort:       envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey:    envOrDefault("ADMIN_API_KEY", ""),
		ReportInterval: envOrDefaultDuration("REPORT_INTERVAL", 24*time.Hour),

		SheetsSpreadsheetID: envOrDefault("SHEETS_SPREADSHEET_ID", ""),
		SheetsCredentials:   envOrDefault("SHEETS_CREDENTIALS_JSON", ""),

		FundSize:           envOrDefaultDecimal("FUND_SIZE", decimal.NewFromInt(10_000_000)),
		PostMoneyValuation: envOrDefaultDecimal("POST_MONEY_VALUATION", decimal.NewFromInt(82_000_000)),
		CarveOutRate:       envOrDefaultDecimal("CARVE_OUT_RATE", decimal.RequireFromString("0.10")),
		CarveOutThreshold:  envOrDefaultDecimal("CARVE_OUT_THRESHOLD", decimal.NewFromInt(200_000_000)),

		SweepFrom: envOrDefaultDecimal("SWEEP_FROM", decimal.NewFromInt(25_000_000)),
		SweepTo:   envOrDefaultDecimal("SWEEP_TO", decimal.NewFromInt(1_000_000_000)),
		SweepStep: envOrDefaultDecimal("SWEEP_STEP", decimal.NewFromInt(25_000_000)),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

func envOrDefaultDecimal(key string, defaultVal decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			slog.Warn("invalid decimal env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
