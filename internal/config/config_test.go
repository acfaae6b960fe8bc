package config

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoadDefaults(t *testing.T) {
	// Clear any env vars that might affect defaults
	for _, key := range []string{"DATABASE_URL", "HTTP_PORT", "FUND_SIZE", "POST_MONEY_VALUATION", "SWEEP_STEP", "REPORT_INTERVAL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()

	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != "8080" {
		t.Errorf("HTTPPort = %q, want 8080", cfg.HTTPPort)
	}
	if cfg.ReportInterval != 24*time.Hour {
		t.Errorf("ReportInterval = %v, want 24h", cfg.ReportInterval)
	}
	if !cfg.FundSize.Equal(decimal.NewFromInt(10_000_000)) {
		t.Errorf("FundSize = %s, want 10000000", cfg.FundSize)
	}
	if !cfg.PostMoneyValuation.Equal(decimal.NewFromInt(82_000_000)) {
		t.Errorf("PostMoneyValuation = %s, want 82000000", cfg.PostMoneyValuation)
	}
	if !cfg.CarveOutRate.Equal(decimal.RequireFromString("0.10")) {
		t.Errorf("CarveOutRate = %s, want 0.10", cfg.CarveOutRate)
	}
	if !cfg.CarveOutThreshold.Equal(decimal.NewFromInt(200_000_000)) {
		t.Errorf("CarveOutThreshold = %s, want 200000000", cfg.CarveOutThreshold)
	}
	if !cfg.SweepStep.Equal(decimal.NewFromInt(25_000_000)) {
		t.Errorf("SweepStep = %s, want 25000000", cfg.SweepStep)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/testdb")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("FUND_SIZE", "25000000")
	t.Setenv("REPORT_INTERVAL", "1h")

	cfg := Load()

	if cfg.DatabaseURL != "postgres://localhost/testdb" {
		t.Errorf("DatabaseURL = %q, want override", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != "9090" {
		t.Errorf("HTTPPort = %q, want 9090", cfg.HTTPPort)
	}
	if !cfg.FundSize.Equal(decimal.NewFromInt(25_000_000)) {
		t.Errorf("FundSize = %s, want 25000000", cfg.FundSize)
	}
	if cfg.ReportInterval != time.Hour {
		t.Errorf("ReportInterval = %v, want 1h", cfg.ReportInterval)
	}
}

func TestLoadInvalidEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("FUND_SIZE", "not-a-number")
	t.Setenv("REPORT_INTERVAL", "invalid-duration")

	cfg := Load()

	if !cfg.FundSize.Equal(decimal.NewFromInt(10_000_000)) {
		t.Errorf("FundSize = %s, want default on invalid input", cfg.FundSize)
	}
	if cfg.ReportInterval != 24*time.Hour {
		t.Errorf("ReportInterval = %v, want default on invalid input", cfg.ReportInterval)
	}
}
