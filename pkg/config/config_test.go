package config

import (
	"os"
	"path/filepath"
	"testing"
)

const minimalYAML = `
environment: test
backend:
  type: clickhouse
binance:
  symbols: [BTCUSDT]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesEngineDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Engine.ConfidenceThreshold != 0.70 {
		t.Fatalf("confidence_threshold = %v", c.Engine.ConfidenceThreshold)
	}
	if c.Engine.ADXThreshold != 25 || c.Engine.RangeThreshold != 0.02 {
		t.Fatalf("regime defaults = %v / %v", c.Engine.ADXThreshold, c.Engine.RangeThreshold)
	}
	if c.Engine.Lookback != 50 || c.Engine.BreakoutConfirmation != 2 {
		t.Fatalf("entry defaults = %v / %v", c.Engine.Lookback, c.Engine.BreakoutConfirmation)
	}
	if c.Risk.MaxRiskFraction != 0.10 || c.Risk.DefaultBalance != 20 {
		t.Fatalf("risk defaults = %v / %v", c.Risk.MaxRiskFraction, c.Risk.DefaultBalance)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	body := `
environment: test
backend:
  type: postgres
binance:
  symbols: [BTCUSDT]
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadRequiresSymbols(t *testing.T) {
	body := `
environment: test
backend:
  type: kafka
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected error for empty symbols")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("SYMBOLS", "ETHUSDT,SOLUSDT")
	t.Setenv("BACKEND", "kafka")
	t.Setenv("TELEGRAM_TOKEN", "tok")

	c, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if len(c.Binance.Symbols) != 2 || c.Binance.Symbols[0] != "ETHUSDT" {
		t.Fatalf("symbols = %v", c.Binance.Symbols)
	}
	if c.Backend.Type != "kafka" {
		t.Fatalf("backend = %q", c.Backend.Type)
	}
	if c.Telegram.Token != "tok" {
		t.Fatalf("telegram token = %q", c.Telegram.Token)
	}
}

func TestValidateConfidenceRange(t *testing.T) {
	body := `
environment: test
backend:
  type: clickhouse
binance:
  symbols: [BTCUSDT]
engine:
  confidence_threshold: 1.5
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected error for out-of-range threshold")
	}
}
