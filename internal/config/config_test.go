package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with no file should fall back to defaults, got %v", err)
	}

	if cfg.App.Name != "dlmm-arb" {
		t.Errorf("app name = %q, want dlmm-arb", cfg.App.Name)
	}
	if cfg.Saros.RPCURL == "" {
		t.Error("default RPC URL should be set")
	}
	if cfg.Detection.MaxRouteDepth != 4 {
		t.Errorf("max route depth = %d, want 4", cfg.Detection.MaxRouteDepth)
	}
	if cfg.Detection.ScanInterval != 10*time.Second {
		t.Errorf("scan interval = %s, want 10s", cfg.Detection.ScanInterval)
	}
	if cfg.Profitability.SlippageBuffer != 1.2 {
		t.Errorf("slippage buffer = %v, want 1.2", cfg.Profitability.SlippageBuffer)
	}
	if cfg.Arbitrage.MaxRiskScore != 0.7 {
		t.Errorf("max risk score = %v, want 0.7", cfg.Arbitrage.MaxRiskScore)
	}
	if !cfg.Arbitrage.MonitoringEnabled {
		t.Error("monitoring should default to enabled")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
app:
  name: test-arb
  log_level: debug
detection:
  max_route_depth: 3
arbitrage:
  min_profit_threshold: 25
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.App.Name != "test-arb" {
		t.Errorf("app name = %q, want test-arb", cfg.App.Name)
	}
	if cfg.App.LogLevel != "debug" {
		t.Errorf("log level = %q, want debug", cfg.App.LogLevel)
	}
	if cfg.Detection.MaxRouteDepth != 3 {
		t.Errorf("max route depth = %d, want 3", cfg.Detection.MaxRouteDepth)
	}
	if cfg.Arbitrage.MinProfitThreshold != 25 {
		t.Errorf("min profit threshold = %v, want 25", cfg.Arbitrage.MinProfitThreshold)
	}
	// Untouched keys keep their defaults.
	if cfg.Pools.RefreshWorkers != 4 {
		t.Errorf("refresh workers = %d, want default 4", cfg.Pools.RefreshWorkers)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"missing rpc url", func(c *Config) { c.Saros.RPCURL = "" }, true},
		{"bad pool address", func(c *Config) { c.Pools.Addresses = []string{"0OIl"} }, true},
		{"zero refresh workers", func(c *Config) { c.Pools.RefreshWorkers = 0 }, true},
		{"route depth below minimum", func(c *Config) { c.Detection.MaxRouteDepth = 1 }, true},
		{"risk score above one", func(c *Config) { c.Arbitrage.MaxRiskScore = 1.5 }, true},
		{"var confidence at zero", func(c *Config) { c.Profitability.VaRConfidence = 0 }, true},
		{"zero concurrent plans", func(c *Config) { c.Execution.MaxConcurrentPlans = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMinProfitThresholdDecimal(t *testing.T) {
	c := ArbitrageConfig{MinProfitThreshold: 12.5}
	if got := c.MinProfitThresholdDecimal().String(); got != "12.5" {
		t.Errorf("threshold decimal = %s, want 12.5", got)
	}
}
