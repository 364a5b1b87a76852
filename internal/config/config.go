// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Saros         SarosConfig         `mapstructure:"saros"`
	Pools         PoolsConfig         `mapstructure:"pools"`
	Detection     DetectionConfig     `mapstructure:"detection"`
	Profitability ProfitabilityConfig `mapstructure:"profitability"`
	Execution     ExecutionConfig     `mapstructure:"execution"`
	Arbitrage     ArbitrageConfig     `mapstructure:"arbitrage"`
	Telemetry     TelemetryConfig     `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// SarosConfig holds DLMM RPC endpoint configuration.
type SarosConfig struct {
	RPCURL            string        `mapstructure:"rpc_url"`
	WSURL             string        `mapstructure:"ws_url"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	InitialBackoff    time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff        time.Duration `mapstructure:"max_backoff"`
}

// PoolsConfig holds pool registry configuration.
type PoolsConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	RefreshWorkers  int           `mapstructure:"refresh_workers"`
	Addresses       []string      `mapstructure:"addresses"`
}

// DetectionConfig holds detection engine configuration.
type DetectionConfig struct {
	ScanInterval     time.Duration `mapstructure:"scan_interval"`
	MaxRouteDepth    int           `mapstructure:"max_route_depth"`
	FreshnessHorizon time.Duration `mapstructure:"freshness_horizon"`
	ProbeAmount      float64       `mapstructure:"probe_amount"`
}

// ProfitabilityConfig holds cost-model parameters.
type ProfitabilityConfig struct {
	GasUnitPrice   float64 `mapstructure:"gas_unit_price"`   // currency per compute unit
	SlippageBuffer float64 `mapstructure:"slippage_buffer"`  // safety multiplier on price impact
	BaseMEVRate    float64 `mapstructure:"base_mev_rate"`    // fraction of input amount
	RiskFreeRate   float64 `mapstructure:"risk_free_rate"`   // annualized, for opportunity cost
	VaRConfidence  float64 `mapstructure:"var_confidence"`   // tail probability, e.g. 0.05
}

// ExecutionConfig holds execution planner configuration.
type ExecutionConfig struct {
	MaxConcurrentPlans int           `mapstructure:"max_concurrent_plans"`
	DefaultStepTimeout time.Duration `mapstructure:"default_step_timeout"`
	MaxSlippage        float64       `mapstructure:"max_slippage"`
}

// ArbitrageConfig holds manager policy thresholds.
type ArbitrageConfig struct {
	MinProfitThreshold  float64 `mapstructure:"min_profit_threshold"`
	MaxRiskScore        float64 `mapstructure:"max_risk_score"`
	EnableMEVProtection bool    `mapstructure:"enable_mev_protection"`
	MonitoringEnabled   bool    `mapstructure:"monitoring_enabled"`
	TUIMode             bool    `mapstructure:"-"` // Set at runtime, not from config file
}

// MinProfitThresholdDecimal returns the minimum profit threshold as decimal.
func (c *ArbitrageConfig) MinProfitThresholdDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitThreshold)
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("ARB")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")

	// Saros RPC
	v.BindEnv("saros.rpc_url", "ARB_SAROS_RPC_URL", "SAROS_RPC_URL")
	v.BindEnv("saros.ws_url", "ARB_SAROS_WS_URL", "SAROS_WS_URL")

	// Pools
	v.BindEnv("pools.addresses", "ARB_POOL_ADDRESSES")
	v.BindEnv("pools.refresh_interval", "ARB_POOL_REFRESH_INTERVAL")
	v.BindEnv("pools.refresh_workers", "ARB_POOL_REFRESH_WORKERS")

	// Detection
	v.BindEnv("detection.scan_interval", "ARB_SCAN_INTERVAL")
	v.BindEnv("detection.max_route_depth", "ARB_MAX_ROUTE_DEPTH")

	// Arbitrage policy
	v.BindEnv("arbitrage.min_profit_threshold", "ARB_MIN_PROFIT_THRESHOLD")
	v.BindEnv("arbitrage.max_risk_score", "ARB_MAX_RISK_SCORE")
	v.BindEnv("arbitrage.enable_mev_protection", "ARB_ENABLE_MEV_PROTECTION")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "dlmm-arb")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Saros defaults (public Solana mainnet RPC)
	v.SetDefault("saros.rpc_url", "https://api.mainnet-beta.solana.com")
	v.SetDefault("saros.ws_url", "wss://api.mainnet-beta.solana.com")
	v.SetDefault("saros.request_timeout", "10s")
	v.SetDefault("saros.requests_per_minute", 300)
	v.SetDefault("saros.initial_backoff", "1s")
	v.SetDefault("saros.max_backoff", "30s")

	// Pool registry defaults
	v.SetDefault("pools.refresh_interval", "30s")
	v.SetDefault("pools.refresh_workers", 4)

	// Detection defaults
	v.SetDefault("detection.scan_interval", "10s")
	v.SetDefault("detection.max_route_depth", 4)
	v.SetDefault("detection.freshness_horizon", "30s")
	v.SetDefault("detection.probe_amount", 1000)

	// Profitability defaults
	v.SetDefault("profitability.gas_unit_price", 0.000005)
	v.SetDefault("profitability.slippage_buffer", 1.2)
	v.SetDefault("profitability.base_mev_rate", 0.01)
	v.SetDefault("profitability.risk_free_rate", 0.05)
	v.SetDefault("profitability.var_confidence", 0.05)

	// Execution defaults
	v.SetDefault("execution.max_concurrent_plans", 2)
	v.SetDefault("execution.default_step_timeout", "30s")
	v.SetDefault("execution.max_slippage", 0.01)

	// Arbitrage policy defaults
	v.SetDefault("arbitrage.min_profit_threshold", 10)
	v.SetDefault("arbitrage.max_risk_score", 0.7)
	v.SetDefault("arbitrage.enable_mev_protection", true)
	v.SetDefault("arbitrage.monitoring_enabled", true)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "dlmm-arb")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Saros.RPCURL == "" {
		return fmt.Errorf("saros.rpc_url is required")
	}
	for _, addr := range c.Pools.Addresses {
		if _, err := base58.Decode(addr); err != nil {
			return fmt.Errorf("invalid pool address %q: %w", addr, err)
		}
	}
	if c.Pools.RefreshWorkers < 1 {
		return fmt.Errorf("pools.refresh_workers must be at least 1")
	}
	if c.Detection.MaxRouteDepth < 2 {
		return fmt.Errorf("detection.max_route_depth must be at least 2")
	}
	if c.Arbitrage.MaxRiskScore < 0 || c.Arbitrage.MaxRiskScore > 1 {
		return fmt.Errorf("arbitrage.max_risk_score must be in [0,1]")
	}
	if c.Profitability.VaRConfidence <= 0 || c.Profitability.VaRConfidence >= 1 {
		return fmt.Errorf("profitability.var_confidence must be in (0,1)")
	}
	if c.Execution.MaxConcurrentPlans < 1 {
		return fmt.Errorf("execution.max_concurrent_plans must be at least 1")
	}
	return nil
}
