// Package config loads the pipeline configuration from a YAML file with
// WALLETSCOUT_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"wallet-scout/internal/domain"
)

// Config stores all configuration for a pipeline run.
type Config struct {
	Scoring   ScoringConfig             `mapstructure:"scoring"`
	Strategy  string                    `mapstructure:"strategy"`
	Profiles  map[string]StrategyConfig `mapstructure:"profiles"`
	Liquidity LiquidityConfig           `mapstructure:"liquidity"`
	Storage   StorageConfig             `mapstructure:"storage"`
	Roster    RosterConfig              `mapstructure:"roster"`
	Risk      RiskConfig                `mapstructure:"risk"`
	Metrics   MetricsConfig             `mapstructure:"metrics"`
	Logging   LoggingConfig             `mapstructure:"logging"`
}

// ScoringConfig carries the tier thresholds.
type ScoringConfig struct {
	MinScoreActive    float64 `mapstructure:"min_score_active"`
	MinScoreCandidate float64 `mapstructure:"min_score_candidate"`
}

// StrategyConfig is one named backtest risk profile.
type StrategyConfig struct {
	MinLiquiditySOL float64 `mapstructure:"min_liquidity_sol"`
	MaxSlippagePct  float64 `mapstructure:"max_slippage_pct"`
	FeePct          float64 `mapstructure:"fee_pct"`
	MinTrades       int     `mapstructure:"min_trades"`
}

// LiquidityConfig configures the oracle and its external provider.
type LiquidityConfig struct {
	ProviderEndpoint string        `mapstructure:"provider_endpoint"`
	ProviderTimeout  time.Duration `mapstructure:"provider_timeout"`
	FeedEndpoint     string        `mapstructure:"feed_endpoint"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
	Tolerance        time.Duration `mapstructure:"tolerance"`
}

// StorageConfig carries the backing store DSNs. Empty DSN means the
// corresponding store is not used for this run.
type StorageConfig struct {
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn"`
}

// RosterConfig configures publication and downstream notification.
type RosterConfig struct {
	Path        string `mapstructure:"path"`
	NotifierURL string `mapstructure:"notifier_url"`
}

// RiskConfig configures the optional token risk checker.
type RiskConfig struct {
	// FailOpen treats a risk-checker error as "safe" instead of a veto.
	FailOpen bool `mapstructure:"fail_open"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// LoggingConfig configures the root logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from path (a directory containing config.yaml)
// and the environment. A missing config file is not an error; defaults and
// environment variables still apply.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("WALLETSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if _, ok := cfg.Profiles[cfg.Strategy]; !ok {
		return Config{}, fmt.Errorf("unknown strategy profile %q", cfg.Strategy)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scoring.min_score_active", 70.0)
	v.SetDefault("scoring.min_score_candidate", 40.0)

	v.SetDefault("strategy", domain.StrategyConfigConservative.Name)
	v.SetDefault("profiles.conservative.min_liquidity_sol", domain.StrategyConfigConservative.MinLiquiditySOL)
	v.SetDefault("profiles.conservative.max_slippage_pct", domain.StrategyConfigConservative.MaxSlippagePct)
	v.SetDefault("profiles.conservative.fee_pct", domain.StrategyConfigConservative.FeePct)
	v.SetDefault("profiles.conservative.min_trades", domain.StrategyConfigConservative.MinTrades)
	v.SetDefault("profiles.aggressive.min_liquidity_sol", domain.StrategyConfigAggressive.MinLiquiditySOL)
	v.SetDefault("profiles.aggressive.max_slippage_pct", domain.StrategyConfigAggressive.MaxSlippagePct)
	v.SetDefault("profiles.aggressive.fee_pct", domain.StrategyConfigAggressive.FeePct)
	v.SetDefault("profiles.aggressive.min_trades", domain.StrategyConfigAggressive.MinTrades)

	v.SetDefault("liquidity.provider_timeout", 10*time.Second)
	v.SetDefault("liquidity.cache_ttl", 30*time.Second)
	v.SetDefault("liquidity.tolerance", 15*time.Minute)

	v.SetDefault("roster.path", "wallets.db")

	v.SetDefault("risk.fail_open", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// StrategyProfile resolves the selected profile into the domain type.
func (c Config) StrategyProfile() domain.StrategyConfig {
	p := c.Profiles[c.Strategy]
	return domain.StrategyConfig{
		Name:            c.Strategy,
		MinLiquiditySOL: p.MinLiquiditySOL,
		MaxSlippagePct:  p.MaxSlippagePct,
		FeePct:          p.FeePct,
		MinTrades:       p.MinTrades,
	}
}
