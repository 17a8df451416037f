// Package config loads the module's full configuration tree via viper:
// file + environment-variable overrides, with defaults for every subsystem.
// Grounded on the teacher's internal/config/config.go (the same Load/
// setDefaults/AutomaticEnv shape), generalized from a single-exchange crypto
// trading tree to the four equity-signal subsystems.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/signalforge/equityedge/internal/consensus"
	"github.com/signalforge/equityedge/internal/verdict"
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Vault      VaultConfig      `mapstructure:"vault"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Market     MarketConfig     `mapstructure:"market"`
	Sentiment  SentimentConfig  `mapstructure:"sentiment"`
	Panel      PanelConfig      `mapstructure:"panel"`
	Consensus  ConsensusConfig  `mapstructure:"consensus"`
	Backtest   BacktestConfig   `mapstructure:"backtest"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"` // development, staging, production
	LogLevel    string `mapstructure:"log_level"`
}

// DatabaseConfig contains PostgreSQL settings; only used as a DATABASE_URL
// fallback when Vault has no database secret (see internal/persistence.Pgx).
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// RedisConfig contains the market/sentiment cache's Redis settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// VaultConfig contains HashiCorp Vault connection settings.
type VaultConfig struct {
	Address  string        `mapstructure:"address"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// LLMConfig contains the LLM chat client's settings, shared by the three
// LLM-backed agents (Contrarian, Growth, MultiModal).
type LLMConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TimeoutMS   int     `mapstructure:"timeout_ms"`
}

// Timeout returns the LLM timeout as a time.Duration.
func (c LLMConfig) Timeout() time.Duration { return time.Duration(c.TimeoutMS) * time.Millisecond }

// ProviderConfig is one market or sentiment provider's chain entry.
type ProviderConfig struct {
	Name              string `mapstructure:"name"`
	BaseURL           string `mapstructure:"base_url"`
	APIKey            string `mapstructure:"api_key"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
	TimeoutMS         int    `mapstructure:"timeout_ms"`
}

// MarketConfig configures the Data Aggregator's market-data provider chain.
type MarketConfig struct {
	Providers     []ProviderConfig `mapstructure:"providers"` // chain order = config order
	CacheTTLQuote time.Duration    `mapstructure:"cache_ttl_quote"`
	CacheTTLDaily time.Duration    `mapstructure:"cache_ttl_daily"`
}

// SentimentConfig configures the Data Aggregator's sentiment provider chain.
type SentimentConfig struct {
	NewsProviders  []ProviderConfig `mapstructure:"news_providers"`
	SocialProviders []ProviderConfig `mapstructure:"social_providers"`
	CacheTTL       time.Duration    `mapstructure:"cache_ttl"`
}

// PanelConfig configures the Agent Panel.
type PanelConfig struct {
	DeadlineMS int                `mapstructure:"deadline_ms"`
	Weights    map[string]float64 `mapstructure:"weights"` // agent name -> weight
	Thresholds ThresholdsConfig   `mapstructure:"thresholds"`
}

// Deadline returns the panel's shared deadline as a time.Duration.
func (c PanelConfig) Deadline() time.Duration { return time.Duration(c.DeadlineMS) * time.Millisecond }

// ThresholdsConfig mirrors verdict.Thresholds for viper unmarshaling.
type ThresholdsConfig struct {
	StrongBuy  float64 `mapstructure:"strong_buy"`
	Buy        float64 `mapstructure:"buy"`
	Sell       float64 `mapstructure:"sell"`
	StrongSell float64 `mapstructure:"strong_sell"`
}

// ToVerdict converts viper-sourced thresholds into verdict.Thresholds.
func (c ThresholdsConfig) ToVerdict() verdict.Thresholds {
	return verdict.Thresholds{StrongBuy: c.StrongBuy, Buy: c.Buy, Sell: c.Sell, StrongSell: c.StrongSell}
}

// ConsensusConfig configures the Consensus Engine's risk parameters.
type ConsensusConfig struct {
	StopLossPct    float64          `mapstructure:"stop_loss_pct"`
	TargetPct      float64          `mapstructure:"target_pct"`
	Capital        float64          `mapstructure:"capital"`
	MaxPositionPct float64          `mapstructure:"max_position_pct"`
	Thresholds     ThresholdsConfig `mapstructure:"thresholds"`
}

// ToEngineConfig converts viper-sourced settings into consensus.RiskConfig.
func (c ConsensusConfig) ToEngineConfig() consensus.RiskConfig {
	return consensus.RiskConfig{
		StopLossPct:      c.StopLossPct,
		TargetPct:        c.TargetPct,
		Capital:          c.Capital,
		MaxPositionPct:   c.MaxPositionPct,
		SignalThresholds: c.Thresholds.ToVerdict(),
	}
}

// BacktestConfig configures default Backtest Engine parameters.
type BacktestConfig struct {
	DefaultHoldPeriodDays int           `mapstructure:"default_hold_period_days"`
	DeadlineMinutes       int           `mapstructure:"deadline_minutes"`
}

// Deadline returns the backtest coarse deadline as a time.Duration.
func (c BacktestConfig) Deadline() time.Duration { return time.Duration(c.DeadlineMinutes) * time.Minute }

// TelegramConfig configures the optional verdict-lifecycle notifier.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
	Debug    bool   `mapstructure:"debug"`
}

// MonitoringConfig contains Prometheus settings.
type MonitoringConfig struct {
	PrometheusPort int  `mapstructure:"prometheus_port"`
	EnableMetrics  bool `mapstructure:"enable_metrics"`
}

// Load reads configuration from configPath (or ./configs/config.yaml, or
// ./config.yaml when configPath is empty), overlays SIGNALFORGE_-prefixed
// environment variables, and validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("SIGNALFORGE")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "equityedge")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "equityedge")
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("vault.address", "http://localhost:8200")
	v.SetDefault("vault.cache_ttl", 5*time.Minute)

	v.SetDefault("llm.endpoint", "http://localhost:8080/v1/chat/completions")
	v.SetDefault("llm.model", "claude-sonnet-4-20250514")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 800)
	v.SetDefault("llm.timeout_ms", 15000)

	v.SetDefault("market.cache_ttl_quote", time.Minute)
	v.SetDefault("market.cache_ttl_daily", time.Hour)

	v.SetDefault("sentiment.cache_ttl", 10*time.Minute)

	v.SetDefault("panel.deadline_ms", 30000)
	v.SetDefault("panel.thresholds.strong_buy", 0.5)
	v.SetDefault("panel.thresholds.buy", 0.1)
	v.SetDefault("panel.thresholds.sell", -0.1)
	v.SetDefault("panel.thresholds.strong_sell", -0.5)

	v.SetDefault("consensus.stop_loss_pct", 0.10)
	v.SetDefault("consensus.target_pct", 0.25)
	v.SetDefault("consensus.capital", 50000.0)
	v.SetDefault("consensus.max_position_pct", 0.10)
	v.SetDefault("consensus.thresholds.strong_buy", 0.5)
	v.SetDefault("consensus.thresholds.buy", 0.1)
	v.SetDefault("consensus.thresholds.sell", -0.1)
	v.SetDefault("consensus.thresholds.strong_sell", -0.5)

	v.SetDefault("backtest.default_hold_period_days", 30)
	v.SetDefault("backtest.deadline_minutes", 5)

	v.SetDefault("telegram.debug", false)

	v.SetDefault("monitoring.prometheus_port", 9100)
	v.SetDefault("monitoring.enable_metrics", true)
}

// GetDSN returns the fallback PostgreSQL connection string (used only when
// Vault does not have a database secret).
func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// GetRedisAddr returns the Redis address.
func (c RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
