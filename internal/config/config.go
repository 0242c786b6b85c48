// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/fd1az/product-scout/internal/apperror"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Fees      FeesConfig      `mapstructure:"fees"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Ranker    RankerConfig    `mapstructure:"ranker"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Trends    TrendsConfig    `mapstructure:"trends"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Scanner   ScannerConfig   `mapstructure:"scanner"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// FeesConfig holds the cost model. Percentages are fractions of the base price.
type FeesConfig struct {
	PlatformPct       float64 `mapstructure:"platform_pct"`
	PaymentPct        float64 `mapstructure:"payment_pct"`
	ReturnReservePct  float64 `mapstructure:"return_reserve_pct"`
	CurrencyBufferPct float64 `mapstructure:"currency_buffer_pct"`
	Shipping          float64 `mapstructure:"shipping"`
	Packaging         float64 `mapstructure:"packaging"`
	BreakEvenTarget   float64 `mapstructure:"break_even_target"`
}

// ShippingDecimal returns the flat shipping cost as decimal.Decimal.
func (c *FeesConfig) ShippingDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.Shipping)
}

// PackagingDecimal returns the flat packaging cost as decimal.Decimal.
func (c *FeesConfig) PackagingDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.Packaging)
}

// BreakEvenTargetDecimal returns the break-even profit target as decimal.Decimal.
func (c *FeesConfig) BreakEvenTargetDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.BreakEvenTarget)
}

// RiskWeights are the per-factor weights of the overall risk score.
type RiskWeights struct {
	Volatility  float64 `mapstructure:"volatility"`
	Competition float64 `mapstructure:"competition"`
	Demand      float64 `mapstructure:"demand"`
	Seasonality float64 `mapstructure:"seasonality"`
	Supplier    float64 `mapstructure:"supplier"`
	Regulatory  float64 `mapstructure:"regulatory"`
}

// Sum returns the total of all weights.
func (w RiskWeights) Sum() float64 {
	return w.Volatility + w.Competition + w.Demand + w.Seasonality + w.Supplier + w.Regulatory
}

// RiskConfig holds risk scoring configuration.
type RiskConfig struct {
	Weights   RiskWeights `mapstructure:"weights"`
	LowMax    float64     `mapstructure:"low_max"`
	MediumMax float64     `mapstructure:"medium_max"`
	// Reporting thresholds share the weight field names.
	Reporting RiskWeights `mapstructure:"reporting"`
}

// RankerConfig holds ranking and gating configuration.
type RankerConfig struct {
	MinMarginPct float64 `mapstructure:"min_margin_pct"`
	MaxRiskLevel string  `mapstructure:"max_risk_level"`
	Workers      int     `mapstructure:"workers"`
	Jitter       bool    `mapstructure:"jitter"`
	JitterSeed   int64   `mapstructure:"jitter_seed"`
}

// CatalogConfig points at the lexical tables file. Empty uses the compiled-in tables.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// TrendsConfig holds the trend source settings.
type TrendsConfig struct {
	APIURL            string        `mapstructure:"api_url"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
	FetchWorkers      int           `mapstructure:"fetch_workers"`
	FeedURL           string        `mapstructure:"feed_url"`
	MaxReconnects     int           `mapstructure:"max_reconnects"`
	InitialBackoff    time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff        time.Duration `mapstructure:"max_backoff"`
}

// RedisConfig holds the shared trend cache settings.
type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// NATSConfig holds the opportunity publisher settings.
type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

// TelegramConfig holds the chat bot settings.
type TelegramConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	Token              string        `mapstructure:"token"`
	PollTimeout        time.Duration `mapstructure:"poll_timeout"`
	AlertMinConfidence float64       `mapstructure:"alert_min_confidence"`
}

// HTTPConfig holds the dashboard API settings.
type HTTPConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// WatchItem is a product the scanner evaluates every cycle.
type WatchItem struct {
	Keyword     string  `mapstructure:"keyword"`
	ProductName string  `mapstructure:"product_name"`
	Category    string  `mapstructure:"category"`
	BasePrice   float64 `mapstructure:"base_price"`
	ResalePrice float64 `mapstructure:"resale_price"`
}

// BasePriceDecimal returns the supplier price as decimal.Decimal.
func (w WatchItem) BasePriceDecimal() decimal.Decimal {
	return decimal.NewFromFloat(w.BasePrice)
}

// ResalePriceDecimal returns the resale override, nil when unset.
func (w WatchItem) ResalePriceDecimal() *decimal.Decimal {
	if w.ResalePrice <= 0 {
		return nil
	}
	d := decimal.NewFromFloat(w.ResalePrice)
	return &d
}

// ScannerConfig holds the periodic scan settings.
type ScannerConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	TopN      int           `mapstructure:"top_n"`
	Watchlist []WatchItem   `mapstructure:"watchlist"`
	TUIMode   bool          `mapstructure:"-"` // Set at runtime, not from config file
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	ServiceName    string   `mapstructure:"service_name"`
	TraceProvider  string   `mapstructure:"trace_provider"`
	MetricExports  []string `mapstructure:"metric_exports"`
	OTLPEndpoint   string   `mapstructure:"otlp_endpoint"`
	SampleRatio    float64  `mapstructure:"sample_ratio"`
	PrometheusPort int      `mapstructure:"prometheus_port"`
	HealthPort     int      `mapstructure:"health_port"`
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

	v.SetEnvPrefix("SCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, apperror.New(apperror.CodeConfigurationError,
				apperror.WithCause(err),
				apperror.WithContext("read config"))
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithCause(err),
			apperror.WithContext("unmarshal config"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "SCOUT_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "SCOUT_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "SCOUT_LOG_LEVEL", "LOG_LEVEL")

	// Ranker
	v.BindEnv("ranker.min_margin_pct", "SCOUT_MIN_MARGIN_PCT")
	v.BindEnv("ranker.max_risk_level", "SCOUT_MAX_RISK_LEVEL")
	v.BindEnv("ranker.jitter_seed", "SCOUT_JITTER_SEED")

	// Catalog
	v.BindEnv("catalog.path", "SCOUT_CATALOG_PATH")

	// Trends
	v.BindEnv("trends.api_url", "SCOUT_TRENDS_API_URL", "TRENDS_API_URL")
	v.BindEnv("trends.api_key", "SCOUT_TRENDS_API_KEY", "TRENDS_API_KEY")
	v.BindEnv("trends.feed_url", "SCOUT_TRENDS_FEED_URL")

	// Redis
	v.BindEnv("redis.enabled", "SCOUT_REDIS_ENABLED")
	v.BindEnv("redis.addr", "SCOUT_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("redis.password", "SCOUT_REDIS_PASSWORD", "REDIS_PASSWORD")

	// NATS
	v.BindEnv("nats.enabled", "SCOUT_NATS_ENABLED")
	v.BindEnv("nats.url", "SCOUT_NATS_URL", "NATS_URL")

	// Telegram
	v.BindEnv("telegram.enabled", "SCOUT_TELEGRAM_ENABLED")
	v.BindEnv("telegram.token", "SCOUT_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")

	// HTTP
	v.BindEnv("http.enabled", "SCOUT_HTTP_ENABLED")
	v.BindEnv("http.port", "SCOUT_HTTP_PORT", "PORT")

	// Telemetry
	v.BindEnv("telemetry.enabled", "SCOUT_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "SCOUT_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "SCOUT_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.trace_provider", "SCOUT_OTEL_TRACE_PROVIDER")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "product-scout")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Fee schedule
	v.SetDefault("fees.platform_pct", 0.10)
	v.SetDefault("fees.payment_pct", 0.029)
	v.SetDefault("fees.return_reserve_pct", 0.05)
	v.SetDefault("fees.currency_buffer_pct", 0.02)
	v.SetDefault("fees.shipping", 3.50)
	v.SetDefault("fees.packaging", 0.50)
	v.SetDefault("fees.break_even_target", 50)

	// Risk model
	v.SetDefault("risk.weights.volatility", 0.25)
	v.SetDefault("risk.weights.competition", 0.20)
	v.SetDefault("risk.weights.demand", 0.20)
	v.SetDefault("risk.weights.seasonality", 0.15)
	v.SetDefault("risk.weights.supplier", 0.10)
	v.SetDefault("risk.weights.regulatory", 0.10)
	v.SetDefault("risk.low_max", 30)
	v.SetDefault("risk.medium_max", 60)
	v.SetDefault("risk.reporting.volatility", 50)
	v.SetDefault("risk.reporting.competition", 60)
	v.SetDefault("risk.reporting.demand", 50)
	v.SetDefault("risk.reporting.seasonality", 40)
	v.SetDefault("risk.reporting.supplier", 40)
	v.SetDefault("risk.reporting.regulatory", 20)

	// Ranker
	v.SetDefault("ranker.min_margin_pct", 40)
	v.SetDefault("ranker.max_risk_level", "medium")
	v.SetDefault("ranker.workers", 0) // runtime.NumCPU()
	v.SetDefault("ranker.jitter", false)
	v.SetDefault("ranker.jitter_seed", 0)

	// Trends
	v.SetDefault("trends.timeout", "10s")
	v.SetDefault("trends.requests_per_minute", 60)
	v.SetDefault("trends.cache_ttl", "15m")
	v.SetDefault("trends.fetch_workers", 4)
	v.SetDefault("trends.max_reconnects", 0) // infinite
	v.SetDefault("trends.initial_backoff", "1s")
	v.SetDefault("trends.max_backoff", "30s")

	// Redis
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.key_prefix", "scout:trend:")

	// NATS
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject", "scout.opportunities")

	// Telegram
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.poll_timeout", "10s")
	v.SetDefault("telegram.alert_min_confidence", 70)

	// HTTP
	v.SetDefault("http.enabled", false)
	v.SetDefault("http.port", 8080)

	// Scanner
	v.SetDefault("scanner.interval", "5m")
	v.SetDefault("scanner.top_n", 10)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "product-scout")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.metric_exports", []string{"prometheus"})
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("telemetry.prometheus_port", 9090)
	v.SetDefault("telemetry.health_port", 8081)
}

func invalid(format string, args ...any) error {
	return apperror.New(apperror.CodeConfigurationError,
		apperror.WithMessage(fmt.Sprintf(format, args...)))
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	f := c.Fees
	for _, fee := range []struct {
		name string
		pct  float64
	}{
		{"fees.platform_pct", f.PlatformPct},
		{"fees.payment_pct", f.PaymentPct},
		{"fees.return_reserve_pct", f.ReturnReservePct},
		{"fees.currency_buffer_pct", f.CurrencyBufferPct},
	} {
		if fee.pct < 0 || fee.pct >= 1 {
			return invalid("%s must be in [0, 1), got %v", fee.name, fee.pct)
		}
	}
	if f.Shipping < 0 || f.Packaging < 0 {
		return invalid("fees.shipping and fees.packaging cannot be negative")
	}
	if f.BreakEvenTarget <= 0 {
		return invalid("fees.break_even_target must be positive")
	}

	if sum := c.Risk.Weights.Sum(); math.Abs(sum-1.0) > 0.001 {
		return invalid("risk.weights must sum to 1.0, got %.3f", sum)
	}
	if c.Risk.LowMax <= 0 || c.Risk.LowMax >= c.Risk.MediumMax || c.Risk.MediumMax >= 100 {
		return invalid("risk thresholds must satisfy 0 < low_max < medium_max < 100")
	}

	if c.Ranker.MinMarginPct < 0 {
		return invalid("ranker.min_margin_pct cannot be negative")
	}
	switch strings.ToLower(c.Ranker.MaxRiskLevel) {
	case "low", "medium", "high":
	default:
		return invalid("ranker.max_risk_level must be low, medium or high, got %q", c.Ranker.MaxRiskLevel)
	}
	if c.Ranker.Workers < 0 {
		return invalid("ranker.workers cannot be negative")
	}

	for i, item := range c.Scanner.Watchlist {
		if strings.TrimSpace(item.Keyword) == "" {
			return invalid("scanner.watchlist[%d].keyword is required", i)
		}
		if item.BasePrice <= 0 {
			return invalid("scanner.watchlist[%d].base_price must be positive", i)
		}
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return invalid("redis.addr is required when redis is enabled")
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		return invalid("nats.url is required when nats is enabled")
	}
	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return invalid("telegram.token is required when telegram is enabled")
	}

	return nil
}
