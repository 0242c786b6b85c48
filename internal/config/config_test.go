package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/product-scout/internal/apperror"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scout.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.App.Name != "product-scout" {
		t.Errorf("app.name = %q", cfg.App.Name)
	}
	if !cfg.Fees.ShippingDecimal().Add(cfg.Fees.PackagingDecimal()).Equal(decimal.RequireFromString("4")) {
		t.Errorf("flat costs = %s + %s", cfg.Fees.ShippingDecimal(), cfg.Fees.PackagingDecimal())
	}
	if cfg.Risk.Weights.Volatility != 0.25 || cfg.Risk.LowMax != 30 || cfg.Risk.MediumMax != 60 {
		t.Errorf("risk defaults = %+v", cfg.Risk)
	}
	if cfg.Risk.Reporting.Regulatory != 20 {
		t.Errorf("regulatory reporting threshold = %v", cfg.Risk.Reporting.Regulatory)
	}
	if cfg.Ranker.MinMarginPct != 40 || cfg.Ranker.MaxRiskLevel != "medium" {
		t.Errorf("ranker defaults = %+v", cfg.Ranker)
	}
	if cfg.Trends.CacheTTL != 15*time.Minute {
		t.Errorf("trends.cache_ttl = %v", cfg.Trends.CacheTTL)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
ranker:
  min_margin_pct: 35
  max_risk_level: high
scanner:
  interval: 1m
  watchlist:
    - keyword: wireless earbuds
      base_price: 20
    - keyword: christmas ornament
      product_name: Glass Ornament Set
      base_price: 3
      resale_price: 12.5
`)
	t.Setenv("SCOUT_MIN_MARGIN_PCT", "55")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Ranker.MinMarginPct != 55 {
		t.Errorf("env should override file, got %v", cfg.Ranker.MinMarginPct)
	}
	if cfg.Ranker.MaxRiskLevel != "high" {
		t.Errorf("max_risk_level = %q", cfg.Ranker.MaxRiskLevel)
	}
	if len(cfg.Scanner.Watchlist) != 2 {
		t.Fatalf("watchlist len = %d", len(cfg.Scanner.Watchlist))
	}

	first, second := cfg.Scanner.Watchlist[0], cfg.Scanner.Watchlist[1]
	if first.ResalePriceDecimal() != nil {
		t.Error("unset resale price must be nil")
	}
	if !first.BasePriceDecimal().Equal(decimal.RequireFromString("20")) {
		t.Errorf("base price = %s", first.BasePriceDecimal())
	}
	if r := second.ResalePriceDecimal(); r == nil || !r.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("resale price = %v", r)
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
		name   string
		mutate func(c *Config)
	}{
		{"weights do not sum to one", func(c *Config) { c.Risk.Weights.Volatility = 0.5 }},
		{"thresholds out of order", func(c *Config) { c.Risk.LowMax = 70 }},
		{"negative fee", func(c *Config) { c.Fees.PaymentPct = -0.01 }},
		{"negative shipping", func(c *Config) { c.Fees.Shipping = -1 }},
		{"unknown risk level", func(c *Config) { c.Ranker.MaxRiskLevel = "extreme" }},
		{"watch item without keyword", func(c *Config) {
			c.Scanner.Watchlist = []WatchItem{{BasePrice: 10}}
		}},
		{"watch item with zero price", func(c *Config) {
			c.Scanner.Watchlist = []WatchItem{{Keyword: "yoga mat"}}
		}},
		{"telegram without token", func(c *Config) { c.Telegram.Enabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if apperror.GetCode(err) != apperror.CodeConfigurationError {
				t.Errorf("expected CodeConfigurationError, got %v", err)
			}
		})
	}
}
