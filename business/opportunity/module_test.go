package opportunity

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/product-scout/business/opportunity/domain"
	trendDomain "github.com/fd1az/product-scout/business/trend/domain"
	"github.com/fd1az/product-scout/internal/config"
)

func TestRankerConfig(t *testing.T) {
	tests := []struct {
		level string
		want  trendDomain.Tier
	}{
		{"low", trendDomain.TierLow},
		{"HIGH", trendDomain.TierHigh},
		{" medium ", trendDomain.TierMedium},
		{"", trendDomain.TierMedium},
	}

	for _, tt := range tests {
		got := RankerConfig(config.RankerConfig{MinMarginPct: 35, MaxRiskLevel: tt.level, Workers: 3})
		if got.Gate.MaxRiskLevel != tt.want {
			t.Errorf("level %q: got %s, want %s", tt.level, got.Gate.MaxRiskLevel, tt.want)
		}
		if got.Gate.MinMarginPct != 35 || got.Workers != 3 {
			t.Errorf("unexpected config %+v", got)
		}
	}
}

func TestWatchlist(t *testing.T) {
	items := Watchlist([]config.WatchItem{
		{Keyword: "wireless earbuds", ProductName: "Wireless Earbuds", BasePrice: 20},
		{Keyword: "yoga mat", Category: "fitness", BasePrice: 15, ResalePrice: 45},
	})

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if !items[0].BasePrice.Equal(decimal.RequireFromString("20")) || items[0].ResalePrice != nil {
		t.Errorf("first item = %+v", items[0])
	}
	if items[1].ResalePrice == nil || !items[1].ResalePrice.Equal(decimal.RequireFromString("45")) {
		t.Errorf("second item resale = %v", items[1].ResalePrice)
	}
	if items[1].Category != "fitness" {
		t.Errorf("category = %q", items[1].Category)
	}
}

func TestScanFresh(t *testing.T) {
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	ok, msg := scanFresh(nil, time.Minute, now)
	if !ok || msg != "waiting for first scan" {
		t.Errorf("nil snapshot: %v %q", ok, msg)
	}

	fresh := &domain.Snapshot{Scan: 4, ScannedAt: now.Add(-2 * time.Minute)}
	if ok, _ := scanFresh(fresh, time.Minute, now); !ok {
		t.Error("scan within three intervals should be healthy")
	}

	stale := &domain.Snapshot{Scan: 4, ScannedAt: now.Add(-4 * time.Minute)}
	ok, msg = scanFresh(stale, time.Minute, now)
	if ok || !strings.Contains(msg, "#4 is 4m0s old") {
		t.Errorf("stale snapshot: %v %q", ok, msg)
	}
}
