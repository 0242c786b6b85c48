package domain

import (
	"testing"
	"time"

	trendDomain "github.com/fd1az/product-scout/business/trend/domain"
)

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)

	if s.Count != 0 || s.MeanMarginPct != 0 || s.MeanConfidence != 0 || s.TopCategory != "" {
		t.Errorf("unexpected summary: %+v", s)
	}
	for _, tier := range []trendDomain.Tier{trendDomain.TierLow, trendDomain.TierMedium, trendDomain.TierHigh} {
		n, ok := s.RiskHistogram[tier]
		if !ok || n != 0 {
			t.Errorf("histogram[%s] = %d (present %v), want 0", tier, n, ok)
		}
	}
}

func TestSummarize(t *testing.T) {
	opps := []Opportunity{
		opp("tech", 70, 80, trendDomain.TierMedium),
		opp("fitness", 50, 60, trendDomain.TierLow),
		opp("tech", 60, 70, trendDomain.TierLow),
		opp("fitness", 45.5, 65, trendDomain.TierMedium),
	}

	s := Summarize(opps)

	if s.Count != 4 {
		t.Errorf("count = %d, want 4", s.Count)
	}
	if s.MeanMarginPct != 56.38 {
		t.Errorf("mean margin = %v, want 56.38", s.MeanMarginPct)
	}
	if s.MeanConfidence != 68.75 {
		t.Errorf("mean confidence = %v, want 68.75", s.MeanConfidence)
	}
	want := map[trendDomain.Tier]int{trendDomain.TierLow: 2, trendDomain.TierMedium: 2, trendDomain.TierHigh: 0}
	for tier, n := range want {
		if s.RiskHistogram[tier] != n {
			t.Errorf("histogram[%s] = %d, want %d", tier, s.RiskHistogram[tier], n)
		}
	}
	// tech and fitness tie at two; tech was seen first.
	if s.TopCategory != "tech" {
		t.Errorf("top category = %q, want tech", s.TopCategory)
	}
}

func TestSummarize_TopCategoryMostFrequent(t *testing.T) {
	opps := []Opportunity{
		opp("tech", 50, 50, trendDomain.TierLow),
		opp("home", 50, 50, trendDomain.TierLow),
		opp("home", 50, 50, trendDomain.TierLow),
	}
	if got := Summarize(opps).TopCategory; got != "home" {
		t.Errorf("top category = %q, want home", got)
	}
}

func TestSnapshot_Top(t *testing.T) {
	snap := &Snapshot{
		ScannedAt: time.Now(),
		Opportunities: []Opportunity{
			opp("a", 50, 90, trendDomain.TierLow),
			opp("b", 50, 80, trendDomain.TierLow),
			opp("c", 50, 70, trendDomain.TierLow),
		},
	}

	tests := []struct {
		n    int
		want int
	}{
		{0, 3},
		{-1, 3},
		{2, 2},
		{5, 3},
	}
	for _, tt := range tests {
		if got := len(snap.Top(tt.n)); got != tt.want {
			t.Errorf("Top(%d) returned %d, want %d", tt.n, got, tt.want)
		}
	}

	var nilSnap *Snapshot
	if nilSnap.Top(3) != nil {
		t.Error("nil snapshot should return nil")
	}
}
