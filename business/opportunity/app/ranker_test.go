package app

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/product-scout/business/opportunity/domain"
	profitApp "github.com/fd1az/product-scout/business/profit/app"
	profitDomain "github.com/fd1az/product-scout/business/profit/domain"
	riskApp "github.com/fd1az/product-scout/business/risk/app"
	trendDomain "github.com/fd1az/product-scout/business/trend/domain"
	"github.com/fd1az/product-scout/internal/apperror"
)

func julyClock() time.Time {
	return time.Date(2025, time.July, 15, 12, 0, 0, 0, time.UTC)
}

func clockAt(m time.Month) func() time.Time {
	return func() time.Time { return time.Date(2025, m, 15, 12, 0, 0, 0, time.UTC) }
}

func newTestRanker(t *testing.T, now func() time.Time, opts ...RankerOption) *Ranker {
	t.Helper()

	estimator, err := profitApp.NewEstimator(profitDomain.DefaultFeeSchedule(), nil, profitApp.WithClock(now))
	if err != nil {
		t.Fatalf("NewEstimator: %v", err)
	}
	assessor, err := riskApp.NewAssessor(riskApp.DefaultConfig(), nil, riskApp.WithClock(now))
	if err != nil {
		t.Fatalf("NewAssessor: %v", err)
	}

	opts = append([]RankerOption{WithRankerClock(now)}, opts...)
	r, err := NewRanker(estimator, assessor, nil, RankerConfig{Gate: domain.DefaultGate(), Workers: 4}, opts...)
	if err != nil {
		t.Fatalf("NewRanker: %v", err)
	}
	return r
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func earbuds(name string) domain.Candidate {
	return domain.Candidate{
		ProductName: name,
		Profile: trendDomain.TrendProfile{
			Keyword:          "wireless earbuds",
			Category:         "tech",
			TrendScore:       85,
			GrowthRate:       30,
			SearchVolumeTier: trendDomain.TierHigh,
			CompetitionTier:  trendDomain.TierHigh,
			SeasonalTags:     []string{},
			HasTrendData:     true,
		},
		BasePrice: d("20"),
	}
}

// Cheap resale override: net profit is negative.
func thinMargin() domain.Candidate {
	c := earbuds("thin margin earbuds")
	c.ResalePrice = ptr("25")
	return c
}

// Passes the margin gate but scores high risk.
func riskyBundle() domain.Candidate {
	return domain.Candidate{
		ProductName: "risky bundle",
		Profile: trendDomain.TrendProfile{
			Keyword:          "lithium battery phone case",
			Category:         "tech",
			TrendScore:       10,
			GrowthRate:       -30,
			SearchVolumeTier: trendDomain.TierLow,
			CompetitionTier:  trendDomain.TierHigh,
			CompetitionHint:  trendDomain.TierHigh,
			SeasonalTags:     []string{},
			HasTrendData:     true,
		},
		BasePrice:   d("3"),
		ResalePrice: ptr("30"),
	}
}

func names(opps []domain.Opportunity) []string {
	out := make([]string, len(opps))
	for i := range opps {
		out[i] = opps[i].ProductName()
	}
	return out
}

func TestRank_Earbuds(t *testing.T) {
	r := newTestRanker(t, julyClock)

	got, err := r.Rank(context.Background(), []domain.Candidate{earbuds("Wireless Earbuds")})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ranked %d, want 1", len(got))
	}

	o := got[0]
	if o.Profit.MarginPct != 71.55 {
		t.Errorf("margin = %v, want 71.55", o.Profit.MarginPct)
	}
	if o.Risk.OverallRiskScore != 38 || o.Risk.RiskLevel != trendDomain.TierMedium {
		t.Errorf("risk = %v %s, want 38 medium", o.Risk.OverallRiskScore, o.Risk.RiskLevel)
	}
	if o.Confidence != 75.8 {
		t.Errorf("confidence = %v, want 75.8", o.Confidence)
	}
	if !slices.Equal(o.ViralSignals, []string{domain.SignalTrending}) {
		t.Errorf("signals = %v, want [trending]", o.ViralSignals)
	}
	if !o.EvaluatedAt.Equal(julyClock()) {
		t.Errorf("evaluated at = %v", o.EvaluatedAt)
	}
	if o.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("expected an opportunity id")
	}
}

func TestRank_GatesAndKeepsInputOrderOnTies(t *testing.T) {
	r := newTestRanker(t, julyClock)

	input := []domain.Candidate{
		thinMargin(),
		earbuds("earbuds A"),
		riskyBundle(),
		earbuds("earbuds B"),
		earbuds("earbuds C"),
	}

	got, err := r.Rank(context.Background(), input)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	want := []string{"earbuds A", "earbuds B", "earbuds C"}
	if !slices.Equal(names(got), want) {
		t.Errorf("ranked = %v, want %v", names(got), want)
	}
}

func TestRank_SortedAndGated(t *testing.T) {
	r := newTestRanker(t, clockAt(time.December))

	xmas := domain.Candidate{
		ProductName: "christmas ornament set",
		Profile: trendDomain.TrendProfile{
			Keyword:          "christmas ornament set",
			Category:         "general",
			TrendScore:       92,
			GrowthRate:       65,
			SearchVolumeTier: trendDomain.TierHigh,
			CompetitionTier:  trendDomain.TierLow,
			SeasonalTags:     []string{"christmas"},
			SocialMentions:   25_000,
			HasTrendData:     true,
		},
		BasePrice: d("8"),
	}
	mat := domain.Candidate{
		Profile: trendDomain.TrendProfile{
			Keyword:          "yoga mat",
			Category:         "general",
			TrendScore:       60,
			GrowthRate:       5,
			SearchVolumeTier: trendDomain.TierMedium,
			CompetitionTier:  trendDomain.TierMedium,
			SeasonalTags:     []string{"fitness"},
			HasTrendData:     true,
		},
		BasePrice:   d("15"),
		ResalePrice: ptr("45"),
	}

	input := []domain.Candidate{mat, thinMargin(), earbuds("earbuds"), riskyBundle(), xmas}
	got, err := r.Rank(context.Background(), input)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected ranked opportunities")
	}

	gate := r.Gate()
	for i := range got {
		if ok, reason := gate.Check(&got[i]); !ok {
			t.Errorf("%s in output but fails gate (%s)", got[i].ProductName(), reason)
		}
		if i > 0 && got[i-1].Confidence < got[i].Confidence {
			t.Errorf("not sorted at %d: %v < %v", i, got[i-1].Confidence, got[i].Confidence)
		}
	}

	// Dropping a disqualified candidate leaves the relative order unchanged.
	without := slices.Delete(slices.Clone(input), 3, 4)
	again, err := r.Rank(context.Background(), without)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if !slices.Equal(names(got), names(again)) {
		t.Errorf("order changed: %v vs %v", names(got), names(again))
	}
}

func TestRank_InvalidCandidateFailsBatch(t *testing.T) {
	r := newTestRanker(t, julyClock)

	bad := earbuds("free earbuds")
	bad.BasePrice = decimal.Zero

	got, err := r.Rank(context.Background(), []domain.Candidate{earbuds("ok"), bad})
	if err == nil {
		t.Fatal("expected error")
	}
	if got != nil {
		t.Errorf("expected no partial output, got %d", len(got))
	}
	if code := apperror.GetCode(err); code != apperror.CodeInvalidCandidate {
		t.Errorf("code = %s, want %s", code, apperror.CodeInvalidCandidate)
	}
	if !apperror.IsInvalidInput(err) {
		t.Error("expected invalid input classification")
	}
}

func TestRank_MissingNameFallsBackToKeyword(t *testing.T) {
	r := newTestRanker(t, julyClock)

	c := earbuds("")
	got, err := r.Rank(context.Background(), []domain.Candidate{c})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if got[0].ProductName() != "wireless earbuds" {
		t.Errorf("product name = %q", got[0].ProductName())
	}

	c.Profile.Keyword = "  "
	if _, err := r.Rank(context.Background(), []domain.Candidate{c}); apperror.GetCode(err) != apperror.CodeInvalidCandidate {
		t.Errorf("expected invalid candidate, got %v", err)
	}
}

func TestRank_Cancelled(t *testing.T) {
	r := newTestRanker(t, julyClock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Rank(ctx, []domain.Candidate{earbuds("a"), earbuds("b")})
	if code := apperror.GetCode(err); code != apperror.CodeEvaluationCancelled {
		t.Errorf("code = %s, want %s (err %v)", code, apperror.CodeEvaluationCancelled, err)
	}
}

func TestRank_Empty(t *testing.T) {
	r := newTestRanker(t, julyClock)

	got, err := r.Rank(context.Background(), nil)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestRank_SeededJitterIgnoresScheduling(t *testing.T) {
	input := make([]domain.Candidate, 0, 12)
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		input = append(input, earbuds("earbuds "+n))
	}

	resale := func(workers int) map[string]string {
		r := newTestRanker(t, julyClock, WithJitterFactory(profitApp.SeededJitterFactory(42)))
		r.workers = workers

		got, err := r.Rank(context.Background(), input)
		if err != nil {
			t.Fatalf("Rank: %v", err)
		}
		out := make(map[string]string, len(got))
		for _, o := range got {
			out[o.ProductName()] = o.Profit.ResalePrice.String()
		}
		return out
	}

	serial, parallel := resale(1), resale(8)
	if len(serial) != len(parallel) {
		t.Fatalf("ranked %d vs %d", len(serial), len(parallel))
	}
	varied := false
	for name, price := range serial {
		if parallel[name] != price {
			t.Errorf("%s: resale %s serial vs %s parallel", name, price, parallel[name])
		}
		if price != "48" {
			varied = true
		}
	}
	if !varied {
		t.Error("expected jitter to move at least one resale price")
	}
}

func TestEvaluate_DoesNotGate(t *testing.T) {
	r := newTestRanker(t, julyClock)

	got, err := r.Evaluate(context.Background(), riskyBundle())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got.Risk.RiskLevel != trendDomain.TierHigh {
		t.Errorf("level = %s, want high", got.Risk.RiskLevel)
	}
	if ok, reason := r.Gate().Check(got); ok || reason != domain.RejectRisk {
		t.Errorf("Check() = (%v, %q), want risk rejection", ok, reason)
	}
}

func TestSignals(t *testing.T) {
	r := newTestRanker(t, julyClock)

	p := trendDomain.TrendProfile{
		Keyword:        "christmas tree lights",
		TrendScore:     90,
		GrowthRate:     60,
		SocialMentions: 20_000,
	}

	tests := []struct {
		name  string
		month time.Month
		want  []string
	}{
		{"december peak", time.December, []string{domain.SignalBreakoutGrowth, domain.SignalTrending, domain.SignalSocialBuzz, domain.SignalInSeason}},
		{"october shoulder", time.October, []string{domain.SignalBreakoutGrowth, domain.SignalTrending, domain.SignalSocialBuzz}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.signals(p, tt.month); !slices.Equal(got, tt.want) {
				t.Errorf("signals = %v, want %v", got, tt.want)
			}
		})
	}

	quiet := trendDomain.TrendProfile{Keyword: "garden gnome", TrendScore: 79.9, GrowthRate: 50, SocialMentions: 9_999}
	if got := r.signals(quiet, time.July); len(got) != 0 {
		t.Errorf("signals = %v, want none", got)
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		profit, risk, want float64
	}{
		{85, 38, 75.8},
		{95, 0, 97},
		{10, 100, 6},
		{50, 50, 50},
		{45, 74, 37.4},
	}
	for _, tt := range tests {
		if got := Confidence(tt.profit, tt.risk); got != tt.want {
			t.Errorf("Confidence(%v, %v) = %v, want %v", tt.profit, tt.risk, got, tt.want)
		}
	}
}

func TestNewRanker_Validation(t *testing.T) {
	estimator, _ := profitApp.NewEstimator(profitDomain.DefaultFeeSchedule(), nil)
	assessor, _ := riskApp.NewAssessor(riskApp.DefaultConfig(), nil)

	if _, err := NewRanker(nil, assessor, nil, RankerConfig{}); err == nil {
		t.Error("expected error without estimator")
	}
	if _, err := NewRanker(estimator, assessor, nil, RankerConfig{Gate: domain.Gate{MinMarginPct: -1}}); err == nil {
		t.Error("expected error for negative margin gate")
	}

	r, err := NewRanker(estimator, assessor, nil, RankerConfig{Gate: domain.DefaultGate()})
	if err != nil {
		t.Fatalf("NewRanker: %v", err)
	}
	if r.workers <= 0 {
		t.Errorf("workers = %d, want runtime default", r.workers)
	}
}

func BenchmarkRank(b *testing.B) {
	estimator, _ := profitApp.NewEstimator(profitDomain.DefaultFeeSchedule(), nil)
	assessor, _ := riskApp.NewAssessor(riskApp.DefaultConfig(), nil)
	r, _ := NewRanker(estimator, assessor, nil, RankerConfig{Gate: domain.DefaultGate()})

	input := make([]domain.Candidate, 50)
	for i := range input {
		input[i] = earbuds("earbuds")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.Rank(context.Background(), input)
	}
}
