package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/fd1az/product-scout/business/opportunity/domain"
	profitDomain "github.com/fd1az/product-scout/business/profit/domain"
	riskDomain "github.com/fd1az/product-scout/business/risk/domain"
	trendDomain "github.com/fd1az/product-scout/business/trend/domain"
)

func opportunity(name, category string, confidence float64, level trendDomain.Tier) domain.Opportunity {
	return domain.Opportunity{
		Profile: trendDomain.TrendProfile{Keyword: strings.ToLower(name), Category: category},
		Profit: profitDomain.ProfitAnalysis{
			ProductName: name,
			BasePrice:   decimal.RequireFromString("20"),
			ResalePrice: decimal.RequireFromString("48"),
			NetProfit:   decimal.RequireFromString("20.02"),
			MarginPct:   71.55,
		},
		Risk:       riskDomain.RiskAssessment{RiskLevel: level, OverallRiskScore: 38},
		Confidence: confidence,
	}
}

func snapshot(scan int64, opps ...domain.Opportunity) *domain.Snapshot {
	return &domain.Snapshot{
		Scan:          scan,
		Evaluated:     len(opps) + 1,
		Opportunities: opps,
		Summary:       domain.Summarize(opps),
		Sources:       []domain.SourceStatus{{Name: "trend feed", Connected: true}},
	}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestRows(t *testing.T) {
	snap := snapshot(1,
		opportunity("Wireless Earbuds", "tech", 75.8, trendDomain.TierMedium),
		opportunity("Yoga Mat", "fitness", 62.4, trendDomain.TierLow),
	)

	rows := Rows(snap)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Rank != 1 || rows[0].Name != "Wireless Earbuds" || rows[0].Buy != "$20.00" || rows[0].Sell != "$48.00" {
		t.Errorf("first row = %+v", rows[0])
	}
	if rows[1].Rank != 2 || rows[1].RiskLevel != "low" {
		t.Errorf("second row = %+v", rows[1])
	}
	if Rows(nil) != nil {
		t.Error("nil snapshot should map to nil rows")
	}
}

func TestStatsFor(t *testing.T) {
	snap := snapshot(3,
		opportunity("A", "tech", 80, trendDomain.TierMedium),
		opportunity("B", "tech", 60, trendDomain.TierHigh),
	)

	stats := StatsFor(snap)
	if stats.Scans != 3 || stats.Evaluated != 3 || stats.Opportunities != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Medium != 1 || stats.High != 1 || stats.Low != 0 {
		t.Errorf("histogram = %d/%d/%d", stats.Low, stats.Medium, stats.High)
	}
	if stats.MeanConfidence != 70 || stats.TopCategory != "tech" {
		t.Errorf("means = %+v", stats)
	}
}

func TestDetailFor(t *testing.T) {
	o := opportunity("Wireless Earbuds", "tech", 75.8, trendDomain.TierMedium)
	o.Profit.Costs.Shipping = decimal.RequireFromString("4.50")

	d := DetailFor(&o)
	if d.Name != "Wireless Earbuds" || d.NetProfit != "$20.02" || !d.Profitable {
		t.Errorf("detail = %+v", d)
	}
	if len(d.Costs) != 6 || d.Costs[2].Label != "Shipping" || d.Costs[2].Amount != "$4.50" {
		t.Errorf("costs = %+v", d.Costs)
	}
}

func TestModel_WelcomeSkip(t *testing.T) {
	m := New()
	if m.phase != PhaseWelcome {
		t.Fatalf("expected welcome phase, got %s", m.phase)
	}

	m = update(t, m, runeKey("x"))
	if m.phase != PhaseStartup {
		t.Errorf("any key should skip the welcome screen, phase = %s", m.phase)
	}
}

func TestModel_ScanUpdatesDashboard(t *testing.T) {
	m := New()
	m.phase = PhaseStartup

	snap := snapshot(1,
		opportunity("Wireless Earbuds", "tech", 75.8, trendDomain.TierMedium),
		opportunity("Yoga Mat", "fitness", 62.4, trendDomain.TierLow),
	)
	m = update(t, m, ScanMsg{Snapshot: snap})

	if !m.startupComplete {
		t.Error("first scan should complete startup")
	}
	if m.opportunities.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", m.opportunities.Len())
	}
	if got := m.summary.Stats().Opportunities; got != 2 {
		t.Errorf("summary opportunities = %d", got)
	}
	if len(m.status.Connections()) != 1 || !m.status.Connections()[0].Connected {
		t.Errorf("sources = %+v", m.status.Connections())
	}

	view := m.View()
	for _, want := range []string{"Product Scout", "Scan: #1", "Wireless Earbuds", "WIRELESS EARBUDS"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_CursorMovesDetail(t *testing.T) {
	m := New()
	m.phase = PhaseDashboard
	m = update(t, m, ScanMsg{Snapshot: snapshot(1,
		opportunity("Wireless Earbuds", "tech", 75.8, trendDomain.TierMedium),
		opportunity("Yoga Mat", "fitness", 62.4, trendDomain.TierLow),
	)})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.opportunities.Cursor() != 1 {
		t.Fatalf("cursor = %d", m.opportunities.Cursor())
	}
	if !strings.Contains(m.detail.View(), "YOGA MAT") {
		t.Error("detail should follow the cursor")
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.opportunities.Cursor() != 1 {
		t.Errorf("cursor should stop at the last row, got %d", m.opportunities.Cursor())
	}

	m = update(t, m, runeKey("k"))
	if m.opportunities.Cursor() != 0 {
		t.Errorf("cursor = %d", m.opportunities.Cursor())
	}
}

func TestModel_PauseHoldsSnapshot(t *testing.T) {
	m := New()
	m.phase = PhaseDashboard
	m = update(t, m, ScanMsg{Snapshot: snapshot(1, opportunity("A", "tech", 80, trendDomain.TierLow))})

	m = update(t, m, runeKey("p"))
	if !m.paused {
		t.Fatal("expected paused")
	}

	m = update(t, m, ScanMsg{Snapshot: snapshot(2,
		opportunity("B", "tech", 90, trendDomain.TierLow),
		opportunity("C", "tech", 85, trendDomain.TierLow),
	)})
	if m.snapshot.Scan != 1 || m.opportunities.Len() != 1 {
		t.Fatalf("paused dashboard should keep scan 1, got scan %d with %d rows", m.snapshot.Scan, m.opportunities.Len())
	}

	m = update(t, m, runeKey("p"))
	if m.snapshot.Scan != 2 || m.opportunities.Len() != 2 {
		t.Errorf("resume should apply the held scan, got scan %d with %d rows", m.snapshot.Scan, m.opportunities.Len())
	}
}

func TestModel_ErrorsKeepLastThree(t *testing.T) {
	m := New()
	m.phase = PhaseDashboard

	for i := 0; i < 5; i++ {
		m = update(t, m, ErrorMsg{Error: errors.New("trend source down")})
	}
	if len(m.errors) != 3 {
		t.Errorf("expected 3 errors, got %d", len(m.errors))
	}
	if m.summary.Stats().Errors != 5 {
		t.Errorf("error count = %d", m.summary.Stats().Errors)
	}

	m = update(t, m, runeKey("e"))
	if len(m.errors) != 0 {
		t.Errorf("expected errors cleared, got %d", len(m.errors))
	}
}

func TestModel_StartupCompletesWhenAllStepsReady(t *testing.T) {
	m := New()
	m.phase = PhaseStartup

	for _, step := range startupOrder[:3] {
		m = update(t, m, StartupMsg{Step: step, Status: "done"})
	}
	if m.startupComplete {
		t.Fatal("startup should wait for every step")
	}
	m = update(t, m, StartupMsg{Step: "notifiers", Status: "done"})
	if !m.startupComplete {
		t.Error("expected startup complete")
	}
}

func TestModel_Quit(t *testing.T) {
	m := New()
	next, cmd := m.Update(runeKey("q"))
	if !next.(Model).quitting || cmd == nil {
		t.Error("q should quit")
	}
}
