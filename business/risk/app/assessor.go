// Package app contains application services for the risk context.
package app

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/product-scout/business/risk/domain"
	trendDomain "github.com/fd1az/product-scout/business/trend/domain"
	"github.com/fd1az/product-scout/internal/apperror"
	"github.com/fd1az/product-scout/internal/money"
)

var (
	one           = decimal.NewFromInt(1)
	ten           = decimal.NewFromInt(10)
	fifty         = decimal.NewFromInt(50)
	stopLossBase  = decimal.RequireFromString("0.10")
	intervalBase  = decimal.RequireFromString("0.05")
	thousand      = decimal.NewFromInt(1000)
	twoThousand   = decimal.NewFromInt(2000)
	supplierFloor = decimal.NewFromInt(5)
	supplierLow   = decimal.NewFromInt(10)
	supplierHigh  = decimal.NewFromInt(100)
	supplierCeil  = decimal.NewFromInt(200)
)

// Config holds the scoring parameters.
type Config struct {
	Weights    domain.Weights
	Thresholds domain.Thresholds
	Reporting  domain.FactorScores
}

// DefaultConfig returns the default weights, thresholds and reporting levels.
func DefaultConfig() Config {
	return Config{
		Weights:    domain.DefaultWeights(),
		Thresholds: domain.DefaultThresholds(),
		Reporting:  domain.DefaultReporting(),
	}
}

// Option configures an Assessor.
type Option func(*Assessor)

// WithClock sets the clock used to decide whether a season is current.
func WithClock(now func() time.Time) Option {
	return func(a *Assessor) {
		if now != nil {
			a.now = now
		}
	}
}

// Assessor scores six risk factors and combines them into an overall level.
type Assessor struct {
	cfg     Config
	catalog *trendDomain.Catalog
	now     func() time.Time
}

// NewAssessor creates an Assessor. A nil catalog uses the defaults.
func NewAssessor(cfg Config, catalog *trendDomain.Catalog, opts ...Option) (*Assessor, error) {
	if err := domain.ValidateWeights(cfg.Weights); err != nil {
		return nil, err
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil {
		catalog = trendDomain.DefaultCatalog()
	}

	a := &Assessor{cfg: cfg, catalog: catalog, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Thresholds returns the level thresholds in use.
func (a *Assessor) Thresholds() domain.Thresholds {
	return a.cfg.Thresholds
}

// Assess scores productName bought at basePrice and sold at resalePrice.
func (a *Assessor) Assess(
	productName string,
	basePrice, resalePrice decimal.Decimal,
	profile trendDomain.TrendProfile,
) (*domain.RiskAssessment, error) {
	if strings.TrimSpace(productName) == "" {
		return nil, apperror.New(apperror.CodeMissingProductName,
			apperror.WithContext("product name is required"))
	}
	if !basePrice.IsPositive() {
		return nil, apperror.New(apperror.CodeInvalidPrice,
			apperror.WithContext("base price must be positive"))
	}
	if !resalePrice.IsPositive() {
		return nil, apperror.New(apperror.CodeInvalidPrice,
			apperror.WithContext("resale price must be positive"))
	}

	month := a.now().Month()
	seasons := a.catalog.MatchSeasons(profile.Keyword)
	inSeason := currentSeason(seasons, month)

	factors := domain.FactorScores{
		Volatility:  volatility(basePrice, resalePrice),
		Competition: a.competition(profile),
		Demand:      demand(profile),
		Seasonality: seasonality(seasons, inSeason),
		Supplier:    supplier(basePrice),
		Regulatory:  a.regulatory(profile.Keyword),
	}

	score := clamp(math.Round(factors.Weighted(a.cfg.Weights)*100)/100, 0, 100)
	level := a.cfg.Thresholds.Level(score)

	findings, mitigations := a.explain(factors, level, basePrice, resalePrice, seasons, inSeason)

	s := decimal.NewFromFloat(score)
	return &domain.RiskAssessment{
		ProductName:        strings.TrimSpace(productName),
		OverallRiskScore:   score,
		RiskLevel:          level,
		Factors:            factors,
		RiskFactors:        findings,
		Mitigations:        mitigations,
		MaxInvestment:      maxInvestment(basePrice, s),
		StopLossPrice:      money.Round(resalePrice.Mul(one.Sub(stopLossBase.Add(s.Div(thousand))))),
		ConfidenceInterval: interval(resalePrice, s),
	}, nil
}

func volatility(base, resale decimal.Decimal) float64 {
	ratio := money.Float(resale.Sub(base).Abs().Div(base))
	return math.Min(round2(ratio*50), 100)
}

func (a *Assessor) competition(p trendDomain.TrendProfile) float64 {
	score := 30.0
	switch {
	case trendDomain.ContainsAny(p.Keyword, a.catalog.Competition.High):
		score += 40
	case trendDomain.ContainsAny(p.Keyword, a.catalog.Competition.Medium):
		score += 20
	}
	switch p.CompetitionHint {
	case trendDomain.TierMedium:
		score += 10
	case trendDomain.TierHigh:
		score += 25
	}
	return math.Min(score, 100)
}

func demand(p trendDomain.TrendProfile) float64 {
	if !p.HasTrendData {
		return 50
	}
	score := 100 - p.TrendScore
	switch {
	case p.GrowthRate < -20:
		score += 30
	case p.GrowthRate < 0:
		score += 15
	}
	if p.GrowthRate > 50 {
		score += 10
	}
	return clamp(score, 0, 100)
}

func seasonality(seasons []trendDomain.Season, inSeason *trendDomain.Season) float64 {
	switch {
	case inSeason != nil:
		return 15
	case len(seasons) > 0:
		return 60
	default:
		return 10
	}
}

func supplier(base decimal.Decimal) float64 {
	score := 15.0
	switch {
	case base.LessThan(supplierFloor):
		score += 40
	case base.LessThan(supplierLow):
		score += 20
	}
	switch {
	case base.GreaterThan(supplierCeil):
		score += 25
	case base.GreaterThan(supplierHigh):
		score += 10
	}
	return score
}

func (a *Assessor) regulatory(keyword string) float64 {
	score := 5.0
	if trendDomain.ContainsAny(keyword, a.catalog.Regulatory.Restricted) {
		score += 25
	}
	if trendDomain.ContainsAny(keyword, a.catalog.Regulatory.Secondary) {
		score += 15
	}
	return math.Min(score, 100)
}

// currentSeason returns the first matched season at peak or shoulder this month.
func currentSeason(seasons []trendDomain.Season, month time.Month) *trendDomain.Season {
	for i := range seasons {
		if seasons[i].PhaseAt(month) != trendDomain.PhaseOff {
			return &seasons[i]
		}
	}
	return nil
}

func maxInvestment(base, score decimal.Decimal) decimal.Decimal {
	raw := base.Mul(ten).Mul(one.Sub(score.Div(money.Hundred)))
	return money.Round(money.Clamp(raw, base, base.Mul(fifty)))
}

func interval(resale, score decimal.Decimal) domain.ConfidenceInterval {
	spread := intervalBase.Add(score.Div(twoThousand))
	return domain.ConfidenceInterval{
		Low:  money.Round(resale.Mul(one.Sub(spread))),
		High: money.Round(resale.Mul(one.Add(spread))),
	}
}

func (a *Assessor) explain(
	f domain.FactorScores,
	level trendDomain.Tier,
	base, resale decimal.Decimal,
	seasons []trendDomain.Season,
	inSeason *trendDomain.Season,
) ([]string, []string) {
	r := a.cfg.Reporting
	findings := []string{}
	m := newMitigations()

	if f.Volatility > r.Volatility {
		pct := money.Float(resale.Sub(base).Abs().Div(base)) * 100
		findings = append(findings, fmt.Sprintf("High price volatility: resale is %.0f%% away from supplier price", pct))
		m.add("Test pricing with a small batch before scaling")
	}
	if f.Competition > r.Competition {
		findings = append(findings, "Crowded market: many sellers compete for this keyword")
		m.add("Differentiate with bundles, custom branding or better listings")
	}
	if f.Demand > r.Demand {
		findings = append(findings, "Weak or unstable demand signal")
		m.add("Validate demand with pre-orders or a small ad test before stocking")
	}
	if f.Seasonality > r.Seasonality {
		if inSeason == nil && len(seasons) > 0 {
			findings = append(findings, fmt.Sprintf("Out of season: %s demand peaks in other months", seasons[0].Name))
		} else {
			findings = append(findings, "Seasonal demand swings")
		}
		m.add("Time inventory purchases ahead of the peak season")
	}
	if f.Supplier > r.Supplier {
		if base.LessThan(supplierLow) {
			findings = append(findings, fmt.Sprintf("Very low supplier price %s suggests quality or reliability issues", money.Format(base)))
		} else {
			findings = append(findings, fmt.Sprintf("High supplier price %s ties up capital per unit", money.Format(base)))
		}
		m.add("Order samples and verify supplier ratings first")
	}
	if f.Regulatory > r.Regulatory {
		findings = append(findings, "Regulated product category: certifications or approvals may be required")
		m.add("Confirm certifications and marketplace category approval")
	}

	switch level {
	case trendDomain.TierLow:
		m.add("Scale gradually while monitoring sell-through")
	case trendDomain.TierMedium:
		m.add("Start with a limited test order")
	case trendDomain.TierHigh:
		m.add("Cap the initial investment and enforce the stop-loss price")
	}

	return findings, m.list
}

type mitigations struct {
	seen map[string]struct{}
	list []string
}

func newMitigations() *mitigations {
	return &mitigations{seen: make(map[string]struct{}), list: []string{}}
}

func (m *mitigations) add(s string) {
	if _, ok := m.seen[s]; ok {
		return
	}
	m.seen[s] = struct{}{}
	m.list = append(m.list, s)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
