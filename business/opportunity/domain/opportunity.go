// Package domain contains the core domain types for the opportunity context.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	profitDomain "github.com/fd1az/product-scout/business/profit/domain"
	riskDomain "github.com/fd1az/product-scout/business/risk/domain"
	trendDomain "github.com/fd1az/product-scout/business/trend/domain"
)

// Viral signal names.
const (
	SignalBreakoutGrowth = "breakout_growth"
	SignalTrending       = "trending"
	SignalSocialBuzz     = "social_buzz"
	SignalInSeason       = "in_season"
)

// Candidate is a product to evaluate: a normalized trend profile plus the
// supplier price. ResalePrice overrides the estimated resale when set.
type Candidate struct {
	ProductName string                   `json:"product_name"`
	Profile     trendDomain.TrendProfile `json:"profile"`
	BasePrice   decimal.Decimal          `json:"base_price"`
	ResalePrice *decimal.Decimal         `json:"resale_price,omitempty"`
}

// Name returns the product name, falling back to the profile keyword.
func (c Candidate) Name() string {
	if name := strings.TrimSpace(c.ProductName); name != "" {
		return name
	}
	return strings.TrimSpace(c.Profile.Keyword)
}

// Opportunity is a fully scored candidate.
type Opportunity struct {
	ID           uuid.UUID                   `json:"id"`
	Profile      trendDomain.TrendProfile    `json:"profile"`
	Profit       profitDomain.ProfitAnalysis `json:"profit"`
	Risk         riskDomain.RiskAssessment   `json:"risk"`
	ViralSignals []string                    `json:"viral_signals"`
	Confidence   float64                     `json:"confidence"`
	EvaluatedAt  time.Time                   `json:"evaluated_at"`
}

// ProductName returns the analyzed product name.
func (o *Opportunity) ProductName() string {
	return o.Profit.ProductName
}

// HasSignal reports whether the opportunity carries signal.
func (o *Opportunity) HasSignal(signal string) bool {
	for _, s := range o.ViralSignals {
		if s == signal {
			return true
		}
	}
	return false
}

// Rejection reasons reported by Gate.Check.
const (
	RejectMargin = "margin"
	RejectRisk   = "risk"
)

// Gate holds the inclusion thresholds of the ranked output.
type Gate struct {
	MinMarginPct float64
	MaxRiskLevel trendDomain.Tier
}

// DefaultGate keeps margins above 40% and excludes high risk.
func DefaultGate() Gate {
	return Gate{MinMarginPct: 40, MaxRiskLevel: trendDomain.TierMedium}
}

// Check reports whether opp passes the gate, and the rejection reason when not.
func (g Gate) Check(opp *Opportunity) (bool, string) {
	if opp.Profit.ExactMarginPct() <= g.MinMarginPct {
		return false, RejectMargin
	}
	if g.MaxRiskLevel.Valid() && opp.Risk.RiskLevel.Exceeds(g.MaxRiskLevel) {
		return false, RejectRisk
	}
	return true, ""
}
