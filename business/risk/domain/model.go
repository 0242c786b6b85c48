// Package domain contains the core domain types for the risk context.
package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	trendDomain "github.com/fd1az/product-scout/business/trend/domain"
	"github.com/fd1az/product-scout/internal/apperror"
)

const weightTolerance = 0.001

// FactorScores holds one 0-100 score per risk factor. The same shape carries
// weights and reporting thresholds.
type FactorScores struct {
	Volatility  float64 `json:"volatility"`
	Competition float64 `json:"competition"`
	Demand      float64 `json:"demand"`
	Seasonality float64 `json:"seasonality"`
	Supplier    float64 `json:"supplier"`
	Regulatory  float64 `json:"regulatory"`
}

// Weights are the per-factor weights of the overall score. They sum to 1.
type Weights = FactorScores

// DefaultWeights returns volatility 0.25, competition 0.20, demand 0.20,
// seasonality 0.15, supplier 0.10 and regulatory 0.10.
func DefaultWeights() Weights {
	return Weights{
		Volatility:  0.25,
		Competition: 0.20,
		Demand:      0.20,
		Seasonality: 0.15,
		Supplier:    0.10,
		Regulatory:  0.10,
	}
}

// DefaultReporting returns the score above which a factor is reported as a finding.
func DefaultReporting() FactorScores {
	return FactorScores{
		Volatility:  50,
		Competition: 60,
		Demand:      50,
		Seasonality: 40,
		Supplier:    40,
		Regulatory:  20,
	}
}

// Sum returns the total of all six values.
func (f FactorScores) Sum() float64 {
	return f.Volatility + f.Competition + f.Demand + f.Seasonality + f.Supplier + f.Regulatory
}

// Weighted returns the weighted sum of f.
func (f FactorScores) Weighted(w Weights) float64 {
	return f.Volatility*w.Volatility +
		f.Competition*w.Competition +
		f.Demand*w.Demand +
		f.Seasonality*w.Seasonality +
		f.Supplier*w.Supplier +
		f.Regulatory*w.Regulatory
}

// ValidateWeights checks that w is non-negative and sums to 1.
func ValidateWeights(w Weights) error {
	for _, v := range []float64{w.Volatility, w.Competition, w.Demand, w.Seasonality, w.Supplier, w.Regulatory} {
		if v < 0 {
			return apperror.New(apperror.CodeInvalidRiskWeights,
				apperror.WithContext("weights must not be negative"))
		}
	}
	if sum := w.Sum(); math.Abs(sum-1) > weightTolerance {
		return apperror.New(apperror.CodeInvalidRiskWeights,
			apperror.WithContext(fmt.Sprintf("weights sum to %.4f, want 1", sum)))
	}
	return nil
}

// Thresholds split the overall score into levels: score <= LowMax is low,
// score <= MediumMax is medium, anything above is high.
type Thresholds struct {
	LowMax    float64
	MediumMax float64
}

// DefaultThresholds returns 30/60.
func DefaultThresholds() Thresholds {
	return Thresholds{LowMax: 30, MediumMax: 60}
}

// Validate checks 0 < LowMax < MediumMax < 100.
func (t Thresholds) Validate() error {
	if t.LowMax <= 0 || t.LowMax >= t.MediumMax || t.MediumMax >= 100 {
		return apperror.New(apperror.CodeInvalidRiskWeights,
			apperror.WithContext(fmt.Sprintf("thresholds %.1f/%.1f out of order", t.LowMax, t.MediumMax)))
	}
	return nil
}

// Level maps an overall score to its tier.
func (t Thresholds) Level(score float64) trendDomain.Tier {
	switch {
	case score <= t.LowMax:
		return trendDomain.TierLow
	case score <= t.MediumMax:
		return trendDomain.TierMedium
	default:
		return trendDomain.TierHigh
	}
}

// ConfidenceInterval is the expected resale price band.
type ConfidenceInterval struct {
	Low  decimal.Decimal `json:"low"`
	High decimal.Decimal `json:"high"`
}

// Contains reports whether price lies inside the band.
func (c ConfidenceInterval) Contains(price decimal.Decimal) bool {
	return !price.LessThan(c.Low) && !price.GreaterThan(c.High)
}

// RiskAssessment is the multi-factor risk view of a product.
type RiskAssessment struct {
	ProductName        string             `json:"product_name"`
	OverallRiskScore   float64            `json:"overall_risk_score"`
	RiskLevel          trendDomain.Tier   `json:"risk_level"`
	Factors            FactorScores       `json:"factors"`
	RiskFactors        []string           `json:"risk_factors"`
	Mitigations        []string           `json:"mitigations"`
	MaxInvestment      decimal.Decimal    `json:"max_investment"`
	StopLossPrice      decimal.Decimal    `json:"stop_loss_price"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`
}
