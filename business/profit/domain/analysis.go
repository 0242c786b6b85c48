package domain

import (
	"github.com/shopspring/decimal"

	trendDomain "github.com/fd1az/product-scout/business/trend/domain"
	"github.com/fd1az/product-scout/internal/money"
)

// ProfitAnalysis is the unit economics of reselling one product.
type ProfitAnalysis struct {
	ProductName     string           `json:"product_name"`
	BasePrice       decimal.Decimal  `json:"base_price"`
	ResalePrice     decimal.Decimal  `json:"resale_price"`
	ResaleEstimated bool             `json:"resale_estimated"`
	Costs           CostBreakdown    `json:"costs"`
	TotalCost       decimal.Decimal  `json:"total_cost"`
	NetProfit       decimal.Decimal  `json:"net_profit"`
	MarginPct       float64          `json:"margin_pct"`
	ROIPct          float64          `json:"roi_pct"`
	BreakEvenQty    int64            `json:"break_even_qty"`
	RiskScore       float64          `json:"risk_score"`
	ConfidencePct   float64          `json:"confidence_pct"`
	DemandTier      trendDomain.Tier `json:"demand_tier"`
	CompetitionTier trendDomain.Tier `json:"competition_tier"`
	SeasonalFactor  float64          `json:"seasonal_factor"`
}

// ExactMarginPct is the unrounded margin behind MarginPct. Threshold
// decisions use it so that rounding cannot flip a strict comparison.
func (p *ProfitAnalysis) ExactMarginPct() float64 {
	return money.Ratio(p.NetProfit, p.TotalCost)
}

// IsProfitable reports whether the product clears its landed cost.
func (p *ProfitAnalysis) IsProfitable() bool {
	return p.NetProfit.IsPositive()
}
