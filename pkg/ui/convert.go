package ui

import (
	"github.com/fd1az/product-scout/business/opportunity/domain"
	trendDomain "github.com/fd1az/product-scout/business/trend/domain"
	"github.com/fd1az/product-scout/internal/money"
	"github.com/fd1az/product-scout/pkg/ui/components"
)

// Rows maps a snapshot to table rows in ranked order.
func Rows(snap *domain.Snapshot) []components.OpportunityRow {
	if snap == nil {
		return nil
	}
	rows := make([]components.OpportunityRow, len(snap.Opportunities))
	for i := range snap.Opportunities {
		o := &snap.Opportunities[i]
		rows[i] = components.OpportunityRow{
			Rank:       i + 1,
			Name:       o.ProductName(),
			Category:   o.Profile.Category,
			Buy:        money.Format(o.Profit.BasePrice),
			Sell:       money.Format(o.Profit.ResalePrice),
			MarginPct:  o.Profit.MarginPct,
			RiskLevel:  string(o.Risk.RiskLevel),
			Confidence: o.Confidence,
			Signals:    o.ViralSignals,
		}
	}
	return rows
}

// StatsFor maps a snapshot summary to the statistics panel.
func StatsFor(snap *domain.Snapshot) components.Stats {
	if snap == nil {
		return components.Stats{}
	}
	s := snap.Summary
	return components.Stats{
		Scans:          snap.Scan,
		Evaluated:      snap.Evaluated,
		Opportunities:  s.Count,
		MeanMarginPct:  s.MeanMarginPct,
		MeanConfidence: s.MeanConfidence,
		Low:            s.RiskHistogram[trendDomain.TierLow],
		Medium:         s.RiskHistogram[trendDomain.TierMedium],
		High:           s.RiskHistogram[trendDomain.TierHigh],
		TopCategory:    s.TopCategory,
	}
}

// DetailFor formats one opportunity for the detail panel.
func DetailFor(o *domain.Opportunity) *components.Detail {
	p := o.Profit
	c := p.Costs
	return &components.Detail{
		Name:       o.ProductName(),
		Keyword:    o.Profile.Keyword,
		Category:   o.Profile.Category,
		TrendScore: o.Profile.TrendScore,
		GrowthRate: o.Profile.GrowthRate,
		Buy:        money.Format(p.BasePrice),
		Sell:       money.Format(p.ResalePrice),
		Estimated:  p.ResaleEstimated,
		Costs: []components.CostLine{
			{Label: "Platform fee", Amount: money.Format(c.PlatformFee)},
			{Label: "Payment fee", Amount: money.Format(c.PaymentFee)},
			{Label: "Shipping", Amount: money.Format(c.Shipping)},
			{Label: "Packaging", Amount: money.Format(c.Packaging)},
			{Label: "Return reserve", Amount: money.Format(c.ReturnReserve)},
			{Label: "Currency buffer", Amount: money.Format(c.CurrencyBuffer)},
		},
		TotalCost:     money.Format(p.TotalCost),
		NetProfit:     money.Format(p.NetProfit),
		Profitable:    p.IsProfitable(),
		MarginPct:     p.MarginPct,
		ROIPct:        p.ROIPct,
		BreakEvenQty:  p.BreakEvenQty,
		RiskLevel:     string(o.Risk.RiskLevel),
		RiskScore:     o.Risk.OverallRiskScore,
		MaxInvestment: money.Format(o.Risk.MaxInvestment),
		StopLoss:      money.Format(o.Risk.StopLossPrice),
		RiskFactors:   o.Risk.RiskFactors,
		Mitigations:   o.Risk.Mitigations,
		Signals:       o.ViralSignals,
	}
}
