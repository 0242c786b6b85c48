package domain

import (
	"math"

	trendDomain "github.com/fd1az/product-scout/business/trend/domain"
)

// Summary aggregates a ranked list.
type Summary struct {
	Count          int                      `json:"count"`
	MeanMarginPct  float64                  `json:"mean_margin_pct"`
	MeanConfidence float64                  `json:"mean_confidence"`
	RiskHistogram  map[trendDomain.Tier]int `json:"risk_histogram"`
	TopCategory    string                   `json:"top_category"`
}

// Summarize reduces opps into a Summary. The histogram always carries all
// three levels; TopCategory is the most frequent category, ties going to the
// one seen first.
func Summarize(opps []Opportunity) Summary {
	s := Summary{
		Count: len(opps),
		RiskHistogram: map[trendDomain.Tier]int{
			trendDomain.TierLow:    0,
			trendDomain.TierMedium: 0,
			trendDomain.TierHigh:   0,
		},
	}
	if len(opps) == 0 {
		return s
	}

	var margin, confidence float64
	counts := make(map[string]int)
	order := make([]string, 0)
	for i := range opps {
		o := &opps[i]
		margin += o.Profit.MarginPct
		confidence += o.Confidence
		s.RiskHistogram[o.Risk.RiskLevel]++

		cat := o.Profile.Category
		if _, ok := counts[cat]; !ok {
			order = append(order, cat)
		}
		counts[cat]++
	}

	n := float64(len(opps))
	s.MeanMarginPct = round2(margin / n)
	s.MeanConfidence = round2(confidence / n)

	best := 0
	for _, cat := range order {
		if counts[cat] > best {
			best = counts[cat]
			s.TopCategory = cat
		}
	}
	return s
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
