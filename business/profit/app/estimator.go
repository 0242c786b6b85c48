// Package app contains application services for the profit context.
package app

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/product-scout/business/profit/domain"
	trendDomain "github.com/fd1az/product-scout/business/trend/domain"
	"github.com/fd1az/product-scout/internal/apperror"
	"github.com/fd1az/product-scout/internal/money"
)

const (
	baseMultiplier = 1.6
	minMultiplier  = 1.2
	maxMultiplier  = 3.0
	jitterSpread   = 0.10

	strongTrendScore = 80.0
	weakTrendScore   = 30.0
	strongTrendAdj   = 0.5
	weakTrendAdj     = -0.3

	cheapAdj     = 0.8
	expensiveAdj = -0.2
)

var (
	cheapPrice     = decimal.NewFromInt(10)
	expensivePrice = decimal.NewFromInt(100)
	budgetPrice    = decimal.NewFromInt(5)
)

// Option configures an Estimator.
type Option func(*Estimator)

// WithJitter sets the resale jitter source. Without one, estimates are deterministic.
func WithJitter(src JitterSource) Option {
	return func(e *Estimator) {
		e.jitter = src
	}
}

// WithClock sets the clock used to pick the current season phase.
func WithClock(now func() time.Time) Option {
	return func(e *Estimator) {
		if now != nil {
			e.now = now
		}
	}
}

// Estimator computes the unit economics of a product from its supplier price
// and trend profile.
type Estimator struct {
	fees    domain.FeeSchedule
	catalog *trendDomain.Catalog
	jitter  JitterSource
	now     func() time.Time
}

// NewEstimator creates an Estimator. A nil catalog uses the defaults.
func NewEstimator(fees domain.FeeSchedule, catalog *trendDomain.Catalog, opts ...Option) (*Estimator, error) {
	if err := fees.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil {
		catalog = trendDomain.DefaultCatalog()
	}

	e := &Estimator{
		fees:    fees,
		catalog: catalog,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Fees returns the fee schedule in use.
func (e *Estimator) Fees() domain.FeeSchedule {
	return e.fees
}

// WithSource returns a copy of e that draws jitter from src. Each goroutine
// should use its own copy since sources are not safe for concurrent use.
func (e *Estimator) WithSource(src JitterSource) *Estimator {
	cp := *e
	cp.jitter = src
	return &cp
}

// Estimate analyzes productName at basePrice. A non-nil resaleOverride is used
// as the resale price instead of the estimate.
func (e *Estimator) Estimate(
	productName string,
	basePrice decimal.Decimal,
	profile trendDomain.TrendProfile,
	resaleOverride *decimal.Decimal,
) (*domain.ProfitAnalysis, error) {
	if err := validate(productName, basePrice); err != nil {
		return nil, err
	}
	if resaleOverride != nil && !resaleOverride.IsPositive() {
		return nil, apperror.New(apperror.CodeInvalidPrice,
			apperror.WithContext("resale price must be positive"))
	}

	resale := e.estimateResale(basePrice, profile)
	estimated := true
	if resaleOverride != nil {
		resale = money.Round(*resaleOverride)
		estimated = false
	}

	costs := e.costs(basePrice)
	total := basePrice.Add(costs.Total())
	net := resale.Sub(total)
	exactMargin := money.Ratio(net, total)
	margin := round2(exactMargin)
	roi := round2(money.Ratio(net, basePrice))

	advisory := advisoryRisk(exactMargin, basePrice, profile)

	return &domain.ProfitAnalysis{
		ProductName:     strings.TrimSpace(productName),
		BasePrice:       basePrice,
		ResalePrice:     resale,
		ResaleEstimated: estimated,
		Costs:           costs,
		TotalCost:       total,
		NetProfit:       net,
		MarginPct:       margin,
		ROIPct:          roi,
		BreakEvenQty:    e.breakEven(net),
		RiskScore:       advisory,
		ConfidencePct:   confidence(profile.TrendScore, exactMargin, advisory),
		DemandTier:      profile.SearchVolumeTier,
		CompetitionTier: profile.CompetitionTier,
		SeasonalFactor:  e.SeasonalFactor(profile.Keyword),
	}, nil
}

// Multiplier returns the resale multiplier before jitter, clamped to [1.2, 3.0].
func (e *Estimator) Multiplier(basePrice decimal.Decimal, profile trendDomain.TrendProfile) float64 {
	m := baseMultiplier + e.catalog.CategoryAdjustment(profile.Keyword)

	switch {
	case profile.TrendScore > strongTrendScore:
		m += strongTrendAdj
	case profile.TrendScore < weakTrendScore:
		m += weakTrendAdj
	}

	switch {
	case basePrice.LessThan(cheapPrice):
		m += cheapAdj
	case basePrice.GreaterThan(expensivePrice):
		m += expensiveAdj
	}

	return math.Min(math.Max(m, minMultiplier), maxMultiplier)
}

func (e *Estimator) estimateResale(basePrice decimal.Decimal, profile trendDomain.TrendProfile) decimal.Decimal {
	m := e.Multiplier(basePrice, profile)
	if e.jitter != nil {
		u := e.jitter.Float64()
		m *= 1 + (2*u-1)*jitterSpread
	}
	return money.Round(basePrice.Mul(decimal.NewFromFloat(m)))
}

// SeasonalFactor returns the demand multiplier of the first season matching
// keyword for the current month, or 1.0 when none matches.
func (e *Estimator) SeasonalFactor(keyword string) float64 {
	seasons := e.catalog.MatchSeasons(keyword)
	if len(seasons) == 0 {
		return 1.0
	}
	return seasons[0].FactorAt(e.now().Month())
}

func (e *Estimator) costs(basePrice decimal.Decimal) domain.CostBreakdown {
	return domain.CostBreakdown{
		PlatformFee:    money.Round(money.Pct(basePrice, e.fees.PlatformPct)),
		PaymentFee:     money.Round(money.Pct(basePrice, e.fees.PaymentPct)),
		Shipping:       money.Round(e.fees.Shipping),
		Packaging:      money.Round(e.fees.Packaging),
		ReturnReserve:  money.Round(money.Pct(basePrice, e.fees.ReturnReservePct)),
		CurrencyBuffer: money.Round(money.Pct(basePrice, e.fees.CurrencyBufferPct)),
	}
}

func (e *Estimator) breakEven(net decimal.Decimal) int64 {
	qty := e.fees.BreakEvenTarget.Div(money.AtLeast(net, money.Penny)).Ceil().IntPart()
	if qty < 1 {
		return 1
	}
	return qty
}

// advisoryRisk is a quick heuristic kept for display. Risk decisions use the
// risk assessor.
func advisoryRisk(margin float64, basePrice decimal.Decimal, profile trendDomain.TrendProfile) float64 {
	score := 20.0

	switch {
	case margin < 20:
		score += 30
	case margin < 40:
		score += 15
	}

	switch {
	case basePrice.GreaterThan(expensivePrice):
		score += 15
	case basePrice.LessThan(budgetPrice):
		score += 10
	}

	if profile.CompetitionTier == trendDomain.TierHigh {
		score += 20
	}
	if profile.IsSeasonal() {
		score += 10
	}
	if profile.TrendScore < weakTrendScore {
		score += 20
	}

	return math.Min(math.Max(score, 0), 100)
}

func confidence(trendScore, margin, advisory float64) float64 {
	c := 50.0

	switch {
	case trendScore > 70:
		c += 20
	case trendScore > 50:
		c += 10
	}

	switch {
	case margin > 50:
		c += 15
	case margin > 30:
		c += 5
	}

	switch {
	case advisory > 60:
		c -= 20
	case advisory < 30:
		c += 10
	}

	return math.Min(math.Max(c, 10), 95)
}

func validate(productName string, basePrice decimal.Decimal) error {
	if strings.TrimSpace(productName) == "" {
		return apperror.New(apperror.CodeMissingProductName,
			apperror.WithContext("product name is required"))
	}
	if !basePrice.IsPositive() {
		return apperror.New(apperror.CodeInvalidPrice,
			apperror.WithContext("base price must be positive"))
	}
	return nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
