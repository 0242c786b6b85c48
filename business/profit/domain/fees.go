// Package domain contains the core domain types for the profit context.
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fd1az/product-scout/internal/apperror"
)

// FeeSchedule is the landed-cost model. Percentages are fractions of the base price.
type FeeSchedule struct {
	PlatformPct       float64
	PaymentPct        float64
	ReturnReservePct  float64
	CurrencyBufferPct float64
	Shipping          decimal.Decimal
	Packaging         decimal.Decimal
	BreakEvenTarget   decimal.Decimal
}

// DefaultFeeSchedule returns the marketplace defaults: 10% platform, 2.9%
// payment, 5% returns, 2% currency, $3.50 shipping and $0.50 packaging.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		PlatformPct:       0.10,
		PaymentPct:        0.029,
		ReturnReservePct:  0.05,
		CurrencyBufferPct: 0.02,
		Shipping:          decimal.RequireFromString("3.50"),
		Packaging:         decimal.RequireFromString("0.50"),
		BreakEvenTarget:   decimal.NewFromInt(50),
	}
}

// Validate rejects negative costs and a non-positive break-even target.
func (f FeeSchedule) Validate() error {
	pcts := []struct {
		name string
		pct  float64
	}{
		{"platform", f.PlatformPct},
		{"payment", f.PaymentPct},
		{"return reserve", f.ReturnReservePct},
		{"currency buffer", f.CurrencyBufferPct},
	}
	for _, p := range pcts {
		if p.pct < 0 || p.pct >= 1 {
			return apperror.New(apperror.CodeInvalidFeeSchedule,
				apperror.WithContext(fmt.Sprintf("%s fee %.4f outside [0,1)", p.name, p.pct)))
		}
	}
	if f.Shipping.IsNegative() || f.Packaging.IsNegative() {
		return apperror.New(apperror.CodeInvalidFeeSchedule,
			apperror.WithContext("flat costs must not be negative"))
	}
	if !f.BreakEvenTarget.IsPositive() {
		return apperror.New(apperror.CodeInvalidFeeSchedule,
			apperror.WithContext("break-even target must be positive"))
	}
	return nil
}

// CostBreakdown itemizes the costs added on top of the base price.
type CostBreakdown struct {
	PlatformFee    decimal.Decimal `json:"platform_fee"`
	PaymentFee     decimal.Decimal `json:"payment_fee"`
	Shipping       decimal.Decimal `json:"shipping"`
	Packaging      decimal.Decimal `json:"packaging"`
	ReturnReserve  decimal.Decimal `json:"return_reserve"`
	CurrencyBuffer decimal.Decimal `json:"currency_buffer"`
}

// Total returns the sum of all items.
func (c CostBreakdown) Total() decimal.Decimal {
	return c.PlatformFee.
		Add(c.PaymentFee).
		Add(c.Shipping).
		Add(c.Packaging).
		Add(c.ReturnReserve).
		Add(c.CurrencyBuffer)
}
