// Package money holds the decimal helpers shared by the pricing and risk models.
// All amounts are US dollars held as decimal.Decimal.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is the number of decimal places kept at boundaries.
const Cents int32 = 2

var (
	// Penny is the floor used for degenerate denominators.
	Penny   = decimal.New(1, -2)
	Hundred = decimal.NewFromInt(100)
)

// Round rounds d half away from zero to cents.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Cents)
}

// FromFloat converts a float boundary value to a cent-rounded amount.
func FromFloat(f float64) decimal.Decimal {
	return Round(decimal.NewFromFloat(f))
}

// Pct returns d multiplied by a fraction (0.10 = 10%).
func Pct(d decimal.Decimal, fraction float64) decimal.Decimal {
	return d.Mul(decimal.NewFromFloat(fraction))
}

// Clamp bounds d to [lo, hi].
func Clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}

// AtLeast returns d, or floor when d is below it.
func AtLeast(d, floor decimal.Decimal) decimal.Decimal {
	if d.LessThan(floor) {
		return floor
	}
	return d
}

// Ratio returns num/den*100 as a float, flooring den at a penny.
func Ratio(num, den decimal.Decimal) float64 {
	den = AtLeast(den, Penny)
	f, _ := num.Div(den).Mul(Hundred).Float64()
	return f
}

// Float returns d as float64 for scoring and display.
func Float(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// Format renders d as "$12.34", with a leading minus for losses.
func Format(d decimal.Decimal) string {
	if d.IsNegative() {
		return fmt.Sprintf("-$%s", d.Neg().StringFixed(Cents))
	}
	return fmt.Sprintf("$%s", d.StringFixed(Cents))
}

// Parse reads a user supplied price such as "19.99" or "$19.99".
func Parse(s string) (decimal.Decimal, error) {
	if len(s) > 0 && s[0] == '$' {
		s = s[1:]
	}
	return decimal.NewFromString(s)
}
