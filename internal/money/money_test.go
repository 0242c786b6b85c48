package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundAndFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"47.995", "$48.00"},
		{"20.015", "$20.02"},
		{"3", "$3.00"},
		{"-1.234", "-$1.23"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Format(Round(decimal.RequireFromString(tt.in))); got != tt.want {
				t.Errorf("Format(Round(%s)) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestRatio_FloorsDenominator(t *testing.T) {
	if got := Ratio(decimal.RequireFromString("1"), decimal.Zero); got != 10000 {
		t.Errorf("Ratio(1, 0) = %v, want 10000", got)
	}
	if got := Ratio(decimal.RequireFromString("20"), decimal.RequireFromString("40")); got != 50 {
		t.Errorf("Ratio(20, 40) = %v, want 50", got)
	}
}

func TestClamp(t *testing.T) {
	lo, hi := decimal.RequireFromString("20"), decimal.RequireFromString("1000")

	if got := Clamp(decimal.RequireFromString("5"), lo, hi); !got.Equal(lo) {
		t.Errorf("below range = %s", got)
	}
	if got := Clamp(decimal.RequireFromString("5000"), lo, hi); !got.Equal(hi) {
		t.Errorf("above range = %s", got)
	}
	if got := Clamp(decimal.RequireFromString("123.45"), lo, hi); !got.Equal(decimal.RequireFromString("123.45")) {
		t.Errorf("in range = %s", got)
	}
}

func TestParse(t *testing.T) {
	d, err := Parse("$19.99")
	if err != nil || !d.Equal(decimal.RequireFromString("19.99")) {
		t.Errorf("Parse($19.99) = %s, %v", d, err)
	}
	if _, err := Parse("abc"); err == nil {
		t.Error("expected error for non-numeric input")
	}
}
