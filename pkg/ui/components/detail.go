package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// CostLine is one labelled amount of the landed cost.
type CostLine struct {
	Label  string
	Amount string
}

// Detail holds the pre-formatted breakdown of the selected opportunity.
type Detail struct {
	Name          string
	Keyword       string
	Category      string
	TrendScore    float64
	GrowthRate    float64
	Buy           string
	Sell          string
	Estimated     bool
	Costs         []CostLine
	TotalCost     string
	NetProfit     string
	Profitable    bool
	MarginPct     float64
	ROIPct        float64
	BreakEvenQty  int64
	RiskLevel     string
	RiskScore     float64
	MaxInvestment string
	StopLoss      string
	RiskFactors   []string
	Mitigations   []string
	Signals       []string
}

// DetailComponent renders the breakdown of the selected opportunity.
type DetailComponent struct {
	detail *Detail
}

// NewDetailComponent creates a new detail component.
func NewDetailComponent() *DetailComponent {
	return &DetailComponent{}
}

// Set replaces the displayed opportunity. A nil detail clears the panel.
func (d *DetailComponent) Set(detail *Detail) {
	d.detail = detail
}

// View renders the detail component.
func (d *DetailComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	positiveStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	negativeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	if d.detail == nil {
		return headerStyle.Render("DETAIL") + "\n\n" + dimStyle.Render("  Waiting for the first scan...")
	}
	dt := d.detail

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(strings.ToUpper(dt.Name)))
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  %s [%s]", dt.Keyword, dt.Category)))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("  Trend %.0f/100, growth %+.1f%%\n", dt.TrendScore, dt.GrowthRate))

	sell := dt.Sell
	if dt.Estimated {
		sell += dimStyle.Render(" (est.)")
	}
	sb.WriteString(fmt.Sprintf("  Buy %s  Sell %s\n", dt.Buy, sell))
	sb.WriteString(dimStyle.Render("  "+strings.Repeat("─", 40)) + "\n")

	for _, c := range dt.Costs {
		sb.WriteString(fmt.Sprintf("  %-16s %s\n", c.Label, negativeStyle.Render(c.Amount)))
	}
	sb.WriteString(fmt.Sprintf("  %-16s %s\n", "Total cost", dt.TotalCost))

	profitStyle := positiveStyle
	if !dt.Profitable {
		profitStyle = negativeStyle
	}
	sb.WriteString(fmt.Sprintf("  %-16s %s\n", "Net profit", profitStyle.Render(dt.NetProfit)))
	sb.WriteString(fmt.Sprintf("  Margin %.2f%%  ROI %.2f%%  Break-even %d units\n", dt.MarginPct, dt.ROIPct, dt.BreakEvenQty))
	sb.WriteString(dimStyle.Render("  "+strings.Repeat("─", 40)) + "\n")

	sb.WriteString(fmt.Sprintf("  Risk %s (%.2f)\n", RiskStyle(dt.RiskLevel).Render(strings.ToUpper(dt.RiskLevel)), dt.RiskScore))
	sb.WriteString(fmt.Sprintf("  Max investment %s  Stop loss %s\n", dt.MaxInvestment, dt.StopLoss))
	for _, f := range dt.RiskFactors {
		sb.WriteString(warnStyle.Render("  ! "+f) + "\n")
	}
	for _, m := range dt.Mitigations {
		sb.WriteString(dimStyle.Render("  > "+m) + "\n")
	}
	if len(dt.Signals) > 0 {
		sb.WriteString(fmt.Sprintf("  Signals: %s\n", warnStyle.Render(strings.Join(dt.Signals, ", "))))
	}
	return sb.String()
}
