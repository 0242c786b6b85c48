package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds the per-scan statistics for display.
type Stats struct {
	Scans          int64
	Evaluated      int
	Opportunities  int
	MeanMarginPct  float64
	MeanConfidence float64
	Low            int
	Medium         int
	High           int
	TopCategory    string
	Errors         int64
}

// SummaryComponent renders the scan statistics.
type SummaryComponent struct {
	stats Stats
}

// NewSummaryComponent creates a new summary component.
func NewSummaryComponent() *SummaryComponent {
	return &SummaryComponent{}
}

// Update updates the statistics.
func (s *SummaryComponent) Update(stats Stats) {
	errors := s.stats.Errors
	s.stats = stats
	if stats.Errors == 0 {
		s.stats.Errors = errors
	}
}

// IncErrors counts a failed scan.
func (s *SummaryComponent) IncErrors() {
	s.stats.Errors++
}

// Stats returns the current statistics.
func (s *SummaryComponent) Stats() Stats {
	return s.stats
}

// View renders the summary component.
func (s *SummaryComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	passRate := float64(0)
	if s.stats.Evaluated > 0 {
		passRate = float64(s.stats.Opportunities) / float64(s.stats.Evaluated) * 100
	}

	errorsDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	if s.stats.Errors > 0 {
		errorsDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	}

	top := s.stats.TopCategory
	if top == "" {
		top = "-"
	}

	return style.Render("SUMMARY") + "\n" +
		fmt.Sprintf("Evaluated: %s  │  Opportunities: %s (%.1f%%)  │  Top category: %s\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Evaluated)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Opportunities)),
			passRate,
			valueStyle.Render(top),
		) +
		fmt.Sprintf("Mean margin: %s  │  Mean confidence: %s  │  Risk: %s/%s/%s  │  Errors: %s",
			valueStyle.Render(fmt.Sprintf("%.2f%%", s.stats.MeanMarginPct)),
			valueStyle.Render(fmt.Sprintf("%.1f", s.stats.MeanConfidence)),
			RiskStyle("low").Render(fmt.Sprintf("%d", s.stats.Low)),
			RiskStyle("medium").Render(fmt.Sprintf("%d", s.stats.Medium)),
			RiskStyle("high").Render(fmt.Sprintf("%d", s.stats.High)),
			errorsDisplay,
		)
}
