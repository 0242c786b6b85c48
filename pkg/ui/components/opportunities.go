// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// OpportunityRow represents a ranked opportunity in the table.
type OpportunityRow struct {
	Rank       int
	Name       string
	Category   string
	Buy        string
	Sell       string
	MarginPct  float64
	RiskLevel  string
	Confidence float64
	Signals    []string
}

// OpportunitiesComponent renders the ranked opportunities with a cursor.
type OpportunitiesComponent struct {
	rows    []OpportunityRow
	visible int
	cursor  int
	offset  int
}

// NewOpportunitiesComponent creates a table showing visible rows at a time.
func NewOpportunitiesComponent(visible int) *OpportunitiesComponent {
	if visible <= 0 {
		visible = 10
	}
	return &OpportunitiesComponent{visible: visible}
}

// Set replaces the table content, keeping the cursor in range.
func (o *OpportunitiesComponent) Set(rows []OpportunityRow) {
	o.rows = rows
	if o.cursor >= len(rows) {
		o.cursor = max(len(rows)-1, 0)
	}
	o.clampOffset()
}

// Clear clears all opportunities.
func (o *OpportunitiesComponent) Clear() {
	o.rows = nil
	o.cursor = 0
	o.offset = 0
}

// Len returns the number of rows.
func (o *OpportunitiesComponent) Len() int {
	return len(o.rows)
}

// Cursor returns the selected row index.
func (o *OpportunitiesComponent) Cursor() int {
	return o.cursor
}

// ScrollUp moves the cursor up one row.
func (o *OpportunitiesComponent) ScrollUp() {
	if o.cursor > 0 {
		o.cursor--
	}
	o.clampOffset()
}

// ScrollDown moves the cursor down one row.
func (o *OpportunitiesComponent) ScrollDown() {
	if o.cursor < len(o.rows)-1 {
		o.cursor++
	}
	o.clampOffset()
}

func (o *OpportunitiesComponent) clampOffset() {
	if o.cursor < o.offset {
		o.offset = o.cursor
	}
	if o.cursor >= o.offset+o.visible {
		o.offset = o.cursor - o.visible + 1
	}
}

// View renders the opportunities component.
func (o *OpportunitiesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	if len(o.rows) == 0 {
		return headerStyle.Render("OPPORTUNITIES") + "\n\n  No opportunities detected yet..."
	}

	selectedStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#374151"))
	signalStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("OPPORTUNITIES (%d)", len(o.rows))))
	sb.WriteString("\n")
	sb.WriteString("┌────┬──────────────────────┬──────────┬──────────┬─────────┬────────┬──────┐\n")
	sb.WriteString("│  # │ Product              │   Buy    │   Sell   │ Margin  │  Risk  │ Conf │\n")
	sb.WriteString("├────┼──────────────────────┼──────────┼──────────┼─────────┼────────┼──────┤\n")

	end := min(o.offset+o.visible, len(o.rows))
	for i := o.offset; i < end; i++ {
		row := o.rows[i]
		line := fmt.Sprintf("│%3d │ %-20s │%9s │%9s │%7.1f%% │ %s │%5.1f │",
			row.Rank,
			truncate(row.Name, 20),
			row.Buy,
			row.Sell,
			row.MarginPct,
			RiskStyle(row.RiskLevel).Render(fmt.Sprintf("%-6s", row.RiskLevel)),
			row.Confidence,
		)
		if i == o.cursor {
			line = selectedStyle.Render(line)
		}
		sb.WriteString(line)
		if len(row.Signals) > 0 {
			sb.WriteString(" " + signalStyle.Render("★"))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("└────┴──────────────────────┴──────────┴──────────┴─────────┴────────┴──────┘")

	if len(o.rows) > o.visible {
		sb.WriteString(fmt.Sprintf("\n  showing %d-%d of %d", o.offset+1, end, len(o.rows)))
	}
	return sb.String()
}

// RiskStyle colors a risk level.
func RiskStyle(level string) lipgloss.Style {
	switch strings.ToLower(level) {
	case "low":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	case "medium":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
