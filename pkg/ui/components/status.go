package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ConnectionStatus represents a data source's status.
type ConnectionStatus struct {
	Name       string
	Connected  bool
	Latency    time.Duration
	LastUpdate time.Time
}

// StatusComponent renders the data source status line.
type StatusComponent struct {
	connections []ConnectionStatus
}

// NewStatusComponent creates a new status component.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{}
}

// Update updates a source's status, keeping first-seen order.
func (s *StatusComponent) Update(status ConnectionStatus) {
	for i, conn := range s.connections {
		if conn.Name == status.Name {
			s.connections[i] = status
			return
		}
	}
	s.connections = append(s.connections, status)
}

// Connections returns the known sources.
func (s *StatusComponent) Connections() []ConnectionStatus {
	return s.connections
}

// View renders the status component.
func (s *StatusComponent) View() string {
	if len(s.connections) == 0 {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Render("No sources")
	}

	parts := make([]string, 0, len(s.connections))
	for _, conn := range s.connections {
		icon := "●"
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
		label := conn.Name
		if !conn.Connected {
			icon = "○"
			style = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
			label += " (disconnected)"
		} else if conn.Latency > 0 {
			label += fmt.Sprintf(" (%dms)", conn.Latency.Milliseconds())
		}
		parts = append(parts, style.Render(icon+" "+label))
	}
	return strings.Join(parts, "  │  ")
}
