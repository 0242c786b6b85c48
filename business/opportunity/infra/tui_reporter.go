package infra

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/product-scout/business/opportunity/domain"
	"github.com/fd1az/product-scout/pkg/ui"
)

// TUIReporter implements Reporter for the Bubble Tea dashboard.
type TUIReporter struct {
	send func(tea.Msg)
}

// NewTUIReporter creates a reporter sending to the running program.
// A nil send uses ui.Send.
func NewTUIReporter(send func(tea.Msg)) *TUIReporter {
	if send == nil {
		send = ui.Send
	}
	return &TUIReporter{send: send}
}

// Start marks the scanner ready on the startup screen.
func (r *TUIReporter) Start(ctx context.Context) error {
	r.send(ui.StartupMsg{Step: "scanner", Status: "done"})
	return nil
}

// Report sends a completed scan to the dashboard.
func (r *TUIReporter) Report(ctx context.Context, snap *domain.Snapshot) error {
	r.send(ui.ScanMsg{Snapshot: snap})
	return nil
}

// ReportError surfaces a failed scan in the error panel.
func (r *TUIReporter) ReportError(ctx context.Context, err error) {
	r.send(ui.ErrorMsg{Error: err})
}

// Stop gracefully shuts down the TUI reporter.
func (r *TUIReporter) Stop() error {
	return nil
}
