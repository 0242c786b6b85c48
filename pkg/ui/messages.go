// Package ui provides the Bubble Tea dashboard for product scout.
package ui

import (
	"time"

	"github.com/fd1az/product-scout/business/opportunity/domain"
)

// ScanMsg is sent when a scan completes.
type ScanMsg struct {
	Snapshot *domain.Snapshot
}

// ConnectionStatusMsg is sent when a data source changes state.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
	Latency   time.Duration
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step    string // "config", "trends", "scanner", "notifiers"
	Status  string // "connecting", "connected", "done", "failed"
	Message string
}
