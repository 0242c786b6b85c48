package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WatchItem is a product the scanner evaluates on every cycle.
type WatchItem struct {
	Keyword     string           `json:"keyword"`
	ProductName string           `json:"product_name,omitempty"`
	Category    string           `json:"category,omitempty"`
	BasePrice   decimal.Decimal  `json:"base_price"`
	ResalePrice *decimal.Decimal `json:"resale_price,omitempty"`
}

// Snapshot is the result of one scan.
type Snapshot struct {
	Scan          int64          `json:"scan"`
	ScannedAt     time.Time      `json:"scanned_at"`
	Evaluated     int            `json:"evaluated"`
	Opportunities []Opportunity  `json:"opportunities"`
	Summary       Summary        `json:"summary"`
	Sources       []SourceStatus `json:"sources,omitempty"`
}

// Top returns at most n opportunities. n <= 0 returns all of them.
func (s *Snapshot) Top(n int) []Opportunity {
	if s == nil {
		return nil
	}
	if n <= 0 || n >= len(s.Opportunities) {
		return s.Opportunities
	}
	return s.Opportunities[:n]
}

// SourceStatus is the connection state of a data source at scan time.
type SourceStatus struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

// Verdict is a single evaluated opportunity and whether it passed the gate.
type Verdict struct {
	Opportunity *Opportunity `json:"opportunity"`
	Accepted    bool         `json:"accepted"`
	Reason      string       `json:"rejection_reason,omitempty"`
}
