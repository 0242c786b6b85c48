// Package domain contains the core domain types for the trend context.
package domain

import "strings"

// Tier is a coarse low/medium/high classification.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Rank orders tiers: low=1, medium=2, high=3. Unset tiers rank 0.
func (t Tier) Rank() int {
	switch t {
	case TierLow:
		return 1
	case TierMedium:
		return 2
	case TierHigh:
		return 3
	default:
		return 0
	}
}

// Exceeds reports whether t ranks strictly above other.
func (t Tier) Exceeds(other Tier) bool {
	return t.Rank() > other.Rank()
}

// Valid reports whether t is one of the three tiers.
func (t Tier) Valid() bool {
	return t.Rank() > 0
}

// ParseTier parses "low", "medium" or "high" case-insensitively.
func ParseTier(s string) (Tier, bool) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}
