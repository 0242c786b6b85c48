package domain

import (
	"slices"
	"time"
)

// RawObservation is what a trend source hands the aggregator. Pointer fields
// are optional; nil means the source had no value.
type RawObservation struct {
	Keyword        string    `json:"keyword"`
	Category       string    `json:"category,omitempty"`
	InterestScore  *float64  `json:"interest_score,omitempty"`
	GrowthRate     *float64  `json:"growth_rate,omitempty"`
	SocialMentions *int64    `json:"social_mentions,omitempty"`
	Competition    Tier      `json:"competition,omitempty"`
	ObservedAt     time.Time `json:"observed_at,omitempty"`
}

// HasSignal reports whether the observation carries any measured value.
func (r RawObservation) HasSignal() bool {
	return r.InterestScore != nil || r.GrowthRate != nil || r.SocialMentions != nil
}

// TrendProfile is the normalized view of a keyword's market signals.
type TrendProfile struct {
	Keyword          string   `json:"keyword"`
	Category         string   `json:"category"`
	TrendScore       float64  `json:"trend_score"`
	GrowthRate       float64  `json:"growth_rate"`
	SearchVolumeTier Tier     `json:"search_volume_tier"`
	CompetitionTier  Tier     `json:"competition_tier"`
	SeasonalTags     []string `json:"seasonal_tags"`
	SocialMentions   int64    `json:"social_mentions"`
	CompetitionHint  Tier     `json:"competition_hint,omitempty"`
	HasTrendData     bool     `json:"has_trend_data"`
}

// HasSeason reports whether the profile is tagged with season.
func (p TrendProfile) HasSeason(season string) bool {
	_, ok := slices.BinarySearch(p.SeasonalTags, season)
	return ok
}

// IsSeasonal reports whether any season matched.
func (p TrendProfile) IsSeasonal() bool {
	return len(p.SeasonalTags) > 0
}
