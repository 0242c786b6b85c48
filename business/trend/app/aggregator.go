// Package app contains application services and port definitions for the trend context.
package app

import (
	"sort"
	"strings"

	"github.com/fd1az/product-scout/business/trend/domain"
)

const (
	neutralTrendScore = 50.0
	highVolumeScore   = 70.0
	mediumVolumeScore = 40.0
)

// Aggregator normalizes raw observations against a catalog.
type Aggregator struct {
	catalog *domain.Catalog
}

// NewAggregator creates an Aggregator. A nil catalog uses the defaults.
func NewAggregator(catalog *domain.Catalog) *Aggregator {
	if catalog == nil {
		catalog = domain.DefaultCatalog()
	}
	return &Aggregator{catalog: catalog}
}

// Catalog returns the lexical tables in use.
func (a *Aggregator) Catalog() *domain.Catalog {
	return a.catalog
}

// Normalize turns a raw observation into a TrendProfile. Missing signals fall
// back to neutral values; it never fails.
func (a *Aggregator) Normalize(raw domain.RawObservation) domain.TrendProfile {
	keyword := strings.TrimSpace(raw.Keyword)

	profile := domain.TrendProfile{
		Keyword:         keyword,
		TrendScore:      neutralTrendScore,
		HasTrendData:    raw.InterestScore != nil,
		CompetitionTier: a.catalog.CompetitionTierFor(keyword),
		SeasonalTags:    a.seasonalTags(keyword),
	}

	if raw.InterestScore != nil {
		profile.TrendScore = clamp(*raw.InterestScore, 0, 100)
	}
	if raw.GrowthRate != nil {
		profile.GrowthRate = *raw.GrowthRate
	}
	if raw.SocialMentions != nil && *raw.SocialMentions > 0 {
		profile.SocialMentions = *raw.SocialMentions
	}
	if raw.Competition.Valid() {
		profile.CompetitionHint = raw.Competition
	}

	profile.SearchVolumeTier = volumeTier(profile.TrendScore)

	if cat := strings.ToLower(strings.TrimSpace(raw.Category)); cat != "" {
		profile.Category = cat
	} else {
		profile.Category = a.catalog.CategoryFor(keyword)
	}

	return profile
}

func (a *Aggregator) seasonalTags(keyword string) []string {
	seasons := a.catalog.MatchSeasons(keyword)
	if len(seasons) == 0 {
		return []string{}
	}

	seen := make(map[string]struct{}, len(seasons))
	tags := make([]string, 0, len(seasons))
	for _, s := range seasons {
		if _, dup := seen[s.Name]; dup {
			continue
		}
		seen[s.Name] = struct{}{}
		tags = append(tags, s.Name)
	}
	sort.Strings(tags)
	return tags
}

func volumeTier(score float64) domain.Tier {
	switch {
	case score >= highVolumeScore:
		return domain.TierHigh
	case score >= mediumVolumeScore:
		return domain.TierMedium
	default:
		return domain.TierLow
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
