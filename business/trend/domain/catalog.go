package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultCategory is assigned when no category keyword matches.
const DefaultCategory = "general"

// Phase is where a month falls in a season's cycle.
type Phase string

const (
	PhasePeak     Phase = "peak"
	PhaseShoulder Phase = "shoulder"
	PhaseOff      Phase = "off"
)

// Season is a named demand cycle triggered by keywords.
type Season struct {
	Name           string   `mapstructure:"name" json:"name"`
	Keywords       []string `mapstructure:"keywords" json:"keywords"`
	PeakMonths     []int    `mapstructure:"peak_months" json:"peak_months"`
	ShoulderMonths []int    `mapstructure:"shoulder_months" json:"shoulder_months"`
	PeakFactor     float64  `mapstructure:"peak_factor" json:"peak_factor"`
	ShoulderFactor float64  `mapstructure:"shoulder_factor" json:"shoulder_factor"`
	OffFactor      float64  `mapstructure:"off_factor" json:"off_factor"`
}

// PhaseAt returns the season phase for month.
func (s Season) PhaseAt(month time.Month) Phase {
	for _, m := range s.PeakMonths {
		if time.Month(m) == month {
			return PhasePeak
		}
	}
	for _, m := range s.ShoulderMonths {
		if time.Month(m) == month {
			return PhaseShoulder
		}
	}
	return PhaseOff
}

// FactorAt returns the demand multiplier for month.
func (s Season) FactorAt(month time.Month) float64 {
	switch s.PhaseAt(month) {
	case PhasePeak:
		return s.PeakFactor
	case PhaseShoulder:
		return s.ShoulderFactor
	default:
		return s.OffFactor
	}
}

// Category groups keywords that share a resale multiplier adjustment.
type Category struct {
	Name       string   `mapstructure:"name" json:"name"`
	Keywords   []string `mapstructure:"keywords" json:"keywords"`
	Adjustment float64  `mapstructure:"adjustment" json:"adjustment"`
}

// CompetitionLists are keyword fragments for saturated, contested and
// specialized markets.
type CompetitionLists struct {
	High   []string `mapstructure:"high" json:"high"`
	Medium []string `mapstructure:"medium" json:"medium"`
	Low    []string `mapstructure:"low" json:"low"`
}

// RegulatoryLists are keyword fragments for regulated product types.
type RegulatoryLists struct {
	Restricted []string `mapstructure:"restricted" json:"restricted"`
	Secondary  []string `mapstructure:"secondary" json:"secondary"`
}

// Catalog holds every lexical table used to classify a keyword.
type Catalog struct {
	Seasons     []Season         `mapstructure:"seasons" json:"seasons"`
	Categories  []Category       `mapstructure:"categories" json:"categories"`
	Competition CompetitionLists `mapstructure:"competition" json:"competition"`
	Regulatory  RegulatoryLists  `mapstructure:"regulatory" json:"regulatory"`
}

// MatchSeasons returns the seasons whose keywords occur in keyword, in catalog order.
func (c *Catalog) MatchSeasons(keyword string) []Season {
	var out []Season
	for _, s := range c.Seasons {
		if ContainsAny(keyword, s.Keywords) {
			out = append(out, s)
		}
	}
	return out
}

// CompetitionTierFor classifies keyword: saturated list wins, then specialized.
func (c *Catalog) CompetitionTierFor(keyword string) Tier {
	switch {
	case ContainsAny(keyword, c.Competition.High):
		return TierHigh
	case ContainsAny(keyword, c.Competition.Low):
		return TierLow
	default:
		return TierMedium
	}
}

// CategoryFor returns the first category whose keywords match, or DefaultCategory.
func (c *Catalog) CategoryFor(keyword string) string {
	for _, cat := range c.Categories {
		if ContainsAny(keyword, cat.Keywords) {
			return cat.Name
		}
	}
	return DefaultCategory
}

// CategoryAdjustment returns the summed multiplier adjustment of every
// category whose keywords occur in keyword. Category labels are not consulted.
func (c *Catalog) CategoryAdjustment(keyword string) float64 {
	var adj float64
	for _, cat := range c.Categories {
		if ContainsAny(keyword, cat.Keywords) {
			adj += cat.Adjustment
		}
	}
	return adj
}

// Validate checks month ranges and factors.
func (c *Catalog) Validate() error {
	for _, s := range c.Seasons {
		if s.Name == "" {
			return fmt.Errorf("season without a name")
		}
		if len(s.Keywords) == 0 {
			return fmt.Errorf("season %q has no keywords", s.Name)
		}
		for _, m := range append(append([]int{}, s.PeakMonths...), s.ShoulderMonths...) {
			if m < 1 || m > 12 {
				return fmt.Errorf("season %q: month %d out of range", s.Name, m)
			}
		}
		if s.PeakFactor <= 0 || s.ShoulderFactor <= 0 || s.OffFactor <= 0 {
			return fmt.Errorf("season %q: factors must be positive", s.Name)
		}
	}
	for _, cat := range c.Categories {
		if cat.Name == "" {
			return fmt.Errorf("category without a name")
		}
	}
	return nil
}

// ContainsAny reports whether keyword contains any fragment, ignoring case.
func ContainsAny(keyword string, fragments []string) bool {
	k := strings.ToLower(keyword)
	for _, f := range fragments {
		if f == "" {
			continue
		}
		if strings.Contains(k, strings.ToLower(f)) {
			return true
		}
	}
	return false
}

// DefaultCatalog returns the compiled-in lexical tables.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Seasons: []Season{
			{
				Name:           "christmas",
				Keywords:       []string{"christmas", "xmas", "santa", "ornament", "advent", "holiday"},
				PeakMonths:     []int{11, 12},
				ShoulderMonths: []int{10},
				PeakFactor:     1.8, ShoulderFactor: 1.3, OffFactor: 0.7,
			},
			{
				Name:           "summer",
				Keywords:       []string{"summer", "beach", "pool", "swim", "sunscreen", "camping", "cooling fan"},
				PeakMonths:     []int{6, 7, 8},
				ShoulderMonths: []int{5, 9},
				PeakFactor:     1.5, ShoulderFactor: 1.2, OffFactor: 0.8,
			},
			{
				Name:           "back-to-school",
				Keywords:       []string{"school", "backpack", "notebook", "stationery", "pencil", "lunch box"},
				PeakMonths:     []int{8, 9},
				ShoulderMonths: []int{7},
				PeakFactor:     1.6, ShoulderFactor: 1.2, OffFactor: 0.9,
			},
			{
				Name:           "fitness",
				Keywords:       []string{"fitness", "yoga", "gym", "workout", "dumbbell", "resistance band"},
				PeakMonths:     []int{1, 2},
				ShoulderMonths: []int{3, 9},
				PeakFactor:     1.5, ShoulderFactor: 1.2, OffFactor: 0.9,
			},
		},
		Categories: []Category{
			{
				Name: "tech",
				Keywords: []string{"wireless", "bluetooth", "smart", "usb", "led", "charger", "phone",
					"earbuds", "headphone", "speaker", "gadget", "camera"},
				Adjustment: 0.3,
			},
			{
				Name:       "luxury",
				Keywords:   []string{"leather", "silk", "gold", "premium", "designer", "cashmere"},
				Adjustment: 0.5,
			},
			{
				Name:       "generic",
				Keywords:   []string{"case", "cable", "sticker", "keychain", "basic", "holder"},
				Adjustment: -0.2,
			},
		},
		Competition: CompetitionLists{
			High: []string{"phone case", "charger", "cable", "earbuds", "led strip", "screen protector",
				"fidget", "t-shirt", "sticker"},
			Medium: []string{"bluetooth", "wireless", "yoga mat", "water bottle", "backpack", "jewelry"},
			Low:    []string{"handmade", "custom", "organic", "artisan", "niche", "personalized", "vintage"},
		},
		Regulatory: RegulatoryLists{
			Restricted: []string{"electronic", "battery", "medical", "food", "cosmetic", "toy",
				"supplement", "charger", "lithium"},
			Secondary: []string{"automotive", "car", "jewelry", "clothing", "apparel"},
		},
	}
}
