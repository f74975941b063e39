package screener

import (
	"MarketScreener/internal/model"
	"MarketScreener/internal/strategy"
)

// Preset is a named filter configuration with an optional result limit.
// Limit is applied by callers; Screen always returns the full ranking.
type Preset struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Filters     FilterSpec `json:"filters"`
	Limit       int        `json:"limit,omitempty"`
	Scoring     string     `json:"scoring"`
}

func ptr(v float64) *float64 { return &v }

func between(lo, hi float64) *Range { return &Range{Min: ptr(lo), Max: ptr(hi)} }

var presets = []Preset{
	{
		ID:          "short_term_momentum",
		Name:        "Short-term momentum",
		Description: "High ADR, liquid, above the 200-day average with a volume surge",
		Filters: FilterSpec{Technical: TechnicalFilter{
			PriceAboveMA: &PriceAboveMA{MA200: true},
			ADR20:        between(4, 100),
			Volume:       &VolumeFilter{DollarVolumeMin: ptr(60_000_000), VolumeSurge: ptr(1.5)},
		}},
	},
	{
		ID:          "perfect_order",
		Name:        "Perfect order",
		Description: "Moving averages stacked 10 > 20 > 50 > 150 > 200",
		Filters: FilterSpec{Technical: TechnicalFilter{
			MAAlignment: &MAAlignment{Enabled: true, Order: "bullish"},
			ADR20:       between(4, 100),
		}},
	},
	{
		ID:          "week_52_breakout",
		Name:        "52-week breakout",
		Description: "New yearly high on twice the average volume",
		Filters: FilterSpec{Technical: TechnicalFilter{
			Week52: &Week52Filter{NewHigh: true},
			Volume: &VolumeFilter{VolumeSurge: ptr(2.0)},
			RSI14:  between(50, 80),
		}},
	},
	{
		ID:          "top_10_recommended",
		Name:        "Top 10 recommended",
		Description: "Confirmed uptrend with a buy setup, best ten by score",
		Filters: FilterSpec{Technical: TechnicalFilter{
			PriceAboveMA: &PriceAboveMA{MA200: true},
			ADR20:        between(2, 100),
			RSI14:        between(30, 60),
			Volume:       &VolumeFilter{DollarVolumeMin: ptr(50_000_000)},
		}},
		Limit: 10,
	},
	{
		ID:          "affordable_stocks",
		Name:        "Affordable stocks",
		Description: "Priced $5-100 with moderate range and liquidity",
		Filters: FilterSpec{
			Technical: TechnicalFilter{
				ADR20:  between(2, 100),
				RSI14:  between(25, 70),
				Volume: &VolumeFilter{DollarVolumeMin: ptr(10_000_000)},
			},
			Fundamental: &FundamentalFilter{PriceRange: between(5, 100)},
		},
	},
	{
		ID:          "affordable_buy_stocks",
		Name:        "Affordable buy candidates",
		Description: "Affordable stocks without a sell signal",
		Filters: FilterSpec{
			Technical: TechnicalFilter{
				ADR20:  between(2, 100),
				RSI14:  between(25, 70),
				Volume: &VolumeFilter{DollarVolumeMin: ptr(10_000_000)},
			},
			Fundamental: &FundamentalFilter{
				PriceRange:         between(5, 100),
				InvestmentDecision: []model.Action{model.ActionBuy, model.ActionHold},
			},
		},
	},
	{
		ID:          "ultra_low_price_stocks",
		Name:        "Ultra low price",
		Description: "Priced $1-50 for small accounts",
		Filters: FilterSpec{
			Technical: TechnicalFilter{
				ADR20:  between(2, 100),
				RSI14:  between(25, 70),
				Volume: &VolumeFilter{DollarVolumeMin: ptr(5_000_000)},
			},
			Fundamental: &FundamentalFilter{PriceRange: between(1, 50)},
		},
	},
	{
		ID:          "ultra_low_price_buy_stocks",
		Name:        "Ultra low price buy candidates",
		Description: "Priced $1-50 without a sell signal",
		Filters: FilterSpec{
			Technical: TechnicalFilter{
				ADR20:  between(2, 100),
				RSI14:  between(25, 70),
				Volume: &VolumeFilter{DollarVolumeMin: ptr(5_000_000)},
			},
			Fundamental: &FundamentalFilter{
				PriceRange:         between(1, 50),
				InvestmentDecision: []model.Action{model.ActionBuy, model.ActionHold},
			},
		},
	},
}

func init() {
	for i := range presets {
		if presets[i].Scoring == "" {
			presets[i].Scoring = strategy.PresetScreener
		}
	}
}

// Presets returns the built-in presets in display order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// PresetByID looks up a built-in preset.
func PresetByID(id string) (Preset, bool) {
	for _, p := range presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// Top truncates results to the preset limit, if any.
func (p Preset) Top(results []model.ScreenResult) []model.ScreenResult {
	if p.Limit > 0 && len(results) > p.Limit {
		return results[:p.Limit]
	}
	return results
}
