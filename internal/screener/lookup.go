package screener

import (
	"context"
	"fmt"

	"MarketScreener/internal/calculator"
	"MarketScreener/internal/collector"
	"MarketScreener/internal/model"
	"MarketScreener/internal/strategy"
	"MarketScreener/internal/universe"

	"github.com/phuslu/log"
)

// HistoryBars is the chart length attached to a lookup report.
const HistoryBars = 90

// Report is the single-stock analysis returned by Lookup.
type Report struct {
	Symbol       string                    `json:"symbol"`
	Name         string                    `json:"name"`
	Sector       string                    `json:"sector"`
	Industry     string                    `json:"industry"`
	Exchange     string                    `json:"exchange"`
	MarketCap    float64                   `json:"market_cap"`
	Price        float64                   `json:"current_price"`
	Change1D     model.Value               `json:"change_1d"`
	Indicators   model.Snapshot            `json:"technical_indicators"`
	Score        int                       `json:"score"`
	Factors      []model.FactorScore       `json:"factors"`
	VolumeRatio  model.Value               `json:"volume_ratio"`
	DollarVolume float64                   `json:"dollar_volume"`
	Decision     model.InvestmentDecision  `json:"investment_decision"`
	PriceLevels  *model.PriceLevels        `json:"price_levels,omitempty"`
	History      []calculator.HistoryPoint `json:"historical_data"`
}

// Analyzer produces lookup reports.
type Analyzer struct {
	Collector *collector.Collector
	Scorer    *strategy.Scorer
}

// NewAnalyzer creates an Analyzer scored with the lookup preset of reg.
func NewAnalyzer(col *collector.Collector, reg *strategy.Registry) (*Analyzer, error) {
	scorer, ok := reg.Get(strategy.PresetLookup)
	if !ok {
		return nil, fmt.Errorf("scoring preset %q not registered", strategy.PresetLookup)
	}
	return &Analyzer{Collector: col, Scorer: scorer}, nil
}

// Lookup analyzes one symbol. A missing profile degrades to the symbol alone.
func (a *Analyzer) Lookup(ctx context.Context, symbol string) (*Report, error) {
	symbol = universe.NormalizeSymbol(symbol)
	is, err := a.Collector.Collect(ctx, symbol)
	if err != nil {
		return nil, err
	}
	snap, err := is.Latest()
	if err != nil {
		return nil, err
	}
	profile, err := a.Collector.Profile(ctx, symbol)
	if err != nil {
		log.Warn().Str("symbol", symbol).Err(err).Msg("profile unavailable")
		profile = &model.IssuerProfile{Symbol: symbol, Name: symbol}
	}

	factors, score := a.Scorer.Breakdown(&snap, profile)
	decision := strategy.Decide(&snap, profile)

	r := &Report{
		Symbol:       symbol,
		Name:         profile.Name,
		Sector:       profile.Sector,
		Industry:     profile.Industry,
		Exchange:     profile.Exchange,
		MarketCap:    profile.MarketCap,
		Price:        snap.Price,
		Change1D:     change(is),
		Indicators:   snap,
		Score:        score,
		Factors:      factors,
		VolumeRatio:  model.Absent,
		DollarVolume: snap.Price * snap.Volume,
		Decision:     decision,
		History:      is.Tail(HistoryBars),
	}
	if avg, ok := snap.VolumeAvg20.Get(); ok && avg > 0 {
		r.VolumeRatio = model.Some(snap.Volume / avg)
	}
	if decision.Action == model.ActionBuy {
		r.PriceLevels = strategy.CalculatePriceLevels(&snap, decision.Action)
	}
	return r, nil
}

// change is the percent move of the last close over the previous one.
func change(is *calculator.IndicatorSeries) model.Value {
	n := is.Len()
	if n < 2 || is.Bars[n-2].Close == 0 {
		return model.Absent
	}
	prev := is.Bars[n-2].Close
	return model.Some((is.Bars[n-1].Close - prev) / prev * 100)
}
