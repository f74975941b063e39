package collector

import (
	"context"
	"errors"

	"MarketScreener/internal/calculator"
	"MarketScreener/internal/model"

	"github.com/phuslu/log"
)

// DefaultLookbackDays covers the 252-bar yearly window plus the 200-day average warm-up.
const DefaultLookbackDays = 300

// Collector orchestrates data fetching and indicator computation.
type Collector struct {
	Source       MarketData
	LookbackDays int
}

// NewCollector creates a new Collector.
func NewCollector(source MarketData, lookbackDays int) *Collector {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	return &Collector{Source: source, LookbackDays: lookbackDays}
}

// Collect fetches the price series of symbol and computes all indicators.
// An empty or malformed series is reported as *SymbolUnavailableError.
func (c *Collector) Collect(ctx context.Context, symbol string) (*calculator.IndicatorSeries, error) {
	series, err := c.Source.FetchPriceSeries(ctx, symbol, c.LookbackDays)
	if err != nil {
		var ue *SymbolUnavailableError
		if errors.As(err, &ue) {
			return nil, err
		}
		return nil, unavailable(c.Source.Name(), symbol, "fetch series", err)
	}
	if series.Empty() {
		return nil, unavailable(c.Source.Name(), symbol, "empty price series", nil)
	}
	if err := series.Validate(); err != nil {
		return nil, unavailable(c.Source.Name(), symbol, "malformed price series", err)
	}
	if series.Symbol == "" {
		series.Symbol = symbol
	}

	is := calculator.Compute(series)
	log.Debug().Str("symbol", symbol).Int("bars", is.Len()).Msg("indicators computed")
	return is, nil
}

// Profile fetches issuer metadata of symbol.
func (c *Collector) Profile(ctx context.Context, symbol string) (*model.IssuerProfile, error) {
	p, err := c.Source.FetchProfile(ctx, symbol)
	if err != nil {
		var ue *SymbolUnavailableError
		if errors.As(err, &ue) {
			return nil, err
		}
		return nil, unavailable(c.Source.Name(), symbol, "fetch profile", err)
	}
	if p == nil {
		return nil, unavailable(c.Source.Name(), symbol, "no profile", nil)
	}
	if p.Symbol == "" {
		p.Symbol = symbol
	}
	return p, nil
}
