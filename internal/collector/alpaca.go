package collector

import (
	"context"
	"time"

	"MarketScreener/internal/model"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

const alpacaPaperURL = "https://paper-api.alpaca.markets"

// AlpacaProvider implements MarketData with the Alpaca trading and market data APIs.
// Alpaca assets carry no sector or market capitalization.
type AlpacaProvider struct {
	trading *alpaca.Client
	data    *marketdata.Client
	feed    string
}

// NewAlpacaProvider creates a provider. An empty baseURL selects the paper endpoint;
// feed is "iex" for free accounts or "sip".
func NewAlpacaProvider(apiKey, apiSecret, baseURL, feed string) *AlpacaProvider {
	if baseURL == "" {
		baseURL = alpacaPaperURL
	}
	if feed == "" {
		feed = "iex"
	}
	return &AlpacaProvider{
		trading: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
		data: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
		feed: feed,
	}
}

func (p *AlpacaProvider) Name() string { return "alpaca" }

func (p *AlpacaProvider) bars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(p.Name(), symbol, "cancelled", err)
	}
	end := time.Now()
	raw, err := p.data.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     end.AddDate(0, 0, -calendarDays(days)),
		End:       end,
		Feed:      marketdata.Feed(p.feed),
	})
	if err != nil {
		return nil, unavailable(p.Name(), symbol, "get bars", err)
	}
	bars := make([]model.OHLCV, len(raw))
	for i, b := range raw {
		bars[i] = model.OHLCV{
			Date:   b.Timestamp.UTC(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: float64(b.Volume),
		}
	}
	return trimTail(normalizeBars(bars), days), nil
}

func (p *AlpacaProvider) FetchPriceSeries(ctx context.Context, symbol string, days int) (*model.PriceSeries, error) {
	bars, err := p.bars(ctx, symbol, days)
	if err != nil {
		return nil, err
	}
	return &model.PriceSeries{Symbol: symbol, Bars: bars, FetchedAt: time.Now()}, nil
}

// FetchProfile combines the asset record with a 30-day average volume.
func (p *AlpacaProvider) FetchProfile(ctx context.Context, symbol string) (*model.IssuerProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(p.Name(), symbol, "cancelled", err)
	}
	asset, err := p.trading.GetAsset(symbol)
	if err != nil {
		return nil, unavailable(p.Name(), symbol, "get asset", err)
	}
	bars, err := p.bars(ctx, symbol, 30)
	if err != nil {
		return nil, err
	}
	return &model.IssuerProfile{
		Symbol:        symbol,
		Name:          asset.Name,
		AverageVolume: averageVolume(bars),
		Exchange:      string(asset.Exchange),
		Country:       "US",
	}, nil
}

// TradableSymbols lists active, tradable US equities.
func (p *AlpacaProvider) TradableSymbols(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	assets, err := p.trading.GetAssets(alpaca.GetAssetsRequest{Status: "active"})
	if err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(assets))
	for _, a := range assets {
		if a.Class == "us_equity" && a.Tradable {
			symbols = append(symbols, a.Symbol)
		}
	}
	return symbols, nil
}
