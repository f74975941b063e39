package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"MarketScreener/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooProvider implements MarketData using the Yahoo Finance chart API.
type YahooProvider struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooProvider creates a Yahoo Finance provider with optional proxy support.
func NewYahooProvider(proxyURL string) *YahooProvider {
	return &YahooProvider{
		BaseURL: yahooBaseURL,
		Client:  newHTTPClient(proxyURL),
		SymbolMap: map[string]string{
			"SPX":   "^GSPC",
			"SP500": "^GSPC",
		},
	}
}

func (f *YahooProvider) Name() string { return "yahoo" }

func (f *YahooProvider) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol           string  `json:"symbol"`
				Currency         string  `json:"currency"`
				ExchangeName     string  `json:"exchangeName"`
				FullExchangeName string  `json:"fullExchangeName"`
				InstrumentType   string  `json:"instrumentType"`
				LongName         string  `json:"longName"`
				ShortName        string  `json:"shortName"`
				MarketPrice      float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func at(values []interface{}, i int) float64 {
	if i >= len(values) {
		return 0
	}
	return toFloat(values[i])
}

func (f *YahooProvider) fetchChart(ctx context.Context, symbol, rng string) (*yahooChart, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, unavailable(f.Name(), symbol, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, unavailable(f.Name(), symbol, "read body", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, unavailable(f.Name(), symbol, "not found", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, unavailable(f.Name(), symbol, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, unavailable(f.Name(), symbol, "decode", err)
	}
	if chart.Chart.Error != nil {
		return nil, unavailable(f.Name(), symbol, chart.Chart.Error.Description, nil)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, unavailable(f.Name(), symbol, "no data returned", nil)
	}
	return &chart, nil
}

func (f *YahooProvider) chartBars(chart *yahooChart) []model.OHLCV {
	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		bars = append(bars, model.OHLCV{
			Date:   time.Unix(ts, 0).UTC(),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  at(quote.Close, i),
			Volume: at(quote.Volume, i),
		})
	}
	return normalizeBars(bars)
}

func yahooRange(days int) string {
	switch {
	case days <= 21:
		return "1mo"
	case days <= 63:
		return "3mo"
	case days <= 126:
		return "6mo"
	case days <= 252:
		return "1y"
	case days <= 504:
		return "2y"
	default:
		return "5y"
	}
}

// FetchPriceSeries returns up to days daily bars, oldest first.
func (f *YahooProvider) FetchPriceSeries(ctx context.Context, symbol string, days int) (*model.PriceSeries, error) {
	chart, err := f.fetchChart(ctx, symbol, yahooRange(days))
	if err != nil {
		return nil, err
	}
	return &model.PriceSeries{
		Symbol:    symbol,
		Bars:      trimTail(f.chartBars(chart), days),
		FetchedAt: time.Now(),
	}, nil
}

// FetchProfile builds a profile from the chart metadata and three months of volume.
// The chart API carries no sector or market capitalization.
func (f *YahooProvider) FetchProfile(ctx context.Context, symbol string) (*model.IssuerProfile, error) {
	chart, err := f.fetchChart(ctx, symbol, "3mo")
	if err != nil {
		return nil, err
	}
	meta := chart.Chart.Result[0].Meta
	name := meta.LongName
	if name == "" {
		name = meta.ShortName
	}
	if name == "" {
		name = symbol
	}
	exchange := meta.FullExchangeName
	if exchange == "" {
		exchange = meta.ExchangeName
	}
	return &model.IssuerProfile{
		Symbol:        symbol,
		Name:          name,
		AverageVolume: averageVolume(f.chartBars(chart)),
		Exchange:      exchange,
	}, nil
}
