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

// RESTProvider implements MarketData against a self-hosted JSON bar service:
//
//	GET {base}/api/v1/bars/daily?symbol=X&limit=N  -> [{timestamp,open,high,low,close,volume}]
//	GET {base}/api/v1/profile?symbol=X             -> IssuerProfile
type RESTProvider struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTProvider creates a provider with optional proxy support.
func NewRESTProvider(baseURL, apiKey, proxyURL string) *RESTProvider {
	return &RESTProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *RESTProvider) Name() string { return "rest" }

// restBar is the expected JSON shape of one bar.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func (f *RESTProvider) FetchPriceSeries(ctx context.Context, symbol string, days int) (*model.PriceSeries, error) {
	q := url.Values{"symbol": {symbol}, "limit": {fmt.Sprint(days)}}
	var raw []restBar
	if err := f.get(ctx, symbol, "/api/v1/bars/daily?"+q.Encode(), &raw); err != nil {
		return nil, err
	}
	bars := make([]model.OHLCV, len(raw))
	for i, rb := range raw {
		bars[i] = model.OHLCV{
			Date:   time.Unix(rb.Timestamp, 0).UTC(),
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: rb.Volume,
		}
	}
	return &model.PriceSeries{
		Symbol:    symbol,
		Bars:      trimTail(normalizeBars(bars), days),
		FetchedAt: time.Now(),
	}, nil
}

func (f *RESTProvider) FetchProfile(ctx context.Context, symbol string) (*model.IssuerProfile, error) {
	var p model.IssuerProfile
	if err := f.get(ctx, symbol, "/api/v1/profile?"+url.Values{"symbol": {symbol}}.Encode(), &p); err != nil {
		return nil, err
	}
	if p.Symbol == "" {
		p.Symbol = symbol
	}
	return &p, nil
}

func (f *RESTProvider) get(ctx context.Context, symbol, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+path, nil)
	if err != nil {
		return err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return unavailable(f.Name(), symbol, "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return unavailable(f.Name(), symbol, "not found", nil)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return unavailable(f.Name(), symbol, fmt.Sprintf("status %d, body: %s", resp.StatusCode, string(body)), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return unavailable(f.Name(), symbol, "decode", err)
	}
	return nil
}
