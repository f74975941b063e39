package collector

import (
	"context"
	"sync"
	"time"

	"MarketScreener/internal/model"
)

// MockProvider returns controllable fixed data for development and testing.
// Symbols without explicit series get a generated uptrend around Price.
type MockProvider struct {
	Price       float64
	Series      map[string][]model.OHLCV
	Profiles    map[string]*model.IssuerProfile
	Unavailable map[string]bool

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) record(symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[symbol]++
}

// Calls returns how many requests were made for symbol.
func (m *MockProvider) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

func (m *MockProvider) FetchPriceSeries(ctx context.Context, symbol string, days int) (*model.PriceSeries, error) {
	m.record(symbol)
	if err := ctx.Err(); err != nil {
		return nil, unavailable(m.Name(), symbol, "cancelled", err)
	}
	if m.Unavailable[symbol] {
		return nil, unavailable(m.Name(), symbol, "not found", nil)
	}
	if bars, ok := m.Series[symbol]; ok {
		return &model.PriceSeries{Symbol: symbol, Bars: trimTail(bars, days), FetchedAt: time.Now()}, nil
	}
	price := m.Price
	if price == 0 {
		price = 100
	}
	return &model.PriceSeries{Symbol: symbol, Bars: GenerateBars(price, days), FetchedAt: time.Now()}, nil
}

func (m *MockProvider) FetchProfile(ctx context.Context, symbol string) (*model.IssuerProfile, error) {
	m.record(symbol)
	if err := ctx.Err(); err != nil {
		return nil, unavailable(m.Name(), symbol, "cancelled", err)
	}
	if m.Unavailable[symbol] {
		return nil, unavailable(m.Name(), symbol, "not found", nil)
	}
	if p, ok := m.Profiles[symbol]; ok {
		cp := *p
		return &cp, nil
	}
	return &model.IssuerProfile{Symbol: symbol, Name: symbol, AverageVolume: 1_000_000}, nil
}

// GenerateBars builds count daily bars of a steady uptrend ending at basePrice.
func GenerateBars(basePrice float64, count int) []model.OHLCV {
	if count <= 0 {
		return nil
	}
	end := time.Now().UTC().Truncate(24 * time.Hour)
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count+1)*0.001)
		bars[i] = model.OHLCV{
			Date:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1_000_000,
		}
	}
	return bars
}
