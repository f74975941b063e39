package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"MarketScreener/internal/model"
)

// MarketData supplies price history and issuer metadata for a symbol.
// Implementations report missing or failed lookups as *SymbolUnavailableError.
type MarketData interface {
	FetchPriceSeries(ctx context.Context, symbol string, days int) (*model.PriceSeries, error)
	FetchProfile(ctx context.Context, symbol string) (*model.IssuerProfile, error)
	Name() string
}

// SymbolUnavailableError reports that a provider could not supply data for a symbol.
type SymbolUnavailableError struct {
	Symbol string
	Source string
	Reason string
	Err    error
}

func (e *SymbolUnavailableError) Error() string {
	msg := fmt.Sprintf("%s: %s unavailable", e.Source, e.Symbol)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SymbolUnavailableError) Unwrap() error { return e.Err }

func unavailable(source, symbol, reason string, err error) error {
	return &SymbolUnavailableError{Symbol: symbol, Source: source, Reason: reason, Err: err}
}

// newHTTPClient builds a client with the standard timeout and an optional proxy.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// normalizeBars sorts bars by date, drops empty bars and keeps the last bar of a duplicated day.
func normalizeBars(bars []model.OHLCV) []model.OHLCV {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	out := bars[:0]
	for _, b := range bars {
		if b.Open == 0 && b.High == 0 && b.Low == 0 && b.Close == 0 {
			continue // null bars (holidays etc.)
		}
		if n := len(out); n > 0 && sameDay(out[n-1].Date, b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func trimTail(bars []model.OHLCV, days int) []model.OHLCV {
	if days > 0 && len(bars) > days {
		return bars[len(bars)-days:]
	}
	return bars
}

func averageVolume(bars []model.OHLCV) float64 {
	if len(bars) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range bars {
		sum += b.Volume
	}
	return sum / float64(len(bars))
}

// calendarDays converts a count of trading days to a calendar lookback with some slack.
func calendarDays(tradingDays int) int {
	return tradingDays*365/252 + 10
}
