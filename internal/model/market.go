package model

import (
	"fmt"
	"time"
)

// OHLCV represents a single daily bar.
type OHLCV struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries holds the daily bars of one symbol, oldest first.
type PriceSeries struct {
	Symbol    string
	Bars      []OHLCV
	FetchedAt time.Time
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Empty reports whether the series has no bars.
func (s *PriceSeries) Empty() bool { return s.Len() == 0 }

// Last returns the most recent bar.
func (s *PriceSeries) Last() (OHLCV, bool) {
	if s.Empty() {
		return OHLCV{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Validate checks that dates are strictly increasing and that each bar is well formed.
func (s *PriceSeries) Validate() error {
	for i, b := range s.Bars {
		if b.Volume < 0 {
			return fmt.Errorf("bar %d (%s): negative volume", i, b.Date.Format("2006-01-02"))
		}
		if b.Low > b.High {
			return fmt.Errorf("bar %d (%s): low %.4f above high %.4f", i, b.Date.Format("2006-01-02"), b.Low, b.High)
		}
		if i > 0 && !b.Date.After(s.Bars[i-1].Date) {
			return fmt.Errorf("bar %d (%s): dates not strictly increasing", i, b.Date.Format("2006-01-02"))
		}
	}
	return nil
}

// IssuerProfile is slow-changing per-symbol metadata.
type IssuerProfile struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Sector        string  `json:"sector"`
	Industry      string  `json:"industry,omitempty"`
	MarketCap     float64 `json:"market_cap"`
	AverageVolume float64 `json:"average_volume"`
	Exchange      string  `json:"exchange,omitempty"`
	Country       string  `json:"country,omitempty"`
}
