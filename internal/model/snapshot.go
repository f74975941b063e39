package model

import "time"

// Snapshot holds every indicator of one symbol at a single bar.
type Snapshot struct {
	Date   time.Time `json:"date"`
	Price  float64   `json:"price"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Volume float64   `json:"volume"`

	MA10  Value `json:"ma_10"`
	MA20  Value `json:"ma_20"`
	MA50  Value `json:"ma_50"`
	MA150 Value `json:"ma_150"`
	MA200 Value `json:"ma_200"`
	EMA10 Value `json:"ema_10"`
	EMA21 Value `json:"ema_21"`

	RSI14 Value `json:"rsi_14"`
	ADR20 Value `json:"adr_20"`
	VWAP  Value `json:"vwap"`

	BBUpper  Value `json:"bb_upper"`
	BBMiddle Value `json:"bb_middle"`
	BBLower  Value `json:"bb_lower"`

	VolumeAvg20 Value `json:"volume_avg_20"`
	Week52High  Value `json:"week_52_high"`
	Week52Low   Value `json:"week_52_low"`

	DistanceMA10  Value `json:"distance_ma_10"`
	DistanceMA20  Value `json:"distance_ma_20"`
	DistanceMA50  Value `json:"distance_ma_50"`
	DistanceMA200 Value `json:"distance_ma_200"`

	PerfectOrderBullish bool `json:"perfect_order_bullish"`
	PerfectOrderBearish bool `json:"perfect_order_bearish"`
}

// AboveMA reports whether price is strictly above ma. Absent ma yields absent.
func (s *Snapshot) AboveMA(ma Value) Value {
	m, ok := ma.Get()
	if !ok {
		return Absent
	}
	if s.Price > m {
		return Some(1)
	}
	return Some(0)
}

// ScreenResult is one admitted symbol of a screening run.
type ScreenResult struct {
	Symbol     string   `json:"symbol"`
	Name       string   `json:"name"`
	Sector     string   `json:"sector"`
	Price      float64  `json:"price"`
	MarketCap  float64  `json:"market_cap"`
	Indicators Snapshot `json:"technical_indicators"`
	Score      int      `json:"score"`
}
