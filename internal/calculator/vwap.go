package calculator

import "MarketScreener/internal/model"

// VWAP computes the cumulative volume weighted average price anchored at the
// first bar, using the typical price (high + low + close) / 3. Points with
// zero cumulative volume are absent.
func VWAP(bars []model.OHLCV) []model.Value {
	out := absentSeries(len(bars))
	var pv, vol float64
	for i, b := range bars {
		tp := (b.High + b.Low + b.Close) / 3
		pv += tp * b.Volume
		vol += b.Volume
		if vol == 0 {
			continue
		}
		out[i] = model.Some(pv / vol)
	}
	return out
}
