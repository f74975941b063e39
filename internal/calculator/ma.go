package calculator

import "MarketScreener/internal/model"

// SMA computes the trailing simple moving average of values over period.
// The first period-1 points are absent. Each window is summed afresh
// relative to its first element, so a constant window averages to exactly
// that constant and an all-zero window to exactly zero.
func SMA(values []float64, period int) []model.Value {
	out := absentSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]
		ref := window[0]
		var sum float64
		for _, v := range window {
			sum += v - ref
		}
		out[i] = model.Some(ref + sum/float64(period))
	}
	return out
}

// SMAOf computes SMA over one field of the bars.
func SMAOf(bars []model.OHLCV, field Field, period int) []model.Value {
	return SMA(Extract(bars, field), period)
}

// EMA computes the exponential moving average with alpha = 2/(period+1),
// seeded with the first value. Every point is defined.
func EMA(values []float64, period int) []model.Value {
	out := absentSeries(len(values))
	if period <= 0 || len(values) == 0 {
		return out
	}
	alpha := 2.0 / float64(period+1)
	ema := values[0]
	out[0] = model.Some(ema)
	for i := 1; i < len(values); i++ {
		ema = alpha*values[i] + (1-alpha)*ema
		out[i] = model.Some(ema)
	}
	return out
}

// Distance returns (close - ma) / ma * 100 per point. Absent when ma is
// absent or zero.
func Distance(closes []float64, ma []model.Value) []model.Value {
	out := absentSeries(len(closes))
	for i := range closes {
		if i >= len(ma) {
			break
		}
		m, ok := ma[i].Get()
		if !ok || m == 0 {
			continue
		}
		out[i] = model.Some((closes[i] - m) / m * 100)
	}
	return out
}
