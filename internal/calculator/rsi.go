package calculator

import (
	"math"

	"MarketScreener/internal/model"
)

// RSI computes the relative strength index from simple trailing means of
// gains and losses. The first period points are absent. A window with no
// losses saturates to 100. Results are clamped to [0, 100].
func RSI(closes []float64, period int) []model.Value {
	out := absentSeries(len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}

	avgGain := SMA(gains, period)
	avgLoss := SMA(losses, period)
	for k := range gains {
		g, ok := avgGain[k].Get()
		if !ok {
			continue
		}
		l, _ := avgLoss[k].Get()
		if l <= 0 {
			out[k+1] = model.Some(100)
			continue
		}
		rs := g / l
		out[k+1] = model.Some(math.Max(0, math.Min(100, 100-100/(1+rs))))
	}
	return out
}
