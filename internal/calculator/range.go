package calculator

import (
	"MarketScreener/internal/model"

	"github.com/markcheno/go-talib"
)

// TradingYear is the number of daily bars treated as 52 weeks.
const TradingYear = 252

// RollingMax returns the trailing maximum over period points.
func RollingMax(values []float64, period int) []model.Value {
	if period <= 0 || len(values) < period {
		return absentSeries(len(values))
	}
	if period == 1 {
		return warmup(values, 1)
	}
	return warmup(talib.Max(values, period), period)
}

// RollingMin returns the trailing minimum over period points.
func RollingMin(values []float64, period int) []model.Value {
	if period <= 0 || len(values) < period {
		return absentSeries(len(values))
	}
	if period == 1 {
		return warmup(values, 1)
	}
	return warmup(talib.Min(values, period), period)
}

// Week52Range returns the trailing max(high) and min(low) over a trading year.
// Both are absent until TradingYear bars have accumulated.
func Week52Range(bars []model.OHLCV) (high, low []model.Value) {
	high = RollingMax(Extract(bars, FieldHigh), TradingYear)
	low = RollingMin(Extract(bars, FieldLow), TradingYear)
	return high, low
}

// ADR computes the average daily range, the trailing mean of
// (high - low) / close * 100. A window holding a zero close is absent.
func ADR(bars []model.OHLCV, period int) []model.Value {
	n := len(bars)
	if period <= 0 || n < period {
		return absentSeries(n)
	}

	ranges := make([]float64, n)
	invalid := make([]bool, n)
	for i, b := range bars {
		if b.Close == 0 {
			invalid[i] = true
			continue
		}
		ranges[i] = (b.High - b.Low) / b.Close * 100
	}

	out := SMA(ranges, period)
	bad := 0
	for i := 0; i < n; i++ {
		if invalid[i] {
			bad++
		}
		if i >= period && invalid[i-period] {
			bad--
		}
		if bad > 0 {
			out[i] = model.Absent
		}
	}
	return out
}
