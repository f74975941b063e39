package calculator

import (
	"MarketScreener/internal/model"

	"github.com/markcheno/go-talib"
)

// BollingerBands holds the three band columns.
type BollingerBands struct {
	Upper  []model.Value
	Middle []model.Value
	Lower  []model.Value
}

// Bollinger computes bands around SMA(period) at k population standard
// deviations.
func Bollinger(values []float64, period int, k float64) BollingerBands {
	n := len(values)
	bands := BollingerBands{
		Upper:  absentSeries(n),
		Middle: SMA(values, period),
		Lower:  absentSeries(n),
	}
	if period <= 0 || n < period {
		return bands
	}

	var width []float64
	if period == 1 {
		width = make([]float64, n)
	} else {
		width = talib.StdDev(values, period, k)
	}
	for i := period - 1; i < n; i++ {
		mid, ok := bands.Middle[i].Get()
		if !ok {
			continue
		}
		bands.Upper[i] = model.Some(mid + width[i])
		bands.Lower[i] = model.Some(mid - width[i])
	}
	return bands
}
