package calculator

import "MarketScreener/internal/model"

// PerfectOrder checks moving averages ordered from shortest to longest
// period. Bullish means strictly decreasing values, bearish strictly
// increasing. Any absent input makes both false.
func PerfectOrder(mas ...model.Value) (bullish, bearish bool) {
	if len(mas) < 2 {
		return false, false
	}
	vals := make([]float64, len(mas))
	for i, ma := range mas {
		v, ok := ma.Get()
		if !ok {
			return false, false
		}
		vals[i] = v
	}
	bullish, bearish = true, true
	for i := 1; i < len(vals); i++ {
		if !(vals[i-1] > vals[i]) {
			bullish = false
		}
		if !(vals[i-1] < vals[i]) {
			bearish = false
		}
	}
	return bullish, bearish
}

// PerfectOrderSeries evaluates PerfectOrder at each index of aligned columns.
func PerfectOrderSeries(columns ...[]model.Value) (bullish, bearish []bool) {
	if len(columns) == 0 {
		return nil, nil
	}
	n := len(columns[0])
	bullish = make([]bool, n)
	bearish = make([]bool, n)
	row := make([]model.Value, len(columns))
	for i := 0; i < n; i++ {
		for c, col := range columns {
			if i < len(col) {
				row[c] = col[i]
			} else {
				row[c] = model.Absent
			}
		}
		bullish[i], bearish[i] = PerfectOrder(row...)
	}
	return bullish, bearish
}
