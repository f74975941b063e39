package calculator

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"MarketScreener/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBars(closes []float64) []model.OHLCV {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func linear(n int, from, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + float64(i)*step
	}
	return out
}

func mustGet(t *testing.T, v model.Value) float64 {
	t.Helper()
	f, ok := v.Get()
	require.True(t, ok, "expected value to be present")
	return f
}

func TestSMA(t *testing.T) {
	out := SMA([]float64{10, 12, 11, 13, 15}, 3)
	require.Len(t, out, 5)
	assert.False(t, out[0].Valid())
	assert.False(t, out[1].Valid())
	assert.InDelta(t, 11.0, mustGet(t, out[2]), 1e-9)
	assert.InDelta(t, 12.0, mustGet(t, out[3]), 1e-9)
	assert.InDelta(t, 13.0, mustGet(t, out[4]), 1e-9)
}

func TestSMA_ShortOrInvalidPeriod(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		period int
	}{
		{"period longer than series", []float64{1, 2}, 3},
		{"zero period", []float64{1, 2, 3}, 0},
		{"negative period", []float64{1, 2, 3}, -4},
		{"empty", nil, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := SMA(tt.values, tt.period)
			require.Len(t, out, len(tt.values))
			for _, v := range out {
				assert.False(t, v.Valid())
			}
		})
	}
}

func TestSMAOf_Volume(t *testing.T) {
	bars := makeBars([]float64{1, 2, 3})
	bars[2].Volume = 4000
	out := SMAOf(bars, FieldVolume, 3)
	assert.InDelta(t, 2000.0, mustGet(t, out[2]), 1e-9)
}

func TestEMA_SeededWithFirstValue(t *testing.T) {
	out := EMA([]float64{1, 2, 3}, 3)
	require.Len(t, out, 3)
	assert.InDelta(t, 1.0, mustGet(t, out[0]), 1e-12)
	assert.InDelta(t, 1.5, mustGet(t, out[1]), 1e-12)
	assert.InDelta(t, 2.25, mustGet(t, out[2]), 1e-12)
}

func TestRSI_AllGainsSaturates(t *testing.T) {
	closes := linear(30, 100, 1)
	out := RSI(closes, 14)
	for i := 0; i < 14; i++ {
		assert.False(t, out[i].Valid(), "index %d should be absent", i)
	}
	for i := 14; i < len(out); i++ {
		assert.Equal(t, 100.0, mustGet(t, out[i]))
	}
}

func TestRSI_AlternatingIsFifty(t *testing.T) {
	out := RSI([]float64{1, 2, 1, 2, 1}, 2)
	assert.False(t, out[1].Valid())
	assert.InDelta(t, 50.0, mustGet(t, out[2]), 1e-9)
	assert.InDelta(t, 50.0, mustGet(t, out[4]), 1e-9)
}

func TestRSI_Bounded(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/3) - float64(i)*0.2
	}
	for _, v := range RSI(closes, 14) {
		if f, ok := v.Get(); ok {
			assert.GreaterOrEqual(t, f, 0.0)
			assert.LessOrEqual(t, f, 100.0)
		}
	}
}

func TestRSI_FractionalClosesStayInRange(t *testing.T) {
	const period = 14
	for seed := int64(1); seed <= 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		closes := make([]float64, 0, 31)
		price := 50 + rng.Float64()*50
		for i := 0; i < 16; i++ {
			closes = append(closes, price)
			price -= rng.Float64() * 1.7
		}
		for i := 0; i < 15; i++ {
			price += rng.Float64() * 1.3
			closes = append(closes, price)
		}

		out := RSI(closes, period)
		for i, v := range out {
			f, ok := v.Get()
			if !ok {
				continue
			}
			assert.GreaterOrEqual(t, f, 0.0, "seed %d index %d", seed, i)
			assert.LessOrEqual(t, f, 100.0, "seed %d index %d", seed, i)
			if i >= period && nonDecreasing(closes[i-period:i+1]) {
				assert.Equal(t, 100.0, f, "seed %d index %d", seed, i)
			}
		}
		assert.Equal(t, 100.0, mustGet(t, out[len(out)-1]), "seed %d", seed)
	}
}

func TestRSI_RandomWalkBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	closes := make([]float64, 300)
	price := 123.456
	for i := range closes {
		price += (rng.Float64() - 0.45) * 2.3
		closes[i] = price
	}
	for i, v := range RSI(closes, 14) {
		if f, ok := v.Get(); ok {
			assert.GreaterOrEqual(t, f, 0.0, "index %d", i)
			assert.LessOrEqual(t, f, 100.0, "index %d", i)
			if i >= 14 && nonDecreasing(closes[i-14:i+1]) {
				assert.Equal(t, 100.0, f, "index %d", i)
			}
		}
	}
}

func nonDecreasing(values []float64) bool {
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			return false
		}
	}
	return true
}

func TestSMA_ConstantWindowIsExact(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for n := 0; n < 20; n++ {
		c := rng.Float64() * 200
		values := make([]float64, 40)
		for i := range values {
			values[i] = c
		}
		for _, period := range []int{3, 10, 20, 40} {
			out := SMA(values, period)
			assert.Equal(t, c, mustGet(t, out[len(out)-1]), "period %d", period)
		}
	}
}

func TestADR(t *testing.T) {
	bars := makeBars([]float64{100, 100, 100, 50})
	out := ADR(bars, 3)
	assert.False(t, out[1].Valid())
	assert.InDelta(t, 2.0, mustGet(t, out[2]), 1e-9)
	assert.InDelta(t, (2.0+2.0+4.0)/3, mustGet(t, out[3]), 1e-9)
}

func TestADR_ZeroCloseMasksWindow(t *testing.T) {
	bars := makeBars([]float64{100, 100, 100, 100, 100, 100})
	bars[1].Close = 0
	out := ADR(bars, 3)
	assert.False(t, out[2].Valid())
	assert.False(t, out[3].Valid())
	assert.True(t, out[4].Valid())
	assert.True(t, out[5].Valid())
}

func TestVWAP(t *testing.T) {
	bars := []model.OHLCV{
		{High: 11, Low: 9, Close: 10, Volume: 0},
		{High: 11, Low: 9, Close: 10, Volume: 100},
		{High: 21, Low: 19, Close: 20, Volume: 300},
	}
	out := VWAP(bars)
	assert.False(t, out[0].Valid())
	assert.InDelta(t, 10.0, mustGet(t, out[1]), 1e-9)
	assert.InDelta(t, 17.5, mustGet(t, out[2]), 1e-9)
}

func TestBollinger(t *testing.T) {
	b := Bollinger([]float64{1, 2, 3, 4, 5}, 5, 2)
	assert.False(t, b.Upper[3].Valid())
	assert.InDelta(t, 3.0, mustGet(t, b.Middle[4]), 1e-9)
	assert.InDelta(t, 3+2*math.Sqrt2, mustGet(t, b.Upper[4]), 1e-6)
	assert.InDelta(t, 3-2*math.Sqrt2, mustGet(t, b.Lower[4]), 1e-6)
}

func TestBollinger_FlatSeriesCollapses(t *testing.T) {
	values := []float64{7, 7, 7, 7, 7, 7}
	b := Bollinger(values, 4, 2)
	assert.InDelta(t, 7.0, mustGet(t, b.Upper[5]), 1e-9)
	assert.InDelta(t, 7.0, mustGet(t, b.Lower[5]), 1e-9)
}

func TestDistance(t *testing.T) {
	ma := []model.Value{model.Absent, model.Some(0), model.Some(100)}
	out := Distance([]float64{10, 10, 110}, ma)
	assert.False(t, out[0].Valid())
	assert.False(t, out[1].Valid())
	assert.InDelta(t, 10.0, mustGet(t, out[2]), 1e-9)
}

func TestPerfectOrder(t *testing.T) {
	tests := []struct {
		name    string
		mas     []model.Value
		bullish bool
		bearish bool
	}{
		{"bullish", []model.Value{model.Some(5), model.Some(4), model.Some(3), model.Some(2), model.Some(1)}, true, false},
		{"bearish", []model.Value{model.Some(1), model.Some(2), model.Some(3), model.Some(4), model.Some(5)}, false, true},
		{"tie breaks order", []model.Value{model.Some(5), model.Some(4), model.Some(4), model.Some(2), model.Some(1)}, false, false},
		{"absent member", []model.Value{model.Some(5), model.Some(4), model.Some(3), model.Some(2), model.Absent}, false, false},
		{"single", []model.Value{model.Some(5)}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bull, bear := PerfectOrder(tt.mas...)
			assert.Equal(t, tt.bullish, bull)
			assert.Equal(t, tt.bearish, bear)
		})
	}
}

func TestWeek52Range(t *testing.T) {
	bars := makeBars(linear(TradingYear+5, 10, 1))
	high, low := Week52Range(bars)
	assert.False(t, high[TradingYear-2].Valid())
	assert.False(t, low[TradingYear-2].Valid())

	last := len(bars) - 1
	assert.InDelta(t, bars[last].High, mustGet(t, high[last]), 1e-9)
	assert.InDelta(t, bars[last-TradingYear+1].Low, mustGet(t, low[last]), 1e-9)
}

func TestCompute_RisingSeriesSnapshot(t *testing.T) {
	series := &model.PriceSeries{Symbol: "UP", Bars: makeBars(linear(260, 50, 0.5))}
	is := Compute(series)
	require.Equal(t, 260, is.Len())

	snap, err := is.Latest()
	require.NoError(t, err)
	assert.Equal(t, series.Bars[259].Close, snap.Price)
	assert.True(t, snap.MA200.Valid())
	assert.True(t, snap.Week52High.Valid())
	assert.True(t, snap.PerfectOrderBullish)
	assert.False(t, snap.PerfectOrderBearish)
	assert.Equal(t, 100.0, mustGet(t, snap.RSI14))
	assert.Greater(t, mustGet(t, snap.DistanceMA200), 0.0)
}

func TestCompute_FlatSeriesHasNoPerfectOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for n := 0; n < 50; n++ {
		c := 1 + rng.Float64()*100
		closes := make([]float64, 260)
		for i := range closes {
			closes[i] = c
		}
		snap, err := Compute(&model.PriceSeries{Symbol: "FLAT", Bars: makeBars(closes)}).Latest()
		require.NoError(t, err)
		assert.False(t, snap.PerfectOrderBullish, "close %v", c)
		assert.False(t, snap.PerfectOrderBearish, "close %v", c)
		assert.Equal(t, c, mustGet(t, snap.MA10))
		assert.Equal(t, c, mustGet(t, snap.MA200))
		assert.Equal(t, 0.0, mustGet(t, snap.AboveMA(snap.MA200)), "close %v", c)
	}
}

func TestCompute_ShortSeriesHasAbsentLongAverages(t *testing.T) {
	is := Compute(&model.PriceSeries{Symbol: "NEW", Bars: makeBars(linear(30, 20, 0.1))})
	snap, err := is.Latest()
	require.NoError(t, err)
	assert.True(t, snap.MA20.Valid())
	assert.False(t, snap.MA50.Valid())
	assert.False(t, snap.MA200.Valid())
	assert.False(t, snap.DistanceMA200.Valid())
	assert.False(t, snap.PerfectOrderBullish)
	assert.True(t, snap.VWAP.Valid())
}

func TestSnapshot_EmptySeries(t *testing.T) {
	is := Compute(&model.PriceSeries{Symbol: "NONE"})
	_, err := is.Latest()
	var insufficient *InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, "NONE", insufficient.Symbol)

	_, err = Compute(nil).SnapshotAt(0)
	assert.Error(t, err)
}

func TestSnapshotAt_OutOfRange(t *testing.T) {
	is := Compute(&model.PriceSeries{Bars: makeBars([]float64{1, 2, 3})})
	_, err := is.SnapshotAt(3)
	assert.Error(t, err)

	snap, err := is.SnapshotAt(1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, snap.Price)
}
