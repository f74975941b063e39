package calculator

import "MarketScreener/internal/model"

// Default periods used by Compute.
const (
	RSIPeriod       = 14
	ADRPeriod       = 20
	BollingerPeriod = 20
	BollingerK      = 2.0
	VolumeAvgPeriod = 20
)

// IndicatorSeries is a price series augmented with index-aligned indicator columns.
type IndicatorSeries struct {
	Symbol string
	Bars   []model.OHLCV

	MA10, MA20, MA50, MA150, MA200 []model.Value
	EMA10, EMA21                   []model.Value

	RSI14 []model.Value
	ADR20 []model.Value
	VWAP  []model.Value
	Bands BollingerBands

	VolumeAvg20 []model.Value
	High52w     []model.Value
	Low52w      []model.Value

	DistMA10, DistMA20, DistMA50, DistMA200 []model.Value

	Bullish []bool
	Bearish []bool
}

// Compute derives every indicator column from the series. The series is not modified.
func Compute(series *model.PriceSeries) *IndicatorSeries {
	is := &IndicatorSeries{}
	if series == nil {
		return is
	}
	bars := series.Bars
	closes := extractCloses(bars)

	is.Symbol = series.Symbol
	is.Bars = bars
	is.MA10 = SMA(closes, 10)
	is.MA20 = SMA(closes, 20)
	is.MA50 = SMA(closes, 50)
	is.MA150 = SMA(closes, 150)
	is.MA200 = SMA(closes, 200)
	is.EMA10 = EMA(closes, 10)
	is.EMA21 = EMA(closes, 21)

	is.RSI14 = RSI(closes, RSIPeriod)
	is.ADR20 = ADR(bars, ADRPeriod)
	is.VWAP = VWAP(bars)
	is.Bands = Bollinger(closes, BollingerPeriod, BollingerK)

	is.VolumeAvg20 = SMAOf(bars, FieldVolume, VolumeAvgPeriod)
	is.High52w, is.Low52w = Week52Range(bars)

	is.DistMA10 = Distance(closes, is.MA10)
	is.DistMA20 = Distance(closes, is.MA20)
	is.DistMA50 = Distance(closes, is.MA50)
	is.DistMA200 = Distance(closes, is.MA200)

	is.Bullish, is.Bearish = PerfectOrderSeries(is.MA10, is.MA20, is.MA50, is.MA150, is.MA200)
	return is
}

// Len returns the number of bars.
func (is *IndicatorSeries) Len() int { return len(is.Bars) }

// Latest extracts the snapshot at the most recent bar.
func (is *IndicatorSeries) Latest() (model.Snapshot, error) {
	return is.SnapshotAt(is.Len() - 1)
}

// SnapshotAt extracts every indicator at index i.
func (is *IndicatorSeries) SnapshotAt(i int) (model.Snapshot, error) {
	if is.Len() == 0 {
		return model.Snapshot{}, &InsufficientDataError{Symbol: is.Symbol, Need: 1, Have: 0}
	}
	if i < 0 || i >= is.Len() {
		return model.Snapshot{}, &InsufficientDataError{Symbol: is.Symbol, Need: i + 1, Have: is.Len()}
	}

	bar := is.Bars[i]
	return model.Snapshot{
		Date:   bar.Date,
		Price:  bar.Close,
		High:   bar.High,
		Low:    bar.Low,
		Volume: bar.Volume,

		MA10:  is.MA10[i],
		MA20:  is.MA20[i],
		MA50:  is.MA50[i],
		MA150: is.MA150[i],
		MA200: is.MA200[i],
		EMA10: is.EMA10[i],
		EMA21: is.EMA21[i],

		RSI14: is.RSI14[i],
		ADR20: is.ADR20[i],
		VWAP:  is.VWAP[i],

		BBUpper:  is.Bands.Upper[i],
		BBMiddle: is.Bands.Middle[i],
		BBLower:  is.Bands.Lower[i],

		VolumeAvg20: is.VolumeAvg20[i],
		Week52High:  is.High52w[i],
		Week52Low:   is.Low52w[i],

		DistanceMA10:  is.DistMA10[i],
		DistanceMA20:  is.DistMA20[i],
		DistanceMA50:  is.DistMA50[i],
		DistanceMA200: is.DistMA200[i],

		PerfectOrderBullish: is.Bullish[i],
		PerfectOrderBearish: is.Bearish[i],
	}, nil
}

// HistoryPoint is one bar of a lookup chart with its main averages.
type HistoryPoint struct {
	model.OHLCV
	MA20  model.Value `json:"ma_20"`
	MA50  model.Value `json:"ma_50"`
	MA200 model.Value `json:"ma_200"`
}

// Tail returns the last n bars with their 20/50/200 averages.
func (is *IndicatorSeries) Tail(n int) []HistoryPoint {
	start := is.Len() - n
	if start < 0 {
		start = 0
	}
	out := make([]HistoryPoint, 0, is.Len()-start)
	for i := start; i < is.Len(); i++ {
		out = append(out, HistoryPoint{OHLCV: is.Bars[i], MA20: is.MA20[i], MA50: is.MA50[i], MA200: is.MA200[i]})
	}
	return out
}
