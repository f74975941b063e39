package screener

import (
	"context"
	"errors"
	"testing"
	"time"

	"MarketScreener/internal/collector"
	"MarketScreener/internal/model"
	"MarketScreener/internal/universe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScreener(t *testing.T, m *collector.MockProvider) *Screener {
	t.Helper()
	s, err := NewScreener(collector.NewCollector(m, 300), nil, 4)
	require.NoError(t, err)
	return s
}

func downtrend(basePrice float64, count int) []model.OHLCV {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	bars := make([]model.OHLCV, count)
	for i := range bars {
		p := basePrice * (1 + float64(count-1-i)*0.002)
		bars[i] = model.OHLCV{
			Date:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 1.001,
			High:   p * 1.01,
			Low:    p * 0.99,
			Close:  p,
			Volume: 500_000,
		}
	}
	return bars
}

func symbolsOf(results []model.ScreenResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Symbol
	}
	return out
}

func TestScreen_EmptySpecAdmitsAll(t *testing.T) {
	m := &collector.MockProvider{Unavailable: map[string]bool{"GONE": true}}
	s := newTestScreener(t, m)

	run, err := s.Screen(context.Background(), []string{"AAA", "GONE", "BBB"}, FilterSpec{})
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 3, run.Scanned)
	assert.Equal(t, 2, run.TotalCount)
	assert.Equal(t, []string{"AAA", "BBB"}, symbolsOf(run.Results))
	require.Len(t, run.Skipped, 1)
	assert.Equal(t, Skip{Symbol: "GONE", Reason: "not found"}, run.Skipped[0])
}

func TestScreen_EmptySeriesSkipped(t *testing.T) {
	m := &collector.MockProvider{Series: map[string][]model.OHLCV{"NIL": {}}}
	s := newTestScreener(t, m)

	run, err := s.Screen(context.Background(), []string{"NIL"}, FilterSpec{})
	require.NoError(t, err)
	assert.Empty(t, run.Results)
	require.Len(t, run.Skipped, 1)
	assert.Equal(t, "empty price series", run.Skipped[0].Reason)
}

func TestScreen_RSIBoundRejects(t *testing.T) {
	// a steady uptrend has no losses, so RSI saturates at 100
	m := &collector.MockProvider{}
	s := newTestScreener(t, m)

	spec, err := ParseFilterSpec([]byte(`{"technical":{"rsi_14":{"min":30,"max":70}}}`))
	require.NoError(t, err)

	run, err := s.Screen(context.Background(), []string{"AAA", "BBB"}, spec)
	require.NoError(t, err)
	assert.Zero(t, run.TotalCount)
	assert.Equal(t, 2, run.Rejected)
	assert.Empty(t, run.Skipped)
}

func TestScreen_InvalidSpecFetchesNothing(t *testing.T) {
	m := &collector.MockProvider{}
	s := newTestScreener(t, m)

	spec := FilterSpec{Technical: TechnicalFilter{ADR20: between(10, 2)}}
	_, err := s.Screen(context.Background(), []string{"AAA"}, spec)

	var ife *InvalidFilterSpecError
	require.ErrorAs(t, err, &ife)
	assert.Zero(t, m.Calls("AAA"))
}

func TestScreen_RankingIsStable(t *testing.T) {
	m := &collector.MockProvider{
		Series: map[string][]model.OHLCV{"DOWN": downtrend(50, 300)},
	}
	s := newTestScreener(t, m)

	symbols := []string{"DOWN", "A1", "A2", "A3", "A4", "A5", "A6"}
	run, err := s.Screen(context.Background(), symbols, FilterSpec{})
	require.NoError(t, err)
	require.Equal(t, 7, run.TotalCount)

	// identical uptrends tie and keep input order; the downtrend ranks last
	assert.Equal(t, []string{"A1", "A2", "A3", "A4", "A5", "A6", "DOWN"}, symbolsOf(run.Results))
	assert.Greater(t, run.Results[0].Score, run.Results[6].Score)
	for i := 1; i < len(run.Results); i++ {
		assert.GreaterOrEqual(t, run.Results[i-1].Score, run.Results[i].Score)
	}
}

func TestScreen_FundamentalUsesProfile(t *testing.T) {
	m := &collector.MockProvider{
		Profiles: map[string]*model.IssuerProfile{
			"BIG":   {Symbol: "BIG", Name: "Big Co", Sector: "Technology", MarketCap: 2e12, AverageVolume: 1e6},
			"SMALL": {Symbol: "SMALL", Name: "Small Co", Sector: "Technology", MarketCap: 5e8, AverageVolume: 1e6},
		},
	}
	s := newTestScreener(t, m)

	spec := FilterSpec{Fundamental: &FundamentalFilter{MarketCap: &Range{Min: ptr(1e10)}}}
	run, err := s.Screen(context.Background(), []string{"SMALL", "BIG"}, spec)
	require.NoError(t, err)
	require.Len(t, run.Results, 1)
	assert.Equal(t, "Big Co", run.Results[0].Name)
	assert.Equal(t, "Technology", run.Results[0].Sector)
	assert.Equal(t, 2e12, run.Results[0].MarketCap)
}

type failingUniverse struct{}

func (failingUniverse) Name() string { return "failing" }
func (failingUniverse) ListSymbols(context.Context) ([]string, error) {
	return nil, errors.New("listing down")
}

func TestScreenUniverse(t *testing.T) {
	s := newTestScreener(t, &collector.MockProvider{})
	p, ok := PresetByID("perfect_order")
	require.True(t, ok)

	_, err := s.ScreenUniverse(context.Background(), failingUniverse{}, p)
	var ue *UniverseError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "failing", ue.Source)
	assert.Contains(t, err.Error(), "listing down")

	run, err := s.ScreenUniverse(context.Background(), &universe.Static{Symbols: []string{"aaa", "bbb"}}, p)
	require.NoError(t, err)
	assert.Equal(t, "perfect_order", run.Preset)
	assert.Equal(t, 2, run.Scanned)
}

func TestScreen_CancelledContext(t *testing.T) {
	s := newTestScreener(t, &collector.MockProvider{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Screen(ctx, []string{"AAA"}, FilterSpec{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzer_Lookup(t *testing.T) {
	m := &collector.MockProvider{
		Price:    120,
		Profiles: map[string]*model.IssuerProfile{"AAPL": {Symbol: "AAPL", Name: "Apple Inc.", Sector: "Technology", AverageVolume: 1e6}},
	}
	col := collector.NewCollector(m, 300)
	s, err := NewScreener(col, nil, 1)
	require.NoError(t, err)
	a, err := NewAnalyzer(col, s.Scorers)
	require.NoError(t, err)

	r, err := a.Lookup(context.Background(), " aapl ")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", r.Symbol)
	assert.Equal(t, "Apple Inc.", r.Name)
	assert.InDelta(t, 120, r.Price, 1e-9)
	assert.Len(t, r.History, HistoryBars)
	assert.NotEmpty(t, r.Factors)

	ratio, ok := r.VolumeRatio.Get()
	require.True(t, ok)
	assert.InDelta(t, 1, ratio, 1e-9)
	assert.InDelta(t, 120e6, r.DollarVolume, 1e-3)

	// above MA200 + perfect order + volume, but RSI 100 is overbought
	assert.Equal(t, model.ActionHold, r.Decision.Action)
	assert.Equal(t, 65, r.Decision.BuyScore)
	assert.Equal(t, 25, r.Decision.SellScore)
	assert.Nil(t, r.PriceLevels)

	chg, ok := r.Change1D.Get()
	require.True(t, ok)
	assert.Greater(t, chg, 0.0)
}

func TestAnalyzer_LookupUnavailable(t *testing.T) {
	m := &collector.MockProvider{Unavailable: map[string]bool{"NOPE": true}}
	col := collector.NewCollector(m, 300)
	s, err := NewScreener(col, nil, 1)
	require.NoError(t, err)
	a, err := NewAnalyzer(col, s.Scorers)
	require.NoError(t, err)

	_, err = a.Lookup(context.Background(), "NOPE")
	var ue *collector.SymbolUnavailableError
	assert.ErrorAs(t, err, &ue)
}
