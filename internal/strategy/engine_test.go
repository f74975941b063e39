package strategy

import (
	"testing"

	"MarketScreener/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strongSnapshot() *model.Snapshot {
	return &model.Snapshot{
		Price:               110,
		Volume:              2_000_000,
		MA20:                model.Some(105),
		MA200:               model.Some(100),
		ADR20:               model.Some(6),
		RSI14:               model.Some(50),
		Week52High:          model.Some(125),
		PerfectOrderBullish: true,
	}
}

func lookupScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := NewScorer(PresetLookup, LookupRules())
	require.NoError(t, err)
	return s
}

func TestScore_LookupFullMarks(t *testing.T) {
	profile := &model.IssuerProfile{AverageVolume: 1_000_000, MarketCap: 50e9}
	assert.Equal(t, 100, lookupScorer(t).Score(strongSnapshot(), profile))
}

func TestScore_AbsentSignalsContributeNothing(t *testing.T) {
	snap := &model.Snapshot{Price: 10, Volume: 100}
	factors, total := lookupScorer(t).Breakdown(snap, nil)
	assert.Equal(t, 0, total)
	for _, fs := range factors {
		if fs.Name == "perfect_order" {
			assert.True(t, fs.Present)
			continue
		}
		assert.False(t, fs.Present, "factor %s should be absent", fs.Name)
	}
}

func TestScore_LookupBands(t *testing.T) {
	tests := []struct {
		name string
		adr  float64
		rsi  float64
		want int
	}{
		{"core bands", 5, 30, 35},
		{"upper core edges", 15, 70, 35},
		{"adr just below core", 4.99, 50, 25},
		{"adr low band edge", 3, 50, 25},
		{"adr too low", 2.99, 50, 15},
		{"adr high band", 15.01, 50, 25},
		{"adr high band edge", 20, 50, 25},
		{"adr too high", 20.01, 50, 15},
		{"rsi low band", 20, 29.9, 18},
		{"rsi too low", 10, 19.9, 20},
		{"rsi high band", 10, 70.1, 28},
		{"rsi high band edge", 10, 80, 28},
		{"rsi too high", 10, 80.1, 20},
	}
	s := lookupScorer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &model.Snapshot{ADR20: model.Some(tt.adr), RSI14: model.Some(tt.rsi)}
			assert.Equal(t, tt.want, s.Score(snap, nil))
		})
	}
}

func TestScore_ScreenerPreset(t *testing.T) {
	s, err := NewScorer(PresetScreener, ScreenerRules())
	require.NoError(t, err)

	profile := &model.IssuerProfile{MarketCap: 12e9}
	snap := strongSnapshot()
	snap.RSI14 = model.Some(60)
	snap.ADR20 = model.Some(6)
	assert.Equal(t, 65, s.Score(snap, profile))

	snap.ADR20 = model.Some(4.5)
	profile.MarketCap = 5e9
	assert.Equal(t, 55, s.Score(snap, profile))
}

func TestScore_Deterministic(t *testing.T) {
	s := lookupScorer(t)
	profile := &model.IssuerProfile{AverageVolume: 3_000_000}
	snap := strongSnapshot()
	assert.Equal(t, s.Score(snap, profile), s.Score(snap, profile))
}

func TestScore_ClampedToHundred(t *testing.T) {
	s, err := NewScorer("greedy", []Rule{
		flag("a", SignalPerfectOrder, 80),
		flag("b", SignalAboveMA200, 80),
	})
	require.NoError(t, err)
	assert.Equal(t, 100, s.Score(strongSnapshot(), nil))
}

func TestNewScorer_RejectsBadRules(t *testing.T) {
	_, err := NewScorer("bad", []Rule{{Name: "x", Signal: "nope", Bands: []Band{{Points: 1}}}})
	assert.Error(t, err)

	_, err = NewScorer("bad", []Rule{{Name: "x", Signal: SignalRSI, Bands: []Band{{Min: f(80), Max: f(20), Points: 1}}}})
	assert.Error(t, err)

	_, err = NewScorer("empty", nil)
	assert.Error(t, err)
}

func TestRegistry_Overrides(t *testing.T) {
	reg, err := NewRegistry(map[string][]Rule{
		PresetScreener: {flag("trend", SignalAboveMA200, 40)},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{PresetLookup, PresetScreener}, reg.Names())

	s, ok := reg.Get(PresetScreener)
	require.True(t, ok)
	assert.Equal(t, 40, s.Score(strongSnapshot(), nil))

	_, ok = reg.Get("missing")
	assert.False(t, ok)
}

func TestDecide(t *testing.T) {
	profile := &model.IssuerProfile{AverageVolume: 1_000_000}

	buy := Decide(strongSnapshot(), profile)
	assert.Equal(t, model.ActionBuy, buy.Action)
	assert.Equal(t, 100, buy.Confidence)
	assert.Equal(t, 0, buy.SellScore)
	assert.NotEmpty(t, buy.Reasons)

	bearish := &model.Snapshot{Price: 80, MA200: model.Some(100), RSI14: model.Some(25)}
	sell := Decide(bearish, profile)
	assert.Equal(t, model.ActionSell, sell.Action)
	assert.Equal(t, 75, sell.Confidence)

	thin := &model.Snapshot{Price: 10, PerfectOrderBullish: true, RSI14: model.Some(60)}
	hold := Decide(thin, nil)
	assert.Equal(t, model.ActionHold, hold.Action)
	assert.Equal(t, 50, hold.Confidence)
}

func TestCalculatePriceLevels(t *testing.T) {
	snap := &model.Snapshot{
		Price:      100,
		ADR20:      model.Some(4),
		Week52High: model.Some(120),
		MA20:       model.Some(98.5),
		MA200:      model.Some(90),
	}
	levels := CalculatePriceLevels(snap, model.ActionBuy)
	require.NotNil(t, levels)
	assert.Equal(t, []float64{106, 112, 120}, levels.ProfitTargets)
	assert.Equal(t, 98.5, levels.EntryOptimal)
	assert.Equal(t, 100.0, levels.EntryAccept)
	assert.Equal(t, 90.0, levels.StopLoss)

	assert.Nil(t, CalculatePriceLevels(snap, model.ActionHold))
}

func TestCalculatePriceLevels_Fallbacks(t *testing.T) {
	levels := CalculatePriceLevels(&model.Snapshot{Price: 100}, model.ActionBuy)
	require.NotNil(t, levels)
	assert.Equal(t, []float64{104.5, 109, 110}, levels.ProfitTargets)
	assert.Equal(t, 98.0, levels.EntryOptimal)
	assert.Equal(t, 93.0, levels.StopLoss)
}
