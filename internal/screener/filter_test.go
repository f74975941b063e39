package screener

import (
	"testing"

	"MarketScreener/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseSnapshot() model.Snapshot {
	return model.Snapshot{
		Price:               110,
		High:                111,
		Low:                 108,
		Volume:              3_000_000,
		MA10:                model.Some(108),
		MA20:                model.Some(105),
		MA50:                model.Some(100),
		MA150:               model.Some(95),
		MA200:               model.Some(90),
		RSI14:               model.Some(55),
		ADR20:               model.Some(4.5),
		VWAP:                model.Some(100),
		VolumeAvg20:         model.Some(1_000_000),
		Week52High:          model.Some(111),
		Week52Low:           model.Some(70),
		PerfectOrderBullish: true,
	}
}

func TestFilterSpec_Technical(t *testing.T) {
	tests := []struct {
		name string
		spec string
		edit func(*model.Snapshot)
		want bool
	}{
		{"empty admits", `{}`, nil, true},
		{"rsi in range", `{"technical":{"rsi_14":{"min":30,"max":70}}}`, nil, true},
		{"rsi above max", `{"technical":{"rsi_14":{"min":30,"max":70}}}`, func(s *model.Snapshot) { s.RSI14 = model.Some(75) }, false},
		{"rsi bound inclusive", `{"technical":{"rsi_14":{"max":55}}}`, nil, true},
		{"absent rsi with bound", `{"technical":{"rsi_14":{"min":30}}}`, func(s *model.Snapshot) { s.RSI14 = model.Absent }, false},
		{"absent rsi without bound", `{"technical":{"adr_20":{"min":1}}}`, func(s *model.Snapshot) { s.RSI14 = model.Absent }, true},
		{"adr below min", `{"technical":{"adr_20":{"min":5}}}`, nil, false},
		{"above ma 200", `{"technical":{"price_above_ma":{"ma_50":true,"ma_200":true}}}`, nil, true},
		{"below ma 50", `{"technical":{"price_above_ma":{"ma_50":true}}}`, func(s *model.Snapshot) { s.Price = 99 }, false},
		{"price equal to ma", `{"technical":{"price_above_ma":{"ma_200":true}}}`, func(s *model.Snapshot) { s.Price = 90 }, false},
		{"absent ma gate", `{"technical":{"price_above_ma":{"ma_200":true}}}`, func(s *model.Snapshot) { s.MA200 = model.Absent }, false},
		{"gate off ignores ma", `{"technical":{"price_above_ma":{"ma_200":false}}}`, func(s *model.Snapshot) { s.MA200 = model.Absent }, true},
		{"bullish alignment", `{"technical":{"ma_alignment":{"enabled":true,"order":"bullish"}}}`, nil, true},
		{"default order is bullish", `{"technical":{"ma_alignment":{"enabled":true}}}`, func(s *model.Snapshot) { s.PerfectOrderBullish = false }, false},
		{"bearish alignment", `{"technical":{"ma_alignment":{"enabled":true,"order":"bearish"}}}`, nil, false},
		{"disabled alignment", `{"technical":{"ma_alignment":{"enabled":false,"order":"bearish"}}}`, nil, true},
		{"volume surge", `{"technical":{"volume":{"volume_surge":2.5}}}`, nil, true},
		{"no volume surge", `{"technical":{"volume":{"volume_surge":3.5}}}`, nil, false},
		{"dollar volume", `{"technical":{"volume":{"dollar_volume_min":100000000}}}`, nil, true},
		{"dollar volume too low", `{"technical":{"volume":{"dollar_volume_min":200000000}}}`, nil, false},
		{"volume without average", `{"technical":{"volume":{"avg_volume_min":1}}}`, func(s *model.Snapshot) { s.VolumeAvg20 = model.Absent }, false},
		{"new high", `{"technical":{"week_52":{"new_high":true}}}`, nil, true},
		{"not a new high", `{"technical":{"week_52":{"new_high":true}}}`, func(s *model.Snapshot) { s.High = 109 }, false},
		{"near high", `{"technical":{"week_52":{"near_high":true}}}`, func(s *model.Snapshot) { s.Week52High = model.Some(115) }, true},
		{"not near low", `{"technical":{"week_52":{"near_low":true}}}`, nil, false},
		{"above vwap", `{"technical":{"vwap":{"above":true}}}`, nil, true},
		{"below vwap", `{"technical":{"vwap":{"below":true}}}`, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParseFilterSpec([]byte(tt.spec))
			require.NoError(t, err)
			snap := baseSnapshot()
			if tt.edit != nil {
				tt.edit(&snap)
			}
			assert.Equal(t, tt.want, spec.Match(&snap, nil))
		})
	}
}

func TestFilterSpec_Fundamental(t *testing.T) {
	snap := baseSnapshot()
	profile := &model.IssuerProfile{Symbol: "AAA", Sector: "Technology", MarketCap: 5e10, AverageVolume: 1e6}

	tests := []struct {
		name    string
		spec    string
		profile *model.IssuerProfile
		want    bool
	}{
		{"price range", `{"fundamental":{"price_range":{"min":5,"max":200}}}`, profile, true},
		{"price above range", `{"fundamental":{"price_range":{"max":100}}}`, profile, false},
		{"market cap", `{"fundamental":{"market_cap":{"min":1e10}}}`, profile, true},
		{"unknown market cap", `{"fundamental":{"market_cap":{"min":1e10}}}`, &model.IssuerProfile{Symbol: "AAA"}, false},
		{"sector match ignores case", `{"fundamental":{"sectors":["technology"]}}`, profile, true},
		{"sector excluded", `{"fundamental":{"sectors":["Energy"]}}`, profile, false},
		{"decision allowed", `{"fundamental":{"investment_decision":["BUY"]}}`, profile, true},
		{"decision excluded", `{"fundamental":{"investment_decision":["SELL"]}}`, profile, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParseFilterSpec([]byte(tt.spec))
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec.Match(&snap, tt.profile))
		})
	}
}

func TestFilterSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		problem string
	}{
		{"min above max", `{"technical":{"adr_20":{"min":10,"max":2}}}`, "adr_20.min"},
		{"rsi over 100", `{"technical":{"rsi_14":{"max":120}}}`, "rsi_14.max"},
		{"negative price", `{"fundamental":{"price_range":{"min":-1}}}`, "price_range.min"},
		{"unknown order", `{"technical":{"ma_alignment":{"enabled":true,"order":"sideways"}}}`, "ma_alignment.order"},
		{"unknown decision", `{"fundamental":{"investment_decision":["MAYBE"]}}`, "investment_decision"},
		{"unknown field", `{"technical":{"macd":{}}}`, "macd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFilterSpec([]byte(tt.spec))
			var ife *InvalidFilterSpecError
			require.ErrorAs(t, err, &ife)
			assert.Contains(t, ife.Error(), tt.problem)
		})
	}
}

func TestParseFilterSpec_Empty(t *testing.T) {
	spec, err := ParseFilterSpec(nil)
	require.NoError(t, err)
	snap := model.Snapshot{Price: 1}
	assert.True(t, spec.Match(&snap, nil))
}

func TestPresets(t *testing.T) {
	all := Presets()
	require.NotEmpty(t, all)
	seen := map[string]bool{}
	for _, p := range all {
		assert.False(t, seen[p.ID], p.ID)
		seen[p.ID] = true
		assert.NoError(t, p.Filters.Validate(), p.ID)
		assert.NotEmpty(t, p.Scoring, p.ID)
	}

	top, ok := PresetByID("top_10_recommended")
	require.True(t, ok)
	assert.Equal(t, 10, top.Limit)

	results := make([]model.ScreenResult, 15)
	assert.Len(t, top.Top(results), 10)
	assert.Len(t, top.Top(results[:3]), 3)

	_, ok = PresetByID("nope")
	assert.False(t, ok)
}
