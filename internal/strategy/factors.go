package strategy

import (
	"fmt"

	"MarketScreener/internal/model"
)

// Signal names one scoreable input derived from a snapshot and issuer profile.
type Signal string

const (
	SignalAboveMA50     Signal = "above_ma_50"
	SignalAboveMA200    Signal = "above_ma_200"
	SignalPerfectOrder  Signal = "perfect_order_bullish"
	SignalADR           Signal = "adr_20"
	SignalRSI           Signal = "rsi_14"
	SignalVolumeRatio   Signal = "volume_ratio"
	SignalMarketCap     Signal = "market_cap"
	SignalDistanceMA200 Signal = "distance_ma_200"
)

var knownSignals = map[Signal]bool{
	SignalAboveMA50:     true,
	SignalAboveMA200:    true,
	SignalPerfectOrder:  true,
	SignalADR:           true,
	SignalRSI:           true,
	SignalVolumeRatio:   true,
	SignalMarketCap:     true,
	SignalDistanceMA200: true,
}

// Valid reports whether the signal is understood by the scorer.
func (s Signal) Valid() bool { return knownSignals[s] }

// Value resolves the signal. Boolean signals are 1 or 0. Missing inputs are absent.
func (s Signal) Value(snap *model.Snapshot, profile *model.IssuerProfile) model.Value {
	if snap == nil {
		return model.Absent
	}
	switch s {
	case SignalAboveMA50:
		return snap.AboveMA(snap.MA50)
	case SignalAboveMA200:
		return snap.AboveMA(snap.MA200)
	case SignalPerfectOrder:
		if snap.PerfectOrderBullish {
			return model.Some(1)
		}
		return model.Some(0)
	case SignalADR:
		return snap.ADR20
	case SignalRSI:
		return snap.RSI14
	case SignalVolumeRatio:
		if profile == nil || profile.AverageVolume <= 0 {
			return model.Absent
		}
		return model.Some(snap.Volume / profile.AverageVolume)
	case SignalMarketCap:
		if profile == nil || profile.MarketCap <= 0 {
			return model.Absent
		}
		return model.Some(profile.MarketCap)
	case SignalDistanceMA200:
		return snap.DistanceMA200
	default:
		return model.Absent
	}
}

// Band awards Points when a signal value lies within it. Nil bounds are open.
type Band struct {
	Min          *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max          *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	MinExclusive bool     `yaml:"min_exclusive,omitempty" json:"min_exclusive,omitempty"`
	MaxExclusive bool     `yaml:"max_exclusive,omitempty" json:"max_exclusive,omitempty"`
	Points       int      `yaml:"points" json:"points"`
}

// Contains reports whether x lies within the band.
func (b Band) Contains(x float64) bool {
	if b.Min != nil {
		if b.MinExclusive && !(x > *b.Min) {
			return false
		}
		if !b.MinExclusive && x < *b.Min {
			return false
		}
	}
	if b.Max != nil {
		if b.MaxExclusive && !(x < *b.Max) {
			return false
		}
		if !b.MaxExclusive && x > *b.Max {
			return false
		}
	}
	return true
}

func (b Band) String() string {
	lo, hi := "(-inf", "+inf)"
	if b.Min != nil {
		br := "["
		if b.MinExclusive {
			br = "("
		}
		lo = fmt.Sprintf("%s%g", br, *b.Min)
	}
	if b.Max != nil {
		br := "]"
		if b.MaxExclusive {
			br = ")"
		}
		hi = fmt.Sprintf("%g%s", *b.Max, br)
	}
	return lo + ", " + hi
}

// Rule scores one signal. The first band containing the value wins.
type Rule struct {
	Name   string `yaml:"name" json:"name"`
	Signal Signal `yaml:"signal" json:"signal"`
	Bands  []Band `yaml:"bands" json:"bands"`
}

// MaxPoints is the most the rule can contribute.
func (r Rule) MaxPoints() int {
	best := 0
	for _, b := range r.Bands {
		if b.Points > best {
			best = b.Points
		}
	}
	return best
}

// Evaluate scores the rule against one snapshot.
func (r Rule) Evaluate(snap *model.Snapshot, profile *model.IssuerProfile) model.FactorScore {
	fs := model.FactorScore{Name: r.Name, MaxPoints: r.MaxPoints()}
	v, ok := r.Signal.Value(snap, profile).Get()
	if !ok {
		fs.Commentary = "no data"
		return fs
	}
	fs.Present = true
	fs.Input = v
	for _, b := range r.Bands {
		if b.Contains(v) {
			fs.Points = b.Points
			fs.Commentary = fmt.Sprintf("%s=%.2f in %s", r.Signal, v, b)
			return fs
		}
	}
	fs.Commentary = fmt.Sprintf("%s=%.2f", r.Signal, v)
	return fs
}

// Validate checks the signal name and band bounds.
func (r Rule) Validate() error {
	if !r.Signal.Valid() {
		return fmt.Errorf("rule %q: unknown signal %q", r.Name, r.Signal)
	}
	if len(r.Bands) == 0 {
		return fmt.Errorf("rule %q: no bands", r.Name)
	}
	for i, b := range r.Bands {
		if b.Points < 0 {
			return fmt.Errorf("rule %q band %d: negative points", r.Name, i)
		}
		if b.Min != nil && b.Max != nil && *b.Min > *b.Max {
			return fmt.Errorf("rule %q band %d: min %g greater than max %g", r.Name, i, *b.Min, *b.Max)
		}
	}
	return nil
}

func f(v float64) *float64 { return &v }

// flag awards points when a boolean signal is set.
func flag(name string, sig Signal, points int) Rule {
	return Rule{Name: name, Signal: sig, Bands: []Band{{Min: f(1), Points: points}}}
}
