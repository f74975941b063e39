package strategy

import (
	"fmt"
	"sort"

	"MarketScreener/internal/model"
)

// Preset names of the built-in rule tables.
const (
	PresetLookup   = "lookup"
	PresetScreener = "screener"
)

// LookupRules is the rule table used when analysing a single stock.
func LookupRules() []Rule {
	return []Rule{
		flag("trend", SignalAboveMA200, 20),
		flag("perfect_order", SignalPerfectOrder, 30),
		{Name: "adr", Signal: SignalADR, Bands: []Band{
			{Min: f(5), Max: f(15), Points: 20},
			{Min: f(3), Max: f(5), MaxExclusive: true, Points: 10},
			{Min: f(15), Max: f(20), MinExclusive: true, Points: 10},
		}},
		{Name: "rsi", Signal: SignalRSI, Bands: []Band{
			{Min: f(30), Max: f(70), Points: 15},
			{Min: f(20), Max: f(30), MaxExclusive: true, Points: 8},
			{Min: f(70), Max: f(80), MinExclusive: true, Points: 8},
		}},
		{Name: "volume", Signal: SignalVolumeRatio, Bands: []Band{{Min: f(1), Points: 15}}},
	}
}

// ScreenerRules is the rule table used to rank screening results.
func ScreenerRules() []Rule {
	return []Rule{
		flag("perfect_order", SignalPerfectOrder, 20),
		flag("trend", SignalAboveMA200, 15),
		{Name: "adr", Signal: SignalADR, Bands: []Band{
			{Min: f(6), Points: 15},
			{Min: f(4), Max: f(6), MaxExclusive: true, Points: 10},
		}},
		{Name: "rsi", Signal: SignalRSI, Bands: []Band{{Min: f(50), Max: f(70), Points: 10}}},
		{Name: "market_cap", Signal: SignalMarketCap, Bands: []Band{{Min: f(10e9), Points: 5}}},
	}
}

// DefaultPresets returns fresh copies of the built-in rule tables.
func DefaultPresets() map[string][]Rule {
	return map[string][]Rule{
		PresetLookup:   LookupRules(),
		PresetScreener: ScreenerRules(),
	}
}

// Scorer turns a snapshot and issuer profile into a score in [0,100].
type Scorer struct {
	Name  string
	Rules []Rule
}

// NewScorer validates the rule table and returns a scorer.
func NewScorer(name string, rules []Rule) (*Scorer, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("scorer %q: empty rule table", name)
	}
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("scorer %q: %w", name, err)
		}
	}
	return &Scorer{Name: name, Rules: rules}, nil
}

// Registry holds the named scorers available to the service.
type Registry struct {
	scorers map[string]*Scorer
}

// NewRegistry builds scorers from the defaults, replaced by any overrides.
func NewRegistry(overrides map[string][]Rule) (*Registry, error) {
	tables := DefaultPresets()
	for name, rules := range overrides {
		tables[name] = rules
	}
	reg := &Registry{scorers: make(map[string]*Scorer, len(tables))}
	for name, rules := range tables {
		s, err := NewScorer(name, rules)
		if err != nil {
			return nil, err
		}
		reg.scorers[name] = s
	}
	return reg, nil
}

// Get returns the scorer registered under name.
func (r *Registry) Get(name string) (*Scorer, bool) {
	s, ok := r.scorers[name]
	return s, ok
}

// Names lists the registered scorers in alphabetical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scorers))
	for n := range r.scorers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Breakdown evaluates every rule and returns the per-rule results and the clamped total.
func (s *Scorer) Breakdown(snap *model.Snapshot, profile *model.IssuerProfile) ([]model.FactorScore, int) {
	factors := make([]model.FactorScore, 0, len(s.Rules))
	total := 0
	for _, r := range s.Rules {
		fs := r.Evaluate(snap, profile)
		total += fs.Points
		factors = append(factors, fs)
	}
	return factors, clamp(total)
}

// Score returns the composite score.
func (s *Scorer) Score(snap *model.Snapshot, profile *model.IssuerProfile) int {
	_, total := s.Breakdown(snap, profile)
	return total
}

func clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}
