package screener

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"MarketScreener/internal/collector"
	"MarketScreener/internal/model"
	"MarketScreener/internal/strategy"
	"MarketScreener/internal/universe"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the number of symbols evaluated at once.
const DefaultConcurrency = 8

// Skip records why a symbol produced no result.
type Skip struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// Run is the outcome of one screening pass.
type Run struct {
	ID         string               `json:"id"`
	Preset     string               `json:"preset,omitempty"`
	Scoring    string               `json:"scoring"`
	StartedAt  time.Time            `json:"started_at"`
	Duration   time.Duration        `json:"duration"`
	Results    []model.ScreenResult `json:"results"`
	TotalCount int                  `json:"total_count"`
	Scanned    int                  `json:"scanned"`
	Rejected   int                  `json:"rejected"`
	Skipped    []Skip               `json:"skipped"`
}

// Screener evaluates a symbol universe against a filter spec.
type Screener struct {
	Collector   *collector.Collector
	Scorers     *strategy.Registry
	Concurrency int
}

// NewScreener creates a Screener. A nil registry uses the built-in scoring presets.
func NewScreener(col *collector.Collector, scorers *strategy.Registry, concurrency int) (*Screener, error) {
	if scorers == nil {
		var err error
		if scorers, err = strategy.NewRegistry(nil); err != nil {
			return nil, err
		}
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Screener{Collector: col, Scorers: scorers, Concurrency: concurrency}, nil
}

// outcome of a single symbol; exactly one of result and skip is set unless rejected.
type outcome struct {
	result   *model.ScreenResult
	skip     *Skip
	rejected bool
}

// Screen filters and scores symbols with the screener scoring preset.
func (s *Screener) Screen(ctx context.Context, symbols []string, spec FilterSpec) (*Run, error) {
	return s.screen(ctx, symbols, spec, "", strategy.PresetScreener)
}

// ScreenPreset screens symbols with a preset's filters and scoring. The preset limit is not applied.
func (s *Screener) ScreenPreset(ctx context.Context, symbols []string, p Preset) (*Run, error) {
	return s.screen(ctx, symbols, p.Filters, p.ID, p.Scoring)
}

// UniverseError reports that the symbol universe could not be listed.
type UniverseError struct {
	Source string
	Err    error
}

func (e *UniverseError) Error() string {
	return fmt.Sprintf("list %s universe: %v", e.Source, e.Err)
}

func (e *UniverseError) Unwrap() error { return e.Err }

// ScreenUniverse lists the universe and screens it. Failing to list symbols is the only fatal error.
func (s *Screener) ScreenUniverse(ctx context.Context, u universe.Provider, p Preset) (*Run, error) {
	symbols, err := u.ListSymbols(ctx)
	if err != nil {
		return nil, &UniverseError{Source: u.Name(), Err: err}
	}
	return s.ScreenPreset(ctx, symbols, p)
}

func (s *Screener) screen(ctx context.Context, symbols []string, spec FilterSpec, presetID, scoring string) (*Run, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if scoring == "" {
		scoring = strategy.PresetScreener
	}
	scorer, ok := s.Scorers.Get(scoring)
	if !ok {
		return nil, fmt.Errorf("unknown scoring preset %q", scoring)
	}

	run := &Run{
		ID:        uuid.NewString(),
		Preset:    presetID,
		Scoring:   scorer.Name,
		StartedAt: time.Now(),
		Scanned:   len(symbols),
	}
	log.Info().Str("run", run.ID).Str("preset", presetID).Int("symbols", len(symbols)).Msg("screening started")

	slots := make([]outcome, len(symbols))
	var g errgroup.Group
	g.SetLimit(s.Concurrency)
	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			slots[i] = s.evaluate(ctx, sym, &spec, scorer)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, o := range slots {
		switch {
		case o.result != nil:
			run.Results = append(run.Results, *o.result)
		case o.skip != nil:
			run.Skipped = append(run.Skipped, *o.skip)
		case o.rejected:
			run.Rejected++
		}
	}
	sort.SliceStable(run.Results, func(a, b int) bool {
		return run.Results[a].Score > run.Results[b].Score
	})
	if run.Results == nil {
		run.Results = []model.ScreenResult{}
	}
	run.TotalCount = len(run.Results)
	run.Duration = time.Since(run.StartedAt)

	log.Info().Str("run", run.ID).Int("matched", run.TotalCount).Int("rejected", run.Rejected).
		Int("skipped", len(run.Skipped)).Dur("duration", run.Duration).Msg("screening finished")
	return run, nil
}

// evaluate runs the per-symbol pipeline. Failures become skips and never escape.
func (s *Screener) evaluate(ctx context.Context, symbol string, spec *FilterSpec, scorer *strategy.Scorer) outcome {
	is, err := s.Collector.Collect(ctx, symbol)
	if err != nil {
		return skipped(symbol, err)
	}
	snap, err := is.Latest()
	if err != nil {
		return skipped(symbol, err)
	}
	if ok, reason := spec.CheckTechnical(&snap); !ok {
		log.Debug().Str("symbol", symbol).Str("reason", reason).Msg("rejected")
		return outcome{rejected: true}
	}
	profile, err := s.Collector.Profile(ctx, symbol)
	if err != nil {
		return skipped(symbol, err)
	}
	if ok, reason := spec.CheckFundamental(&snap, profile); !ok {
		log.Debug().Str("symbol", symbol).Str("reason", reason).Msg("rejected")
		return outcome{rejected: true}
	}
	return outcome{result: &model.ScreenResult{
		Symbol:     symbol,
		Name:       profile.Name,
		Sector:     profile.Sector,
		Price:      snap.Price,
		MarketCap:  profile.MarketCap,
		Indicators: snap,
		Score:      scorer.Score(&snap, profile),
	}}
}

func skipped(symbol string, err error) outcome {
	reason := err.Error()
	var ue *collector.SymbolUnavailableError
	if errors.As(err, &ue) && ue.Reason != "" {
		reason = ue.Reason
	}
	log.Warn().Str("symbol", symbol).Err(err).Msg("symbol skipped")
	return outcome{skip: &Skip{Symbol: symbol, Reason: reason}}
}
