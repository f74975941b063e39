package recorder

import (
	"context"
	"errors"
	"time"

	"MarketScreener/internal/model"
	"MarketScreener/internal/screener"
)

// ErrNoRuns is returned by LatestRun when nothing has been recorded yet.
var ErrNoRuns = errors.New("no screening runs recorded")

// RunRecord is the persisted summary of a screening run.
type RunRecord struct {
	ID         string         `json:"id"`
	Preset     string         `json:"preset"`
	Scoring    string         `json:"scoring"`
	StartedAt  time.Time      `json:"started_at"`
	DurationMS int64          `json:"duration_ms"`
	Scanned    int            `json:"scanned"`
	Matched    int            `json:"matched"`
	Rejected   int            `json:"rejected"`
	Skipped    int            `json:"skipped"`
	Results    []ResultRecord `json:"results"`
}

// ResultRecord is one ranked result with the indicators worth charting later.
type ResultRecord struct {
	Rank          int         `json:"rank"`
	Symbol        string      `json:"symbol"`
	Name          string      `json:"name"`
	Sector        string      `json:"sector"`
	Price         float64     `json:"price"`
	MarketCap     float64     `json:"market_cap"`
	Score         int         `json:"score"`
	RSI14         model.Value `json:"rsi_14"`
	ADR20         model.Value `json:"adr_20"`
	MA50          model.Value `json:"ma_50"`
	MA200         model.Value `json:"ma_200"`
	DistanceMA200 model.Value `json:"distance_ma_200"`
	PerfectOrder  bool        `json:"perfect_order_bullish"`
}

// NewRunRecord flattens a run for storage.
func NewRunRecord(run *screener.Run) *RunRecord {
	rec := &RunRecord{
		ID:         run.ID,
		Preset:     run.Preset,
		Scoring:    run.Scoring,
		StartedAt:  run.StartedAt,
		DurationMS: run.Duration.Milliseconds(),
		Scanned:    run.Scanned,
		Matched:    run.TotalCount,
		Rejected:   run.Rejected,
		Skipped:    len(run.Skipped),
		Results:    make([]ResultRecord, 0, len(run.Results)),
	}
	for i, r := range run.Results {
		ind := r.Indicators
		rec.Results = append(rec.Results, ResultRecord{
			Rank:          i + 1,
			Symbol:        r.Symbol,
			Name:          r.Name,
			Sector:        r.Sector,
			Price:         r.Price,
			MarketCap:     r.MarketCap,
			Score:         r.Score,
			RSI14:         ind.RSI14,
			ADR20:         ind.ADR20,
			MA50:          ind.MA50,
			MA200:         ind.MA200,
			DistanceMA200: ind.DistanceMA200,
			PerfectOrder:  ind.PerfectOrderBullish,
		})
	}
	return rec
}

// Recorder persists screening history.
type Recorder interface {
	RecordRun(ctx context.Context, rec *RunRecord) error
	LatestRun(ctx context.Context) (*RunRecord, error)
	Close() error
}
