package calculator

import (
	"fmt"

	"MarketScreener/internal/model"
)

// Field selects one column of a bar.
type Field int

const (
	FieldOpen Field = iota
	FieldHigh
	FieldLow
	FieldClose
	FieldVolume
)

func (f Field) String() string {
	switch f {
	case FieldOpen:
		return "open"
	case FieldHigh:
		return "high"
	case FieldLow:
		return "low"
	case FieldClose:
		return "close"
	case FieldVolume:
		return "volume"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// Extract copies one field of every bar.
func Extract(bars []model.OHLCV, field Field) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		switch field {
		case FieldOpen:
			out[i] = b.Open
		case FieldHigh:
			out[i] = b.High
		case FieldLow:
			out[i] = b.Low
		case FieldVolume:
			out[i] = b.Volume
		default:
			out[i] = b.Close
		}
	}
	return out
}

func extractCloses(bars []model.OHLCV) []float64 {
	return Extract(bars, FieldClose)
}

func absentSeries(n int) []model.Value {
	return make([]model.Value, n)
}

// warmup converts a raw rolling output into values, marking the first
// period-1 points absent.
func warmup(raw []float64, period int) []model.Value {
	out := make([]model.Value, len(raw))
	for i := period - 1; i < len(raw); i++ {
		out[i] = model.Some(raw[i])
	}
	return out
}

// InsufficientDataError is returned when a series is too short for the
// requested extraction.
type InsufficientDataError struct {
	Symbol string
	Need   int
	Have   int
}

func (e *InsufficientDataError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("insufficient data: need %d bars, have %d", e.Need, e.Have)
	}
	return fmt.Sprintf("insufficient data for %s: need %d bars, have %d", e.Symbol, e.Need, e.Have)
}
