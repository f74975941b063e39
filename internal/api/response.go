package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"MarketScreener/internal/calculator"
	"MarketScreener/internal/collector"
	"MarketScreener/internal/screener"

	"github.com/phuslu/log"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

// WriteError writes an error body with the given status.
func WriteError(w http.ResponseWriter, status int, msg string, details ...string) {
	WriteJSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// writeDomainError maps the error taxonomy to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		invalid      *screener.InvalidFilterSpecError
		unavailable  *collector.SymbolUnavailableError
		insufficient *calculator.InsufficientDataError
		listing      *screener.UniverseError
	)
	switch {
	case errors.As(err, &invalid):
		WriteError(w, http.StatusBadRequest, "invalid filter spec", invalid.Problems...)
	case errors.As(err, &unavailable):
		WriteError(w, http.StatusNotFound, "symbol unavailable", unavailable.Error())
	case errors.As(err, &insufficient):
		WriteError(w, http.StatusUnprocessableEntity, "insufficient data", insufficient.Error())
	case errors.As(err, &listing):
		WriteError(w, http.StatusBadGateway, "symbol universe unavailable", listing.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		log.Error().Err(err).Msg("request failed")
		WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
