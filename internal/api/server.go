package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"MarketScreener/internal/model"
	"MarketScreener/internal/recorder"
	"MarketScreener/internal/screener"
	"MarketScreener/internal/strategy"
	"MarketScreener/internal/universe"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phuslu/log"
)

// maxBodyBytes bounds a screen request body.
const maxBodyBytes = 1 << 20

// Server exposes screening and lookup over HTTP.
type Server struct {
	Screener    *screener.Screener
	Analyzer    *screener.Analyzer
	Universe    universe.Provider
	Recorder    recorder.Recorder
	CORSOrigins []string
	// MaxSymbols caps an explicit symbol list; 0 means no cap.
	MaxSymbols int
	Timeout    time.Duration
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CorsMiddleware(s.CORSOrigins))
	if s.Timeout > 0 {
		r.Use(middleware.Timeout(s.Timeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/screen", s.HandleScreen)
		r.Get("/stock-lookup", s.HandleLookup)
		r.Get("/presets", s.HandlePresets)
		r.Get("/runs/latest", s.HandleLatestRun)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("api server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown api server: %w", err)
		}
		log.Info().Msg("api server stopped")
		return nil
	}
}

// ScreenRequest is the body of POST /api/screen. Every field is optional.
type ScreenRequest struct {
	Symbols []string        `json:"symbols"`
	Filters json.RawMessage `json:"filters"`
	Preset  string          `json:"preset"`
	Limit   int             `json:"limit"`
}

// ScreenResponse is the reply of POST /api/screen.
type ScreenResponse struct {
	RunID           string               `json:"run_id"`
	Preset          string               `json:"preset,omitempty"`
	Results         []model.ScreenResult `json:"results"`
	TotalCount      int                  `json:"total_count"`
	ExecutionTimeMS int64                `json:"execution_time_ms"`
	Skipped         []screener.Skip      `json:"skipped"`
}

// HandleScreen screens an explicit symbol list, or the configured universe when none is given.
func (s *Server) HandleScreen(w http.ResponseWriter, r *http.Request) {
	var req ScreenRequest
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		WriteError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}
	if req.Limit < 0 {
		WriteError(w, http.StatusBadRequest, "limit must not be negative")
		return
	}

	preset := screener.Preset{Scoring: strategy.PresetScreener}
	if req.Preset != "" {
		p, ok := screener.PresetByID(req.Preset)
		if !ok {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("unknown preset %q", req.Preset))
			return
		}
		preset = p
	}
	if len(bytes.TrimSpace(req.Filters)) > 0 && string(bytes.TrimSpace(req.Filters)) != "null" {
		spec, err := screener.ParseFilterSpec(req.Filters)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		preset.Filters = spec
	}
	if req.Limit > 0 {
		preset.Limit = req.Limit
	}

	var run *screener.Run
	if len(req.Symbols) > 0 {
		symbols := universe.Normalize(req.Symbols)
		if s.MaxSymbols > 0 && len(symbols) > s.MaxSymbols {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("at most %d symbols per request", s.MaxSymbols))
			return
		}
		run, err = s.Screener.ScreenPreset(r.Context(), symbols, preset)
	} else {
		run, err = s.Screener.ScreenUniverse(r.Context(), s.Universe, preset)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	skipped := run.Skipped
	if skipped == nil {
		skipped = []screener.Skip{}
	}
	WriteJSON(w, http.StatusOK, ScreenResponse{
		RunID:           run.ID,
		Preset:          run.Preset,
		Results:         preset.Top(run.Results),
		TotalCount:      run.TotalCount,
		ExecutionTimeMS: run.Duration.Milliseconds(),
		Skipped:         skipped,
	})
}

// HandleLookup returns the single-stock report for ?symbol=.
func (s *Server) HandleLookup(w http.ResponseWriter, r *http.Request) {
	symbol := universe.NormalizeSymbol(r.URL.Query().Get("symbol"))
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	if !universe.ValidSymbol(symbol) {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid symbol %q", symbol))
		return
	}
	report, err := s.Analyzer.Lookup(r.Context(), symbol)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

// HandlePresets lists the built-in filter presets.
func (s *Server) HandlePresets(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"presets": screener.Presets()})
}

// HandleLatestRun returns the most recent recorded run.
func (s *Server) HandleLatestRun(w http.ResponseWriter, r *http.Request) {
	rec, err := s.Recorder.LatestRun(r.Context())
	if errors.Is(err, recorder.ErrNoRuns) {
		WriteError(w, http.StatusNotFound, "no screening runs recorded")
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, rec)
}
