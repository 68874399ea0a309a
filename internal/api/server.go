// Package api exposes the scoring pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/songzhibin97/tokenlab/internal/data"
	"github.com/songzhibin97/tokenlab/internal/models"
	"github.com/songzhibin97/tokenlab/internal/scan"
)

const requestTimeout = 60 * time.Second

type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// ScanService is the application surface the handlers call into.
type ScanService interface {
	ScoreToken(ctx context.Context, token, chainID string, opts scan.Options) (*models.RiskResult, error)
	FetchHistoricalChart(ctx context.Context, token, chainID, symbol string, days int) (*models.HistoricalChartData, error)
	ScanHistory(ctx context.Context, token, chainID string, limit int) ([]data.ScanRecord, error)
}

// CacheStats is the slice of the cache the health endpoint reports on.
type CacheStats interface {
	Stats() (hits, misses int64)
}

type Server struct {
	scans  ScanService
	cache  CacheStats
	logger Logger
}

func NewServer(scans ScanService, cache CacheStats, logger Logger) *Server {
	return &Server{scans: scans, cache: cache, logger: logger}
}

// Routes returns the chi router with all endpoints mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/token/history", s.handleTokenHistory)
		r.Get("/token/scans", s.handleTokenScans)
	})
	return r
}

type analyzeRequest struct {
	Token     string `json:"token"`
	Chain     string `json:"chain"`
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	IsMeme    *bool  `json:"is_meme"`
	SkipCache bool   `json:"skip_cache"`
}

type errorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing_fields,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if req.Token == "" || req.Chain == "" {
		writeError(w, http.StatusBadRequest, "token and chain are required", nil)
		return
	}

	result, err := s.scans.ScoreToken(r.Context(), req.Token, req.Chain, scan.Options{
		Symbol:     req.Symbol,
		Name:       req.Name,
		ManualMeme: req.IsMeme,
		SkipCache:  req.SkipCache,
	})
	if err != nil {
		s.writeScanError(w, req.Token, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTokenHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := q.Get("token")
	chain := q.Get("chain")
	symbol := q.Get("symbol")
	if token == "" && symbol == "" {
		writeError(w, http.StatusBadRequest, "token or symbol is required", nil)
		return
	}

	days := 7
	if raw := q.Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer", nil)
			return
		}
		days = parsed
	}

	chart, err := s.scans.FetchHistoricalChart(r.Context(), token, chain, symbol, days)
	if err != nil {
		s.logger.Error("chart fetch failed", "token", token, "err", err)
		writeError(w, http.StatusBadGateway, "historical data unavailable", nil)
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

func (s *Server) handleTokenScans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := q.Get("token")
	chain := q.Get("chain")
	if token == "" || chain == "" {
		writeError(w, http.StatusBadRequest, "token and chain are required", nil)
		return
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	records, err := s.scans.ScanHistory(r.Context(), token, chain, limit)
	if err != nil {
		s.logger.Error("scan history lookup failed", "token", token, "err", err)
		writeError(w, http.StatusInternalServerError, "scan history unavailable", nil)
		return
	}
	if records == nil {
		records = []data.ScanRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"scans": records})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if s.cache != nil {
		hits, misses := s.cache.Stats()
		resp["cache"] = map[string]int64{"hits": hits, "misses": misses}
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeScanError maps pipeline errors onto HTTP status codes.
func (s *Server) writeScanError(w http.ResponseWriter, token string, err error) {
	var insufficient *models.InsufficientDataError
	switch {
	case errors.As(err, &insufficient):
		writeError(w, http.StatusUnprocessableEntity, "insufficient data to score token", insufficient.Missing)
	case errors.Is(err, models.ErrChainUnsupported):
		writeError(w, http.StatusBadRequest, "unsupported chain", nil)
	case errors.Is(err, models.ErrTotalDataStarvation):
		writeError(w, http.StatusBadGateway, "no upstream data source responded", nil)
	default:
		s.logger.Error("token analysis failed", "token", token, "err", err)
		writeError(w, http.StatusInternalServerError, "analysis failed", nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string, missing []string) {
	writeJSON(w, status, errorResponse{Error: msg, Missing: missing})
}
