// Package httpapi implements the JSON HTTP surface: analysis, tag scoring,
// strategy generation, cache administration and health.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/nichescope/internal/domain"
	"github.com/kailas-cloud/nichescope/internal/retry"
	"github.com/kailas-cloud/nichescope/internal/usecase/health"
	"github.com/kailas-cloud/nichescope/internal/usecase/tags"
)

type errorCode string

const (
	codeBadRequest     errorCode = "bad_request"
	codeInvalidKeyword errorCode = "invalid_keyword"
	codeNoResults      errorCode = "no_results"
	codeQuotaExceeded  errorCode = "quota_exceeded"
	codeRateLimited    errorCode = "rate_limited"
	codeProviderError  errorCode = "provider_error"
	codeInternalError  errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the API handlers.
type Server struct {
	analyzer      Analyzer
	tagAnalyzer   TagAnalyzer
	strategist    StrategyBuilder
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(analyzer Analyzer, tagAnalyzer TagAnalyzer, strategist StrategyBuilder, healthSvc HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		analyzer:    analyzer,
		tagAnalyzer: tagAnalyzer,
		strategist:  strategist,
		health:      healthSvc,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidKeyword, http.StatusBadRequest, codeInvalidKeyword),
		sentinelHandler(domain.ErrNoReport, http.StatusNotFound, codeNoResults),
		sentinelHandler(domain.ErrQuotaExceeded, http.StatusTooManyRequests, codeQuotaExceeded),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrProviderError, http.StatusBadGateway, codeProviderError),
		remoteErrorHandler,
	}
	return s
}

// Routes registers all API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", s.AnalyzeKeyword)
		r.Post("/tags", s.ScoreTags)
		r.Post("/strategy", s.BuildStrategy)
		r.Get("/cache/stats", s.CacheStats)
		r.Post("/cache/maintenance", s.CacheMaintenance)
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type analyzeRequest struct {
	Keyword             string `json:"keyword"`
	MaxResults          int    `json:"max_results"`
	PublishedWithinDays int    `json:"published_within_days"`
}

type analyzeResponse struct {
	Keyword       string                   `json:"keyword"`
	Report        domain.CompetitionReport `json:"report"`
	Videos        []domain.Video           `json:"videos"`
	SuggestedTags []string                 `json:"suggested_tags,omitempty"`
}

// AnalyzeKeyword handles POST /api/v1/analyze.
func (s *Server) AnalyzeKeyword(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	report, videos, err := s.analyzer.Analyze(r.Context(), req.Keyword, req.MaxResults, publishedAfter(req.PublishedWithinDays))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		Keyword:       req.Keyword,
		Report:        report,
		Videos:        videos,
		SuggestedTags: tags.ExtractKeywords(videoTitles(videos), 0, 0),
	})
}

type tagsRequest struct {
	Keyword    string   `json:"keyword"`
	Keywords   []string `json:"keywords"`
	MaxResults int      `json:"max_results"`
}

type tagsResponse struct {
	Keyword string            `json:"keyword"`
	Tags    []domain.TagScore `json:"tags"`
}

// ScoreTags handles POST /api/v1/tags. When no explicit keyword list is
// given, candidates are extracted from the sample's titles with the primary
// keyword prepended.
func (s *Server) ScoreTags(w http.ResponseWriter, r *http.Request) {
	var req tagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	_, videos, err := s.analyzer.Analyze(r.Context(), req.Keyword, req.MaxResults, time.Time{})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	keywords := req.Keywords
	if len(keywords) == 0 {
		keywords = append([]string{req.Keyword}, tags.ExtractKeywords(videoTitles(videos), 0, 0)...)
	}

	scores, err := s.tagAnalyzer.AnalyzeKeywords(r.Context(), keywords, videos)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tagsResponse{Keyword: req.Keyword, Tags: scores})
}

type strategyRequest struct {
	Keyword    string `json:"keyword"`
	MaxResults int    `json:"max_results"`
}

type strategyResponse struct {
	Report   domain.CompetitionReport `json:"report"`
	Strategy domain.Strategy          `json:"strategy"`
}

// BuildStrategy handles POST /api/v1/strategy.
func (s *Server) BuildStrategy(w http.ResponseWriter, r *http.Request) {
	var req strategyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	report, videos, err := s.analyzer.Analyze(r.Context(), req.Keyword, req.MaxResults, time.Time{})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	strat, err := s.strategist.Build(r.Context(), req.Keyword, report, videos)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, strategyResponse{Report: report, Strategy: strat})
}

// CacheStats handles GET /api/v1/cache/stats.
func (s *Server) CacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.analyzer.CacheStats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// CacheMaintenance handles POST /api/v1/cache/maintenance.
func (s *Server) CacheMaintenance(w http.ResponseWriter, r *http.Request) {
	removed, err := s.analyzer.RunMaintenance(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"expired_removed": removed})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != health.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func publishedAfter(days int) time.Time {
	if days <= 0 {
		return time.Time{}
	}
	return time.Now().UTC().AddDate(0, 0, -days)
}

func videoTitles(videos []domain.Video) []string {
	titles := make([]string, 0, len(videos))
	for _, v := range videos {
		titles = append(titles, v.Title)
	}
	return titles
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidKeyword,
		domain.ErrNoReport,
		domain.ErrQuotaExceeded,
		domain.ErrRateLimited,
		domain.ErrProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	var re *retry.RemoteError
	if errors.As(err, &re) {
		return "upstream provider error"
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// remoteErrorHandler maps classified provider failures that carry no domain
// sentinel: rate limits to 429, everything else to 502.
func remoteErrorHandler(w http.ResponseWriter, err error, msg string) bool {
	var re *retry.RemoteError
	if !errors.As(err, &re) {
		return false
	}
	if re.Kind == retry.RateLimited {
		writeError(w, http.StatusTooManyRequests, codeRateLimited, msg)
		return true
	}
	writeError(w, http.StatusBadGateway, codeProviderError, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
