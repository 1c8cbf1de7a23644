// Package chi is the HTTP surface: the simple search path, the full
// cognitive ask path (with optional SSE streaming), consultation
// corrections, health, and metrics.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/legalmind/lexrag/internal/domain"
	"github.com/legalmind/lexrag/internal/domain/candidate"
	"github.com/legalmind/lexrag/internal/usecase/cograg"
	healthuc "github.com/legalmind/lexrag/internal/usecase/health"
	"github.com/legalmind/lexrag/internal/usecase/memory"
	"github.com/legalmind/lexrag/internal/usecase/pipeline"
)

// Error codes returned to clients.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeNotFound         = "not_found"
	codeRateLimited      = "rate_limited"
	codeModelUnavailable = "model_unavailable"
	codeInternalError    = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the engine over HTTP.
type Server struct {
	pipeline      *pipeline.Service
	cograg        *cograg.Service
	memory        *memory.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	pipe *pipeline.Service,
	cog *cograg.Service,
	mem *memory.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		pipeline: pipe,
		cograg:   cog,
		memory:   mem,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		invalidQueryHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrModelUnavailable, http.StatusBadGateway, codeModelUnavailable),
		sentinelHandler(domain.ErrBudgetExceeded, http.StatusGatewayTimeout, codeInternalError),
	}
	return s
}

// Routes mounts every handler on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/search", s.handleSearch)
	r.Post("/v1/ask", s.handleAsk)
	r.Post("/v1/consultations/{id}/corrections", s.handleCorrection)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

type searchRequest struct {
	Query        string `json:"query"`
	TenantID     string `json:"tenant_id"`
	Scope        string `json:"scope,omitempty"`
	CaseID       string `json:"case_id,omitempty"`
	TopK         int    `json:"top_k,omitempty"`
	IncludeGraph bool   `json:"include_graph,omitempty"`
}

type searchResultItem struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Score    float64  `json:"score"`
	Backends []string `json:"backends"`
	DocType  string   `json:"doc_type,omitempty"`
	Title    string   `json:"title,omitempty"`
	Page     int      `json:"page,omitempty"`
}

type gateResponse struct {
	Pass    bool    `json:"pass"`
	Best    float64 `json:"best"`
	AvgTop3 float64 `json:"avg_top3"`
	Reason  string  `json:"reason"`
}

type searchResponse struct {
	Results       []searchResultItem `json:"results"`
	Category      string             `json:"category"`
	Gate          gateResponse       `json:"gate"`
	Warnings      []string           `json:"warnings,omitempty"`
	Retried       bool               `json:"retried,omitempty"`
	LowConfidence bool               `json:"low_confidence,omitempty"`
}

// handleSearch runs the simple retrieval path.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" || req.TenantID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query and tenant_id are required")
		return
	}

	res, err := s.pipeline.Search(r.Context(), pipeline.SearchRequest{
		Query:        req.Query,
		TenantID:     req.TenantID,
		Scope:        req.Scope,
		CaseID:       req.CaseID,
		TopK:         req.TopK,
		IncludeGraph: req.IncludeGraph,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]searchResultItem, len(res.Results))
	for i, f := range res.Results {
		items[i] = fusedToItem(f)
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Results:  items,
		Category: string(res.Category),
		Gate: gateResponse{
			Pass:    res.Gate.Pass,
			Best:    res.Gate.Best,
			AvgTop3: res.Gate.AvgTop3,
			Reason:  res.Gate.Reason,
		},
		Warnings:      res.Warnings,
		Retried:       res.Retried,
		LowConfidence: res.LowConfidence,
	})
}

type askRequest struct {
	Query    string `json:"query"`
	TenantID string `json:"tenant_id"`
	Scope    string `json:"scope,omitempty"`
	CaseID   string `json:"case_id,omitempty"`
}

// handleAsk runs the full cognitive path. With Accept: text/event-stream
// the answer text streams as SSE data events, followed by one final
// "result" event carrying the structured answer.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" || req.TenantID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query and tenant_id are required")
		return
	}

	ask := cograg.AskRequest{
		Query:    req.Query,
		TenantID: req.TenantID,
		Scope:    req.Scope,
		CaseID:   req.CaseID,
	}

	if r.Header.Get("Accept") == "text/event-stream" {
		s.askSSE(w, r, ask)
		return
	}

	integrated, err := s.cograg.Ask(r.Context(), ask)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, integrated)
}

func (s *Server) askSSE(w http.ResponseWriter, r *http.Request, ask cograg.AskRequest) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusNotAcceptable, codeBadRequest, "streaming unsupported by connection")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ask.Stream = func(chunk string) error {
		if _, err := fmt.Fprintf(w, "data: %s\n\n", jsonString(chunk)); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	integrated, err := s.cograg.Ask(r.Context(), ask)
	if err != nil {
		fmt.Fprintf(w, "event: error\ndata: %s\n\n", jsonString(err.Error()))
		flusher.Flush()
		return
	}

	payload, err := json.Marshal(integrated)
	if err != nil {
		s.logger.Error("Failed to marshal streamed answer", zap.Error(err))
		return
	}
	fmt.Fprintf(w, "event: result\ndata: %s\n\n", payload)
	flusher.Flush()
}

type correctionRequest struct {
	TenantID string   `json:"tenant_id"`
	BadRefs  []string `json:"bad_refs"`
	Note     string   `json:"note,omitempty"`
}

// handleCorrection appends a reviewer correction to a stored consultation.
func (s *Server) handleCorrection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req correctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.TenantID == "" || len(req.BadRefs) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "tenant_id and bad_refs are required")
		return
	}

	if err := s.memory.ApplyCorrection(r.Context(), req.TenantID, id, req.BadRefs, req.Note); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth reports aggregated component health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

func fusedToItem(f candidate.Fused) searchResultItem {
	backends := make([]string, len(f.Backends()))
	for i, b := range f.Backends() {
		backends[i] = string(b)
	}
	rep := f.Candidate()
	meta := rep.Meta()
	return searchResultItem{
		ID:       f.ID(),
		Text:     f.Text(),
		Score:    f.Score(),
		Backends: backends,
		DocType:  meta.DocType,
		Title:    meta.Title,
		Page:     meta.Page,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// invalidQueryHandler surfaces validation detail: the message is built from
// request input only, safe to echo.
func invalidQueryHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrInvalidQuery) {
		return false
	}
	writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
	return true
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrRateLimited,
		domain.ErrModelUnavailable,
		domain.ErrBudgetExceeded,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
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
