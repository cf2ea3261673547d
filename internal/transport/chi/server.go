// Package chi exposes the HTTP API over a go-chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reguwatch/internal/domain"
	"github.com/kailas-cloud/reguwatch/internal/index"
	"github.com/kailas-cloud/reguwatch/internal/usecase/health"
	"github.com/kailas-cloud/reguwatch/internal/usecase/ingest"
	"github.com/kailas-cloud/reguwatch/internal/usecase/query"
)

const defaultAlertsLimit = 50

var walletPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// queryService answers retrieval queries (ISP).
type queryService interface {
	Query(ctx context.Context, text, target string, topK int) (query.Result, error)
}

// alertStore serves the alerts API (ISP).
type alertStore interface {
	Recent(limit int) []domain.Alert
	ByTarget(address string, limit int) []domain.Alert
	TotalAppended() int
}

// healthService aggregates component health (ISP).
type healthService interface {
	Check(ctx context.Context) health.Report
}

// pipelineStats exposes coordinator and index counters (ISP).
type pipelineStats interface {
	Stats() ingest.Stats
}

// indexStats exposes index contents (ISP).
type indexStats interface {
	Stats() index.Stats
}

// documentSink accepts injected documents into the live pipeline (ISP).
type documentSink interface {
	Ingest(ctx context.Context, doc domain.Document) (bool, []domain.Alert, error)
}

// Server wires the use case services into HTTP handlers.
type Server struct {
	targets   *domain.TargetSet
	alerts    alertStore
	queries   queryService
	health    healthService
	pipeline  pipelineStats
	index     indexStats
	documents documentSink
	logger    *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	targets *domain.TargetSet,
	alerts alertStore,
	queries queryService,
	healthSvc healthService,
	pipeline pipelineStats,
	indexSvc indexStats,
	documents documentSink,
	logger *zap.Logger,
) *Server {
	return &Server{
		targets:   targets,
		alerts:    alerts,
		queries:   queries,
		health:    healthSvc,
		pipeline:  pipeline,
		index:     indexSvc,
		documents: documents,
		logger:    logger,
	}
}

// Routes registers all API handlers on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/targets", s.addTarget)
	r.Get("/api/targets", s.listTargets)
	r.Get("/api/alerts", s.recentAlerts)
	r.Get("/api/alerts/{address}", s.alertsByTarget)
	r.Post("/api/query", s.runQuery)
	r.Get("/api/stats", s.stats)
	r.Post("/api/documents", s.injectDocument)
	r.Get("/health", s.healthCheck)
}

type addTargetRequest struct {
	Address string `json:"address"`
}

// addTarget handles POST /api/targets.
func (s *Server) addTarget(w http.ResponseWriter, r *http.Request) {
	var req addTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if !walletPattern.MatchString(req.Address) {
		writeError(w, http.StatusBadRequest, "validation_failed",
			"address must be a 0x-prefixed 40-hex-digit wallet address")
		return
	}

	s.targets.Add(req.Address)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":  "monitoring",
		"targets": s.targets.Len(),
	})
}

// listTargets handles GET /api/targets.
func (s *Server) listTargets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"targets": s.targets.List(),
		"count":   s.targets.Len(),
	})
}

// recentAlerts handles GET /api/alerts.
func (s *Server) recentAlerts(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r, defaultAlertsLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	alerts := s.alerts.Recent(limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// alertsByTarget handles GET /api/alerts/{address}.
func (s *Server) alertsByTarget(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if !walletPattern.MatchString(address) {
		writeError(w, http.StatusBadRequest, "validation_failed",
			"address must be a 0x-prefixed 40-hex-digit wallet address")
		return
	}

	limit, err := limitParam(r, defaultAlertsLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	alerts := s.alerts.ByTarget(address, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"address": address,
		"alerts":  alerts,
		"count":   len(alerts),
	})
}

type queryRequest struct {
	Text   string `json:"text"`
	Target string `json:"target,omitempty"`
	TopK   int    `json:"top_k,omitempty"`
}

// runQuery handles POST /api/query.
func (s *Server) runQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "text is required")
		return
	}

	result, err := s.queries.Query(r.Context(), req.Text, req.Target, req.TopK)
	if err != nil {
		s.logger.Error("Query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// stats handles GET /api/stats.
func (s *Server) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"pipeline":         s.pipeline.Stats(),
		"index":            s.index.Stats(),
		"targets":          s.targets.Len(),
		"alerts_generated": s.alerts.TotalAppended(),
	})
}

// injectDocument handles POST /api/documents: it feeds a document
// through the same dedup/embed/index/alert path the feeds use.
func (s *Server) injectDocument(w http.ResponseWriter, r *http.Request) {
	var doc domain.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if doc.Timestamp.IsZero() {
		doc.Timestamp = time.Now().UTC()
	}

	fresh, alerts, err := s.documents.Ingest(r.Context(), doc)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedDocument) {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		s.logger.Error("Document injection failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	status := http.StatusCreated
	if !fresh {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]any{
		"id":        doc.ID,
		"duplicate": !fresh,
		"alerts":    alerts,
	})
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
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

func limitParam(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	return limit, nil
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
