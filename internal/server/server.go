package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/raysh454/tenji/internal/app"
	"github.com/raysh454/tenji/internal/baseline"
	"github.com/raysh454/tenji/internal/logging"
	"github.com/raysh454/tenji/internal/report"
	"github.com/raysh454/tenji/internal/utils"
)

// Server is the HTTP + WebSocket API surface for Tenji.
type Server struct {
	cfg          Config
	orchestrator *app.Orchestrator
	store        *baseline.Store
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       logging.Logger
}

// NewServer creates a new Server with its own Orchestrator and baseline store.
func NewServer(cfg Config) (*Server, error) {
	if cfg.AppConfig == nil {
		cfg.AppConfig = app.DefaultConfig()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	storageRoot, err := utils.ExpandPath(cfg.AppConfig.StorageRoot)
	if err != nil {
		return nil, fmt.Errorf("expanding storage root path: %w", err)
	}
	cfg.AppConfig.StorageRoot = storageRoot
	if err := os.MkdirAll(storageRoot, 0755); err != nil {
		logger.Warn("creating storage root directory",
			logging.Field{Key: "path", Value: storageRoot},
			logging.Field{Key: "error", Value: err.Error()})
	}

	store, err := baseline.Open(filepath.Join(storageRoot, "baselines"), logger)
	if err != nil {
		return nil, fmt.Errorf("opening baseline store: %w", err)
	}

	orch := app.NewOrchestrator(cfg.AppConfig, store, logger)

	r := chi.NewRouter()
	s := &Server{
		cfg:          cfg,
		orchestrator: orch,
		store:        store,
		router:       r,
		logger:       logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: tighten for production
				return true
			},
		},
	}

	s.routes()
	return s, nil
}

// Orchestrator returns the underlying orchestrator for advanced use (tests, etc.).
func (s *Server) Orchestrator() *app.Orchestrator {
	return s.orchestrator
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/baselines", s.optionsHandler("GET, POST"))
	r.Options("/baselines/{label}", s.optionsHandler("GET"))
	r.Options("/diff", s.optionsHandler("POST"))
	r.Options("/jobs", s.optionsHandler("GET"))
	r.Options("/jobs/scan", s.optionsHandler("POST"))
	r.Options("/jobs/gate", s.optionsHandler("POST"))
	r.Options("/jobs/{jobID}", s.optionsHandler("GET, DELETE"))

	// Baselines
	r.Post("/baselines", s.handleSaveBaseline)
	r.Get("/baselines", s.handleListBaselines)
	r.Get("/baselines/{label}", s.handleGetBaseline)

	// Synchronous diff over inline scan documents
	r.Post("/diff", s.handleDiff)

	// Jobs over REST
	r.Post("/jobs/scan", s.handleStartScanJob)
	r.Post("/jobs/gate", s.handleStartGateJob)
	r.Get("/jobs", s.handleListJobs)
	r.Get("/jobs/{jobID}", s.handleGetJob)
	r.Get("/jobs/{jobID}/report.md", s.handleGetJobMarkdown)
	r.Delete("/jobs/{jobID}", s.handleCancelJob)

	// WebSockets for job progress
	r.Get("/ws/jobs/scan", s.handleScanWS)
	r.Get("/ws/jobs/gate", s.handleGateWS)

	// Interactive API docs
	r.Get("/swagger/*", httpSwagger.Handler())
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, logging.Field{Key: "body_bytes", Value: len(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close shuts down the orchestrator and underlying resources.
func (s *Server) Close() {
	if s.orchestrator != nil {
		s.orchestrator.Close()
	}
	if s.store != nil {
		s.store.Close()
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// --- HTTP handlers ---

// Baselines

func (s *Server) handleSaveBaseline(w http.ResponseWriter, r *http.Request) {
	var body SaveBaselineRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.Label == "" || body.Scan == nil {
		writeError(w, http.StatusBadRequest, "label and scan are required")
		return
	}
	if err := body.Scan.Validate("request body"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := s.orchestrator.SaveBaseline(r.Context(), body.Label, body.Scan)
	if err != nil {
		s.logger.Warn("saving baseline", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("saved baseline", logging.Field{Key: "label", Value: entry.Label})
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleListBaselines(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			limit = v
		}
	}

	entries, err := s.orchestrator.ListBaselines(r.Context(), limit)
	if err != nil {
		s.logger.Warn("listing baselines", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("listed baselines", logging.Field{Key: "count", Value: len(entries)})
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetBaseline(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "label")

	scan, entry, err := s.orchestrator.LoadBaseline(r.Context(), label)
	if err != nil {
		s.logger.Warn("loading baseline",
			logging.Field{Key: "label", Value: label},
			logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": entry, "scan": scan})
}

// Diff

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	var body DiffRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.Base == nil || body.Head == nil {
		writeError(w, http.StatusBadRequest, "base and head scans are required")
		return
	}
	if err := body.Base.Validate("base"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := body.Head.Validate("head"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	decision := s.orchestrator.CompareScans(body.Base, body.Head)
	s.logger.Info("computed diff",
		logging.Field{Key: "new", Value: decision.Report.Summary.NewViolations},
		logging.Field{Key: "resolved", Value: decision.Report.Summary.ResolvedViolations},
		logging.Field{Key: "regression", Value: decision.Report.Regression})
	writeJSON(w, http.StatusOK, decision.Report)
}

// Jobs (REST)

func (s *Server) handleStartScanJob(w http.ResponseWriter, r *http.Request) {
	var body StartScanJobRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Origin == "" {
		writeError(w, http.StatusBadRequest, "origin is required")
		return
	}

	// Background context: the job must outlive the HTTP request that started it.
	job, err := s.orchestrator.StartScanJob(context.Background(), body.Origin)
	if err != nil {
		s.logger.Warn("starting scan job", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("started scan job",
		logging.Field{Key: "job_id", Value: job.ID},
		logging.Field{Key: "origin", Value: body.Origin})
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleStartGateJob(w http.ResponseWriter, r *http.Request) {
	var body StartGateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Origin == "" || body.Baseline == "" {
		writeError(w, http.StatusBadRequest, "baseline and origin are required")
		return
	}

	job, err := s.orchestrator.StartGateJob(context.Background(), body.Baseline, body.Origin)
	if err != nil {
		s.logger.Warn("starting gate job", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("started gate job",
		logging.Field{Key: "job_id", Value: job.ID},
		logging.Field{Key: "baseline", Value: body.Baseline})
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleGetJobMarkdown(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if job.Report == nil {
		writeError(w, http.StatusConflict, "job has no report yet")
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(report.Markdown(job.Report, "")))
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	s.orchestrator.CancelJob(jobID)
	s.logger.Info("canceled job", logging.Field{Key: "job_id", Value: jobID})
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.orchestrator.ListJobs()
	writeJSON(w, http.StatusOK, jobs)
}

// WebSockets

func (s *Server) handleScanWS(w http.ResponseWriter, r *http.Request) {
	origin := r.URL.Query().Get("origin")
	if origin == "" {
		writeError(w, http.StatusBadRequest, "missing origin query parameter")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	job, err := s.orchestrator.StartScanJob(r.Context(), origin)
	if err != nil {
		_ = conn.WriteJSON(ErrorResponse{Error: err.Error()})
		return
	}

	s.logger.Info("started scan job", logging.Field{Key: "job_id", Value: job.ID})
	_ = conn.WriteJSON(job)

	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			// Assume client disconnected; cancel job
			s.orchestrator.CancelJob(job.ID)
			return
		}
	}
}

func (s *Server) handleGateWS(w http.ResponseWriter, r *http.Request) {
	label := r.URL.Query().Get("baseline")
	origin := r.URL.Query().Get("origin")
	if label == "" || origin == "" {
		writeError(w, http.StatusBadRequest, "missing baseline or origin query parameter")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	job, err := s.orchestrator.StartGateJob(r.Context(), label, origin)
	if err != nil {
		_ = conn.WriteJSON(ErrorResponse{Error: err.Error()})
		return
	}

	s.logger.Info("started gate job", logging.Field{Key: "job_id", Value: job.ID})
	_ = conn.WriteJSON(job)

	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			s.orchestrator.CancelJob(job.ID)
			return
		}
	}
}
