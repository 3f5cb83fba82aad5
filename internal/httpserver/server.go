// internal/httpserver/server.go
package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "loanflow/internal/common/errors"
	"loanflow/internal/common/logger"
	"loanflow/internal/intake"
	"loanflow/internal/status"
)

// Server hosts the synchronous API boundary: intake on POST, status lookup
// on GET. The two handlers never talk to each other; the cache is the sole
// handoff point.
type Server struct {
	intake *intake.Service
	lookup *status.Lookup
	logger logger.Logger
}

func New(intakeSvc *intake.Service, lookup *status.Lookup, log logger.Logger) *Server {
	return &Server{
		intake: intakeSvc,
		lookup: lookup,
		logger: log.WithFields(map[string]interface{}{"component": "httpserver"}),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Post("/api/v1/applications", s.handleSubmit)
	r.Get("/api/v1/applications/{applicantId}", s.handleGetStatus)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req intake.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	app, err := s.intake.Submit(r.Context(), req)
	if err != nil {
		s.respondPipelineError(w, err)
		return
	}

	// 202: accepted for async processing. The decision arrives later via
	// the status endpoint.
	respondJSON(w, http.StatusAccepted, app)
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	applicantID := chi.URLParam(r, "applicantId")

	rec, err := s.lookup.Get(r.Context(), applicantID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			respondError(w, http.StatusNotFound, "no application found for this applicant")
			return
		}
		s.respondPipelineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondPipelineError(w http.ResponseWriter, err error) {
	code := apperrors.HTTPStatus(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", map[string]interface{}{
			"status": code,
			"error":  err.Error(),
		})
	}

	var std *apperrors.StandardError
	if e, ok := err.(*apperrors.StandardError); ok {
		std = e
	}
	if std != nil {
		respondJSON(w, code, map[string]interface{}{
			"error":   std.Message,
			"code":    std.Code,
			"details": std.Details,
		})
		return
	}
	respondError(w, code, err.Error())
}

func respondJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, code int, msg string) {
	respondJSON(w, code, map[string]string{"error": msg})
}
