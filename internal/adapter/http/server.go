package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/fire-risk-service/internal/adapter/csvfile"
	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/model"
	"github.com/couchcryptid/fire-risk-service/internal/observability"
	"github.com/couchcryptid/fire-risk-service/internal/pipeline"
)

// Forecaster produces the scored hotspots for a day.
type Forecaster interface {
	Predict(ctx context.Context, date time.Time) (*pipeline.Prediction, error)
}

// ModelReloader swaps in the artifact currently on disk.
type ModelReloader interface {
	Reload() (*model.Artifact, error)
}

// Server exposes the prediction API plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	forecaster Forecaster
	models     ModelReloader
	validate   *validator.Validate
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates an HTTP server with the /healthz, /readyz, /metrics and
// /api/v1 routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, forecaster Forecaster, models ModelReloader, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// A cold prediction may download two archive files.
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		forecaster: forecaster,
		models:     models,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
		metrics:    metrics,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/v1/predictions", s.handlePredictions)
	mux.HandleFunc("POST /api/v1/predict", s.handlePredict)
	mux.HandleFunc("POST /api/v1/model/reload", s.handleReload)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// PredictRequest selects the day to score. Date is DD-MM-YYYY.
type PredictRequest struct {
	Date   string `json:"date" validate:"required,datetime=02-01-2006"`
	Format string `json:"format,omitempty" validate:"omitempty,oneof=json csv"`
}

// PredictionResponse is the JSON body of a successful prediction.
type PredictionResponse struct {
	Date         string                 `json:"date"`
	ModelVersion string                 `json:"model_version"`
	Count        int                    `json:"count"`
	Predictions  []domain.HotspotRecord `json:"predictions"`
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.predict(w, r, PredictRequest{Date: q.Get("date"), Format: q.Get("format")})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.badRequest(w, fmt.Errorf("decode request body: %w", err))
		return
	}
	s.predict(w, r, req)
}

func (s *Server) predict(w http.ResponseWriter, r *http.Request, req PredictRequest) {
	if err := s.validate.Struct(req); err != nil {
		s.badRequest(w, err)
		return
	}
	date, err := domain.ParseRequestDate(req.Date)
	if err != nil {
		s.badRequest(w, err)
		return
	}

	pred, err := s.forecaster.Predict(r.Context(), date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.PredictionRequests.WithLabelValues("success").Inc()

	if req.Format == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "predictions_"+date.Format(domain.ArchiveDateLayout)+".csv"))
		w.WriteHeader(http.StatusOK)
		if err := csvfile.Write(w, pred.Records); err != nil {
			s.logger.Error("write csv response", "error", err)
		}
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, PredictionResponse{
		Date:         pred.Date.Format(domain.RequestDateLayout),
		ModelVersion: pred.ModelVersion,
		Count:        len(pred.Records),
		Predictions:  pred.Records,
	})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	a, err := s.models.Reload()
	if err != nil {
		status, _ := classify(err)
		s.logger.Error("model reload failed", "error", err)
		sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{
		"status":   "reloaded",
		"model":    a.Name,
		"version":  a.Version(),
		"features": len(a.Features),
	})
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	s.metrics.PredictionRequests.WithLabelValues("bad_request").Inc()
	sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, outcome := classify(err)
	s.metrics.PredictionRequests.WithLabelValues(outcome).Inc()
	if status >= http.StatusInternalServerError {
		s.logger.Error("prediction failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Warn("prediction rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}

// classify maps an error to an HTTP status and a metrics outcome label.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrNotLoaded):
		return http.StatusServiceUnavailable, "model_unavailable"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrInputFormat):
		return http.StatusUnprocessableEntity, "input_error"
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, domain.ErrSchema):
		return http.StatusInternalServerError, "schema_error"
	default:
		return http.StatusInternalServerError, "error"
	}
}
