package router

import (
	"net/http"

	"go.uber.org/zap"

	"fraud-feature-engine/internal/interfaces/http/handler"
)

// Config tunes the middleware around the API routes
type Config struct {
	MetricsPath string
	Development bool
}

// Router holds all HTTP handlers
type Router struct {
	mux                *http.ServeMux
	featuresHandler    *handler.FeaturesHandler
	assessmentsHandler *handler.AssessmentsHandler
	healthHandler      *handler.HealthHandler
	metricsHandler     http.Handler
	middleware         Middleware
	cfg                Config
	logger             *zap.Logger
}

// NewRouter creates a new router with all routes configured.
// A nil metricsHandler disables the metrics endpoint.
func NewRouter(
	featuresHandler *handler.FeaturesHandler,
	assessmentsHandler *handler.AssessmentsHandler,
	healthHandler *handler.HealthHandler,
	metricsHandler http.Handler,
	middleware Middleware,
	cfg Config,
	logger *zap.Logger,
) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	r := &Router{
		mux:                http.NewServeMux(),
		featuresHandler:    featuresHandler,
		assessmentsHandler: assessmentsHandler,
		healthHandler:      healthHandler,
		metricsHandler:     metricsHandler,
		middleware:         middleware,
		cfg:                cfg,
		logger:             logger,
	}
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	// Health endpoints
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)
	r.mux.HandleFunc("GET /ready", r.healthHandler.Ready)
	r.mux.HandleFunc("GET /live", r.healthHandler.Live)

	if r.metricsHandler != nil {
		r.mux.Handle("GET "+r.cfg.MetricsPath, r.metricsHandler)
	}

	// Feature endpoints
	r.api("POST /api/v1/features/score", r.featuresHandler.Score)
	r.api("POST /api/v1/features/batch", r.featuresHandler.Batch)
	r.api("POST /api/v1/features/upload", r.featuresHandler.Upload)

	// Stored assessments
	r.api("GET /api/v1/assessments", r.assessmentsHandler.List)
	r.api("DELETE /api/v1/assessments", r.assessmentsHandler.Clear)
	r.api("GET /api/v1/assessments/summary", r.assessmentsHandler.Summary)
	r.api("GET /api/v1/assessments/{id}", r.assessmentsHandler.Get)
	r.api("POST /api/v1/assessments/{id}/notify", r.assessmentsHandler.Notify)
}

// api registers an API route behind authentication and rate limiting
func (r *Router) api(pattern string, h http.HandlerFunc) {
	r.mux.Handle(pattern, r.middleware.protect(h))
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// Add CORS headers
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if req.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.mux.ServeHTTP(w, req)
}

// Handler returns the http.Handler with the outer middleware applied
func (r *Router) Handler() http.Handler {
	return r.middleware.wrap(r, r.cfg.Development, r.logger)
}
