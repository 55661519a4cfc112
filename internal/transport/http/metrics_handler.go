package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "kpipulse/internal/errors"
)

// MetricsHandler serves the Prometheus scrape endpoint
type MetricsHandler struct {
	prometheus   http.Handler
	errorHandler *apierrors.ErrorHandler
}

// NewMetricsHandler creates a new metrics handler. prometheus may be nil when
// the metric exporter is disabled.
func NewMetricsHandler(prometheus http.Handler, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	return &MetricsHandler{prometheus: prometheus, errorHandler: errorHandler}
}

// Routes sets up the metrics routes
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetMetrics)
	return r
}

// GetMetrics handles GET /metrics
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("metrics exporter"))
		return
	}
	h.prometheus.ServeHTTP(w, r)
}
