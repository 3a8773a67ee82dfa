package handler

import (
	"net/http"

	"fraud-feature-engine/internal/pkg/metrics"
)

// MetricsHandler returns the Prometheus handler of the engine's registry
func MetricsHandler(collector *metrics.Collector) http.Handler {
	return collector.Handler()
}
