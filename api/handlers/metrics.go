package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fixora/fixora-api/api"
)

// MetricsHandler exposes the in-process request metrics
type MetricsHandler struct{}

// formatRouteMetrics converts duration fields to milliseconds for JSON serialization
func formatRouteMetrics(routes map[string]*api.RouteMetrics) map[string]interface{} {
	result := make(map[string]interface{}, len(routes))
	for key, route := range routes {
		result[key] = map[string]interface{}{
			"method":      route.Method,
			"path":        route.Path,
			"count":       route.Count,
			"errorCount":  route.ErrorCount,
			"avgTime":     route.AvgTime.Milliseconds(),
			"minTime":     route.MinTime.Milliseconds(),
			"maxTime":     route.MaxTime.Milliseconds(),
			"lastRequest": route.LastRequest,
		}
	}
	return result
}

// GetRouteMetrics returns per-route aggregated metrics
func (m MetricsHandler) GetRouteMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(formatRouteMetrics(api.GetMetrics().GetRouteMetrics()))
}

// GetSummary returns the overall request metrics summary
func (m MetricsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(api.GetMetrics().GetSummary())
}
