package middlewares

import (
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"

	"github.com/mbolis/survey-templates/metrics"
)

// Metrics counts requests and observes their latency, labelled by the matched
// route pattern rather than the raw path.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		route := routePattern(r)
		metrics.HttpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(m.Code)).Inc()
		metrics.HttpRequestDuration.WithLabelValues(r.Method, route).Observe(m.Duration.Seconds())
	})
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "unmatched"
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return "unmatched"
}
