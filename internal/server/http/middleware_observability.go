package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"taskhub/internal/observability"
)

const routeContextKey contextKey = "httpRoute"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// MetricsMiddleware records request durations labeled by route, method and
// status. Routes are the registered patterns, not raw paths, so task IDs do
// not explode label cardinality.
func MetricsMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if metrics == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)
			route := routeFromContext(r.Context())
			if route == "" {
				route = "unmatched"
			}
			metrics.ObserveHTTPRequest(route, r.Method, strconv.Itoa(rec.status), time.Since(start))
		})
	}
}

// routeHandler tags requests with their registered route before dispatch.
func routeHandler(route string, handler http.Handler) http.Handler {
	if route == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*r = *r.WithContext(context.WithValue(r.Context(), routeContextKey, route))
		handler.ServeHTTP(w, r)
	})
}

func routeFromContext(ctx context.Context) string {
	route, _ := ctx.Value(routeContextKey).(string)
	return route
}
