package middleware

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskmate",
			Name:      "http_requests_total",
			Help:      "Requests served, by route template, method and status code.",
		},
		[]string{"route", "method", "status"},
	)
	requestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "taskmate",
			Name:      "http_request_duration_seconds",
			Help:      "Request latency, by route template and method.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	sessionRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskmate",
			Name:      "session_rejections_total",
			Help:      "Requests turned away before reaching a handler.",
		},
		[]string{"reason"},
	)
)

// InitPrometheus registers the metrics. Call this from main.go
func InitPrometheus() {
	prometheus.MustRegister(requestsServed)
	prometheus.MustRegister(requestLatency)
	prometheus.MustRegister(sessionRejections)
}

// MonitorMiddleware records per-request counters and latency. Metrics are
// labeled with the mux route template, not the raw path, so task and
// relationship IDs never explode the label cardinality.
func MonitorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := &responseWriter{w, http.StatusOK}

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		status := strconv.Itoa(ww.statusCode)
		requestsServed.WithLabelValues(route, r.Method, status).Inc()
		requestLatency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())

		switch ww.statusCode {
		case http.StatusUnauthorized:
			sessionRejections.WithLabelValues("unauthorized").Inc()
		case http.StatusForbidden:
			sessionRejections.WithLabelValues("forbidden").Inc()
		case http.StatusTooManyRequests:
			sessionRejections.WithLabelValues("rate_limited").Inc()
		}
	})
}

// BasicAuthMiddleware protects /metrics
func BasicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()

		metricsUser := os.Getenv("METRICS_USER")
		metricsPass := os.Getenv("METRICS_PASS")

		if !ok || user != metricsUser || pass != metricsPass {
			w.Header().Set("WWW-Authenticate", `Basic realm="Metrics"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PprofSecurityMiddleware protects /debug/pprof
func PprofSecurityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Pprof-Secret") != os.Getenv("PPROF_SECRET") {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
