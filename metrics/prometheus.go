package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
	"strconv"
	"time"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qde_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qde_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	analysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qde_analyses_total",
			Help: "Total number of analyses by final status and source",
		},
		[]string{"status", "source"},
	)

	analysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qde_analysis_duration_seconds",
			Help:    "Rule engine analysis duration in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	conflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qde_unresolved_conflicts_total",
			Help: "Total number of unresolved source conflicts",
		},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qde_cache_lookups_total",
			Help: "Analysis cache lookups by result",
		},
		[]string{"result"},
	)

	reviewerFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qde_reviewer_fallbacks_total",
			Help: "Reviewer failures that fell back to the rule engine, by failure class",
		},
		[]string{"provider", "failure"},
	)

	tasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qde_worker_tasks_total",
			Help: "Worker tasks by outcome",
		},
		[]string{"outcome"},
	)

	vocabularyReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qde_vocabulary_reloads_total",
			Help: "Vocabulary reload attempts by result",
		},
		[]string{"result"},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency per path.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
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

func RecordAnalysis(status string, source string, conflicts int, duration time.Duration) {
	analysesTotal.WithLabelValues(status, source).Inc()
	analysisDuration.Observe(duration.Seconds())
	conflictsTotal.Add(float64(conflicts))
}

func RecordCacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

func RecordReviewerFallback(provider string, failure string) {
	reviewerFallbacks.WithLabelValues(provider, failure).Inc()
}

func RecordTask(outcome string) {
	tasksProcessed.WithLabelValues(outcome).Inc()
}

func RecordVocabularyReload(err error) {
	if err != nil {
		vocabularyReloads.WithLabelValues("error").Inc()
		return
	}
	vocabularyReloads.WithLabelValues("ok").Inc()
}
