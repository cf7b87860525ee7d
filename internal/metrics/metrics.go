package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the quiz and HTTP collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	SessionsStarted   prometheus.Counter
	Actions           *prometheus.CounterVec
	CountdownExpiries prometheus.Counter
	AttemptsFinished  prometheus.Counter
	Scores            prometheus.Histogram
	ArchiveFailures   prometheus.Counter

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_sessions_started_total",
			Help: "Number of quiz sessions started",
		}),
		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_actions_total",
				Help: "Quiz actions by kind and outcome",
			},
			[]string{"action", "outcome"},
		),
		CountdownExpiries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_countdown_expiries_total",
			Help: "Questions skipped because their countdown ran out",
		}),
		AttemptsFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_attempts_finished_total",
			Help: "Quiz sessions that reached the results screen",
		}),
		Scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quiz_attempt_score_ratio",
			Help:    "Score of finished attempts as a fraction of the question count",
			Buckets: []float64{0, 0.2, 0.4, 0.6, 0.8, 1},
		}),
		ArchiveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_archive_failures_total",
			Help: "Finished attempts that could not be handed to the archive",
		}),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"method", "endpoint"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.SessionsStarted,
		m.Actions,
		m.CountdownExpiries,
		m.AttemptsFinished,
		m.Scores,
		m.ArchiveFailures,
		m.RequestCounter,
		m.RequestDuration,
	)
	return m
}

// ObserveAction counts one quiz action.
func (m *Metrics) ObserveAction(action string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	m.Actions.WithLabelValues(action, outcome).Inc()
}

// ObserveFinished records a finished attempt.
func (m *Metrics) ObserveFinished(score, total int) {
	m.AttemptsFinished.Inc()
	if total > 0 {
		m.Scores.Observe(float64(score) / float64(total))
	}
}

// Middleware records request count and latency per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		m.RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		m.RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
