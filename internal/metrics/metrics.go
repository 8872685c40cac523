// Package metrics exposes Prometheus collectors for the rally engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	MetricHTTPRequestDuration = "gelift_http_request_duration_seconds"
	MetricTimerTransitions    = "gelift_timer_transitions_total"
	MetricBreadcrumbs         = "gelift_breadcrumbs_total"
	MetricScoresRecorded      = "gelift_scores_recorded_total"
	MetricChallengeReviews    = "gelift_challenge_reviews_total"
)

// Timer actions used as label values.
const (
	ActionStart = "start"
	ActionStop  = "stop"
)

// Metrics is safe for concurrent use. A nil *Metrics records nothing.
type Metrics struct {
	registry         *prometheus.Registry
	requestDuration  *prometheus.HistogramVec
	timerTransitions *prometheus.CounterVec
	breadcrumbs      prometheus.Counter
	scoresRecorded   prometheus.Counter
	challengeReviews *prometheus.CounterVec
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPRequestDuration,
				Help:    "HTTP request latency by route and status",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		timerTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricTimerTransitions,
				Help: "Team timer transitions by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		breadcrumbs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricBreadcrumbs,
			Help: "GPS breadcrumbs appended",
		}),
		scoresRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricScoresRecorded,
			Help: "Leg scores persisted",
		}),
		challengeReviews: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricChallengeReviews,
				Help: "Challenge submissions reviewed by decision",
			},
			[]string{"decision"},
		),
	}
	m.registry.MustRegister(
		m.requestDuration, m.timerTransitions, m.breadcrumbs, m.scoresRecorded, m.challengeReviews,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) TimerTransition(action string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	m.timerTransitions.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) BreadcrumbAppended() {
	if m == nil {
		return
	}
	m.breadcrumbs.Inc()
}

func (m *Metrics) ScoreRecorded() {
	if m == nil {
		return
	}
	m.scoresRecorded.Inc()
}

func (m *Metrics) ChallengeReviewed(accepted bool) {
	if m == nil {
		return
	}
	decision := "rejected"
	if accepted {
		decision = "accepted"
	}
	m.challengeReviews.WithLabelValues(decision).Inc()
}

// Middleware observes request latency labelled by the matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
