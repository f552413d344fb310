package metrics

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BackendCalls counts generation backend requests by operation and outcome.
	BackendCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewsim_backend_calls_total",
		Help: "Total generation backend calls",
	}, []string{"op", "outcome"})

	// BackendLatency tracks generation backend latency. Generation calls can take minutes.
	BackendLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reviewsim_backend_call_duration_seconds",
		Help:    "Latency of generation backend calls",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"op"})

	// PhaseTransitions counts wizard phase changes.
	PhaseTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewsim_phase_transitions_total",
		Help: "Total wizard phase transitions",
	}, []string{"from", "to"})

	// ActiveSessions is the number of live wizard sessions.
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reviewsim_active_sessions",
		Help: "Number of live wizard sessions",
	})

	// SessionsExpired counts sessions removed by the idle sweeper.
	SessionsExpired = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reviewsim_sessions_expired_total",
		Help: "Total sessions removed after the idle TTL",
	})
)

var registerOnce sync.Once

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			BackendCalls,
			BackendLatency,
			PhaseTransitions,
			ActiveSessions,
			SessionsExpired,
		)
	})
}

// ObserveBackendCall records one backend request.
func ObserveBackendCall(op, outcome string, elapsed time.Duration) {
	BackendCalls.WithLabelValues(op, outcome).Inc()
	BackendLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveTransition records a phase change.
func ObserveTransition(from, to string) {
	if from == to {
		return
	}
	PhaseTransitions.WithLabelValues(from, to).Inc()
}

// Handler exposes the default registry in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
