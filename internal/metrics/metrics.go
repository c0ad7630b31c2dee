package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// Finalizations counts finalize invocations by trigger and outcome
	// (ok, already_finalized, failed).
	Finalizations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simulado_finalizations_total",
			Help: "Attempt finalizations by trigger and outcome",
		},
		[]string{"trigger", "outcome"},
	)

	Timeouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "simulado_clock_timeouts_total",
			Help: "Attempts terminated by the clock",
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "simulado_active_sessions",
			Help: "Attempt sessions currently held in memory",
		},
	)

	MirrorFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "simulado_progress_mirror_failures_total",
			Help: "Failed background writes of attempt progress or review marks",
		},
	)
)

var once sync.Once

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(Finalizations)
		prometheus.MustRegister(Timeouts)
		prometheus.MustRegister(ActiveSessions)
		prometheus.MustRegister(MirrorFailures)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
