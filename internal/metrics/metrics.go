package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/ErlanBelekov/userauth-api/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Auth metrics

	AuthOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "userauth",
		Name:      "auth_operations_total",
		Help:      "Total auth operations, by operation and outcome.",
	}, []string{"operation", "outcome"})

	PasswordHashDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "userauth",
		Name:      "password_hash_duration_seconds",
		Help:      "Time spent hashing or verifying a password.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1},
	})

	ResetEmailsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "userauth",
		Name:      "reset_emails_total",
		Help:      "Password reset emails, by delivery outcome.",
	}, []string{"outcome"})

	// Sweeper metrics

	SweptResetTokensTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "userauth",
		Name:      "swept_reset_tokens_total",
		Help:      "Expired reset tokens cleared by the sweeper.",
	})

	SweepCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "userauth",
		Name:      "sweep_cycle_duration_seconds",
		Help:      "Time taken for one sweeper cycle.",
		Buckets:   prometheus.DefBuckets,
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "userauth",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "userauth",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		AuthOperationsTotal,
		PasswordHashDuration,
		ResetEmailsTotal,
		SweptResetTokensTotal,
		SweepCycleDuration,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer serves /metrics plus liveness and readiness probes backed by checker.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Readiness(r.Context()))
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeHealth(w http.ResponseWriter, result health.HealthResult) {
	w.Header().Set("Content-Type", "application/json")
	if result.Status != "up" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(result)
}
