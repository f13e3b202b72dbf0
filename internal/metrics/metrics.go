package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "screenpair"

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Activation
	ActivationCodesIssuedTotal *prometheus.CounterVec
	ActivationAttemptsTotal    *prometheus.CounterVec
	ActivationBlockedTotal     prometheus.Counter
	ActivationCodesPending     prometheus.Gauge

	// Bindings
	DevicesBoundTotal         *prometheus.CounterVec
	BindingsRevokedTotal      *prometheus.CounterVec
	BindingVerificationsTotal *prometheus.CounterVec
	HeartbeatsTotal           *prometheus.CounterVec
	BindingsActive            prometheus.Gauge
	ScreensOnline             prometheus.Gauge

	// Authentication
	LoginsTotal *prometheus.CounterVec

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Database Query Metrics
	DatabaseQueryErrorsTotal *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag
// If enabled=true, returns Prometheus-based Metrics
// If enabled=false, returns NoopMetrics (zero overhead)
// Uses sync.Once to ensure Prometheus metrics are only registered once
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		ActivationCodesIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "activation_codes_issued_total",
				Help:      "Total number of activation codes issued",
			},
			[]string{"source"}, // owner, player
		),
		ActivationAttemptsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "activation_attempts_total",
				Help:      "Total number of activation attempts by outcome",
			},
			[]string{"flow", "result"}, // result: success, code_not_found, code_used, code_expired, screen_mismatch, rate_limited
		),
		ActivationBlockedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "activation_clients_blocked_total",
				Help:      "Total number of times a client was blocked after repeated failures",
			},
		),
		ActivationCodesPending: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "activation_codes_pending",
				Help:      "Current number of unused, unexpired activation codes",
			},
		),

		DevicesBoundTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "devices_bound_total",
				Help:      "Total number of device bindings created",
			},
			[]string{"flow"}, // code, device_qr
		),
		BindingsRevokedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bindings_revoked_total",
				Help:      "Total number of device bindings revoked",
			},
			[]string{"reason"}, // superseded, operator
		),
		BindingVerificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "binding_verifications_total",
				Help:      "Total number of player token verifications",
			},
			[]string{"result"}, // bound, unbound
		),
		HeartbeatsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "heartbeats_total",
				Help:      "Total number of player heartbeats",
			},
			[]string{"result"},
		),
		BindingsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "bindings_active",
				Help:      "Current number of live device bindings",
			},
		),
		ScreensOnline: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "screens_online",
				Help:      "Current number of screens with a recent heartbeat",
			},
		),

		LoginsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Total number of dashboard login attempts",
			},
			[]string{"result"},
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request latency in seconds",
				Buckets: []float64{
					0.001, 0.005, 0.010, 0.025, 0.050, 0.100,
					0.250, 0.500, 1.0, 2.5, 5.0, 10.0,
				},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),

		DatabaseQueryErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_query_errors_total",
				Help: "Total number of database query errors during metric collection",
			},
			[]string{"operation"}, // count_live_bindings, count_pending_codes, count_online_screens
		),
	}
}
