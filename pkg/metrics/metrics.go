package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry metrics
	DevicesTracked = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trackd_devices_tracked",
			Help: "Number of devices currently held in the live registry",
		},
	)

	EventsMerged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trackd_events_merged_total",
			Help: "Total number of tracking events merged into the registry",
		},
	)

	DevicesEvicted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trackd_devices_evicted_total",
			Help: "Total number of devices evicted by the registry size cap",
		},
	)

	// Channel metrics
	MessagesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackd_messages_dropped_total",
			Help: "Total number of push-channel messages dropped by reason",
		},
		[]string{"reason"},
	)

	ChannelReconnects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trackd_channel_reconnects_total",
			Help: "Total number of push-channel reconnect attempts",
		},
	)

	// Connectivity metrics
	ProbesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackd_probes_total",
			Help: "Total number of reachability probes by outcome",
		},
		[]string{"outcome"},
	)

	ProbeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trackd_probe_duration_seconds",
			Help:    "Reachability probe duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Session metrics
	SessionsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trackd_sessions_expired_total",
			Help: "Total number of sessions cleared by the expiry guard",
		},
	)

	AuthDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackd_auth_denials_total",
			Help: "Total number of authorization denials by reason",
		},
		[]string{"reason"},
	)

	// API client metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackd_api_requests_total",
			Help: "Total number of backend API requests by method and status",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trackd_api_request_duration_seconds",
			Help:    "Backend API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(DevicesTracked)
	prometheus.MustRegister(EventsMerged)
	prometheus.MustRegister(DevicesEvicted)
	prometheus.MustRegister(MessagesDropped)
	prometheus.MustRegister(ChannelReconnects)
	prometheus.MustRegister(ProbesTotal)
	prometheus.MustRegister(ProbeDuration)
	prometheus.MustRegister(SessionsExpired)
	prometheus.MustRegister(AuthDenials)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
