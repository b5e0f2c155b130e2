package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SessionStartsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_stream_session_starts_total",
			Help: "Total StartSession calls",
		},
		[]string{"code", "scope"}, // grpc code | service|instance|multi_session
	)

	SessionStartDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "asset_stream_session_start_duration_seconds",
			Help:    "Duration of StartSession processing",
			Buckets: prometheus.DefBuckets,
		},
	)

	SessionStopsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_stream_session_stops_total",
			Help: "Total StopSession calls",
		},
		[]string{"code"},
	)

	ProvisioningDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "asset_stream_provisioning_duration_seconds",
			Help:    "Duration of making a gamelet reachable over ssh",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"backend", "result"}, // ggp|static|agones, success|failure
	)

	EventsRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_stream_events_recorded_total",
			Help: "Developer log events handed to the metrics service",
		},
		[]string{"type"},
	)

	EventsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "asset_stream_events_dropped_total",
			Help: "Developer log events dropped because the publish queue was full",
		},
	)
)

func init() {
	prometheus.MustRegister(SessionStartsTotal)
	prometheus.MustRegister(SessionStartDuration)
	prometheus.MustRegister(SessionStopsTotal)
	prometheus.MustRegister(ProvisioningDuration)
	prometheus.MustRegister(EventsRecordedTotal)
	prometheus.MustRegister(EventsDroppedTotal)
}

func Register(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}
