package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	UploadsInitiated  *prometheus.CounterVec
	VideosPublished   prometheus.Counter
	PaymentsConfirmed *prometheus.CounterVec
	DebitsRejected    prometheus.Counter
	SessionsExpired   prometheus.Counter
	ProviderLatency   *prometheus.HistogramVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			UploadsInitiated: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uploads_initiated_total",
				Help:      "Total upload flows started, by payment method chosen.",
			}, []string{"method"}),
			VideosPublished: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "videos_published_total",
				Help:      "Total videos accepted and published.",
			}),
			PaymentsConfirmed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payments_confirmed_total",
				Help:      "Total payment sessions confirmed, by method and purpose.",
			}, []string{"method", "purpose"}),
			DebitsRejected: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "debits_rejected_total",
				Help:      "Total debits rejected for insufficient credit.",
			}),
			SessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payment_sessions_expired_total",
				Help:      "Total payment sessions swept to expired.",
			}),
			ProviderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "payment_provider_duration_seconds",
				Help:      "Latency distribution for external payment provider calls.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"provider", "op"}),
		}
		prometheus.MustRegister(
			metricsInstance.UploadsInitiated,
			metricsInstance.VideosPublished,
			metricsInstance.PaymentsConfirmed,
			metricsInstance.DebitsRejected,
			metricsInstance.SessionsExpired,
			metricsInstance.ProviderLatency,
		)
	})
	return metricsInstance
}
