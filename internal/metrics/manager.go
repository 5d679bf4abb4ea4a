package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests           *prometheus.CounterVec
	CounterHandleRequestPanic prometheus.Counter
	CounterNotifications      *prometheus.CounterVec
	CounterStreamDropped      prometheus.Counter
	CounterMaintenanceDue     prometheus.Counter
	CounterReports            *prometheus.CounterVec
	CounterRateLimited        *prometheus.CounterVec

	// gauges
	GaugeRequests          prometheus.Gauge
	GaugeStreamSubscribers prometheus.Gauge

	// histograms
	HistRequestDuration prometheus.Histogram
	HistSweepDuration   prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("fithub", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("fithub", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request",
			Help:      "The total number of incoming requests",
		}, []string{"method", "status"}),
		CounterHandleRequestPanic: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "handle_request_panic",
			Help:      "The total number of serve request panics",
		}),
		CounterNotifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications",
			Help:      "Notifications created, by kind",
		}, []string{"kind"}),
		CounterStreamDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stream_subscribers_dropped",
			Help:      "Stream subscribers disconnected for falling behind",
		}),
		CounterMaintenanceDue: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "maintenance_due_reminders",
			Help:      "Maintenance reminders sent by the sweeper",
		}),
		CounterReports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reports_generated",
			Help:      "Generated reports, by format and delivery",
		}, []string{"format", "delivery"}),
		CounterRateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rate_limited",
			Help:      "Requests rejected by the rate limiter, by bucket",
		}, []string{"bucket"}),

		GaugeRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "current_requests",
			Help:      "Current number of requests served",
		}),
		GaugeStreamSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stream_subscribers",
			Help:      "Open notification stream connections",
		}),

		HistRequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			Name:      "request_duration_seconds",
			Help:      "Total duration of requests in seconds",
		}),
		HistSweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   []float64{0.001, 0.01, 0.1, 1, 10, 60},
			Name:      "maintenance_sweep_duration_seconds",
			Help:      "Duration of a single maintenance sweep in seconds",
		}),
	}
}
