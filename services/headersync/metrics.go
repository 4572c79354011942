package headersync

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tari-project/tari-sub016/util"
)

var (
	prometheusHeaderSyncValidated        prometheus.Counter
	prometheusHeaderSyncRejected         *prometheus.CounterVec
	prometheusHeaderSyncValidate         prometheus.Histogram
	prometheusHeaderSyncCommit           prometheus.Histogram
	prometheusHeaderSyncCommittedHeaders prometheus.Counter
	prometheusHeaderSyncState            prometheus.Gauge
	prometheusHeaderSyncHeight           prometheus.Gauge
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusHeaderSyncValidated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tari",
			Subsystem: "headersync",
			Name:      "validated_headers",
			Help:      "Number of headers that passed validation",
		},
	)

	prometheusHeaderSyncRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tari",
			Subsystem: "headersync",
			Name:      "rejected_headers",
			Help:      "Number of headers rejected, by error code",
		},
		[]string{"reason"},
	)

	prometheusHeaderSyncValidate = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tari",
			Subsystem: "headersync",
			Name:      "validate",
			Help:      "Histogram of calls to Validate",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)

	prometheusHeaderSyncCommit = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tari",
			Subsystem: "headersync",
			Name:      "commit",
			Help:      "Histogram of header batch commits",
			Buckets:   util.MetricsBucketsMilliLongSeconds,
		},
	)

	prometheusHeaderSyncCommittedHeaders = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tari",
			Subsystem: "headersync",
			Name:      "committed_headers",
			Help:      "Number of headers committed to the blockchain store",
		},
	)

	prometheusHeaderSyncState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tari",
			Subsystem: "headersync",
			Name:      "state",
			Help:      "Current synchronizer state",
		},
	)

	prometheusHeaderSyncHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tari",
			Subsystem: "headersync",
			Name:      "height",
			Help:      "Height of the last validated header",
		},
	)
}
