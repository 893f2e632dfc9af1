package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "wpatui"
)

// Scan pass results.
const (
	ScanOK     = "ok"
	ScanFailed = "failed"
)

var connectDurationBuckets = []float64{0.5, 1, 2, 3, 5, 7.5, 10, 15, 30}

// Metrics records scan and connect activity on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ScanPassesTotal        *prometheus.CounterVec
	ConnectAttemptsTotal   *prometheus.CounterVec
	ConnectDurationSeconds prometheus.Histogram
}

func New(iface string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(prometheus.WrapRegistererWith(prometheus.Labels{"interface": iface}, reg))
	return &Metrics{
		registry: reg,
		ScanPassesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_passes_total",
			Help:      "Count of scan passes by result.",
		}, []string{"result"}),
		ConnectAttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_attempts_total",
			Help:      "Count of connection attempts by outcome.",
		}, []string{"outcome"}),
		ConnectDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "connect_duration_seconds",
			Help:      "Time from starting a connection attempt to its outcome.",
			Buckets:   connectDurationBuckets,
		}),
	}
}

func (m *Metrics) ObserveScanPass(err error) {
	if m == nil {
		return
	}
	result := ScanOK
	if err != nil {
		result = ScanFailed
	}
	m.ScanPassesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveConnect(outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.ConnectAttemptsTotal.WithLabelValues(outcome).Inc()
	if !started.IsZero() {
		m.ConnectDurationSeconds.Observe(time.Since(started).Seconds())
	}
}

// WriteTextfile writes all metrics in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
