// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Notification outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeUnsupported = "unsupported"
)

// Collectors groups the service metrics so tests can use a private registry.
type Collectors struct {
	NotificationsTotal *prometheus.CounterVec
	ResultUpdatesTotal *prometheus.CounterVec
	ReportScanCalls    prometheus.Histogram
	StaleOrders        prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labtrack",
			Name:      "notifications_total",
			Help:      "Notification deliveries by target kind and outcome.",
		}, []string{"kind", "outcome"}),
		ResultUpdatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labtrack",
			Name:      "result_updates_total",
			Help:      "Order result updates by resulting status.",
		}, []string{"status"}),
		ReportScanCalls: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "labtrack",
			Name:      "report_scan_calls",
			Help:      "Physical store scans issued per report page.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64},
		}),
		StaleOrders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "labtrack",
			Name:      "stale_orders",
			Help:      "In-progress orders older than the audit threshold at the last audit.",
		}),
	}
	reg.MustRegister(c.NotificationsTotal, c.ResultUpdatesTotal, c.ReportScanCalls, c.StaleOrders)
	return c
}

// NewNop returns collectors registered with a throwaway registry.
func NewNop() *Collectors {
	return New(prometheus.NewRegistry())
}
