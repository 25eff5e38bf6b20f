// Package metrics holds the Prometheus collectors shared by the HTTP layer
// and the scan/feedback services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "phishscan", Subsystem: "http", Name: "requests_total", Help: "HTTP requests by route, method and status."},
		[]string{"route", "method", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "phishscan", Subsystem: "http", Name: "request_duration_seconds", Help: "HTTP request latency.", Buckets: prometheus.DefBuckets},
		[]string{"route", "method"},
	)
	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "phishscan", Subsystem: "http", Name: "requests_in_flight", Help: "Requests currently being served."},
	)
	scansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "phishscan", Subsystem: "scan", Name: "total", Help: "Completed scans by verdict source (cache or model)."},
		[]string{"source"},
	)
	feedbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "phishscan", Subsystem: "feedback", Name: "events_total", Help: "Feedback events recorded."},
	)
	reconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "phishscan", Subsystem: "feedback", Name: "reconciliations_total", Help: "Scan record reconciliations by outcome (created or updated)."},
		[]string{"outcome"},
	)
	correctionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "phishscan", Subsystem: "dataset", Name: "corrections_total", Help: "Dataset corrections dispatched by result."},
		[]string{"result"},
	)
	verifyFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "phishscan", Subsystem: "verify", Name: "fallbacks_total", Help: "Verifier answers that did not parse as a verdict."},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequests, httpDuration, httpInFlight,
		scansTotal, feedbackTotal, reconcileTotal, correctionsTotal, verifyFallbacks,
	)
}

// ObserveRequest records one finished HTTP request.
func ObserveRequest(route, method, status string, seconds float64) {
	httpRequests.WithLabelValues(route, method, status).Inc()
	httpDuration.WithLabelValues(route, method).Observe(seconds)
}

func IncInFlight() { httpInFlight.Inc() }
func DecInFlight() { httpInFlight.Dec() }

// IncScans counts a scan answered from "cache" or "model".
func IncScans(source string) { scansTotal.WithLabelValues(source).Inc() }

func IncFeedback() { feedbackTotal.Inc() }

// IncReconcile counts a reconciliation that "created" or "updated" a record.
func IncReconcile(outcome string) { reconcileTotal.WithLabelValues(outcome).Inc() }

// IncCorrections counts a correction dispatch that "sent" or "failed".
func IncCorrections(result string) { correctionsTotal.WithLabelValues(result).Inc() }

func IncVerifyFallback() { verifyFallbacks.Inc() }
