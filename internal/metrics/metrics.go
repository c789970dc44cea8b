// Package metrics exposes Prometheus counters for the HTTP API and for box
// scan sessions on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vbonduro/storagescout/internal/scan"
)

type Metrics struct {
	registry *prometheus.Registry

	reqTotal   *prometheus.CounterVec
	reqLatency *prometheus.HistogramVec

	scanFrames      *prometheus.CounterVec
	scanOutcomes    *prometheus.CounterVec
	scanTransitions *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests.",
		}, []string{"method", "path", "status"}),
		reqLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		scanFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scan_frames_total",
			Help: "Camera frames sampled, by whether a code was found.",
		}, []string{"result"}),
		scanOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scan_outcomes_total",
			Help: "Decoded codes, by whether they resolved to a box id.",
		}, []string{"outcome"}),
		scanTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scan_state_transitions_total",
			Help: "Scan session state changes, by target state and error kind.",
		}, []string{"state", "error"}),
	}

	m.registry.MustRegister(m.reqTotal, m.reqLatency, m.scanFrames, m.scanOutcomes, m.scanTransitions)
	return m
}

// Middleware records request counts and latency labelled by the chi route
// pattern rather than the raw path.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				path = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		code := strconv.Itoa(status)
		m.reqTotal.WithLabelValues(r.Method, path, code).Inc()
		m.reqLatency.WithLabelValues(r.Method, path, code).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Scan returns a scan.Observer feeding the scan counters.
func (m *Metrics) Scan() scan.Observer {
	return scanObserver{m: m}
}

type scanObserver struct {
	m *Metrics
}

func (o scanObserver) ObserveTransition(to scan.Status) {
	o.m.scanTransitions.WithLabelValues(to.State.String(), to.Error.String()).Inc()
}

func (o scanObserver) ObserveFrame(found bool) {
	result := "empty"
	if found {
		result = "code"
	}
	o.m.scanFrames.WithLabelValues(result).Inc()
}

func (o scanObserver) ObserveOutcome(accepted bool) {
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	o.m.scanOutcomes.WithLabelValues(outcome).Inc()
}
