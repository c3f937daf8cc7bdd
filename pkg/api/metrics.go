// CLAUDE:SUMMARY Prometheus metrics for endpoints, resolution outcomes and dataset loads, on a private registry served at /metrics.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hazyhaar/phyto-registry/pkg/kit"
	"github.com/hazyhaar/phyto-registry/pkg/phyto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides observability for the registry service. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Endpoint calls by endpoint, transport and outcome
	Requests *prometheus.CounterVec
	// Endpoint latency by endpoint
	Latency *prometheus.HistogramVec
	// Resolve results by best match type ("none" when empty)
	Resolutions *prometheus.CounterVec
	// Dataset load attempts by outcome
	Loads *prometheus.CounterVec
	// Dataset load duration
	LoadDuration prometheus.Histogram
	// Products, aliases and CMR codes in the current snapshot
	Products prometheus.Gauge
	Aliases  prometheus.Gauge
	CMRCodes prometheus.Gauge
}

// NewMetrics creates the metrics on their own registry so several instances
// (tests, embedded servers) never collide on the default registerer.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "phyto_endpoint_requests_total",
			Help: "Endpoint calls by endpoint, transport and outcome",
		}, []string{"endpoint", "transport", "outcome"}), // outcome: "ok", "not_found", "error"

		Latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "phyto_endpoint_duration_seconds",
			Help:    "Duration of endpoint calls",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}, []string{"endpoint"}),

		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "phyto_resolutions_total",
			Help: "Resolve calls by best match type",
		}, []string{"match_type"}),

		Loads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "phyto_dataset_loads_total",
			Help: "Dataset load attempts by outcome",
		}, []string{"outcome"}),

		LoadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "phyto_dataset_load_duration_seconds",
			Help:    "Duration of dataset loads including index construction",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		Products: f.NewGauge(prometheus.GaugeOpts{
			Name: "phyto_dataset_products",
			Help: "Products in the current registry snapshot",
		}),
		Aliases: f.NewGauge(prometheus.GaugeOpts{
			Name: "phyto_dataset_aliases",
			Help: "Secondary trade names in the current registry snapshot",
		}),
		CMRCodes: f.NewGauge(prometheus.GaugeOpts{
			Name: "phyto_dataset_cmr_codes",
			Help: "Registration codes flagged CMR in the current snapshot",
		}),
	}
}

// Instrument counts and times calls of the named endpoint.
func (m *Metrics) Instrument(name string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		if m == nil {
			return next
		}
		return func(ctx context.Context, request any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, request)
			m.Latency.WithLabelValues(name).Observe(time.Since(start).Seconds())
			m.Requests.WithLabelValues(name, kit.GetTransport(ctx), outcome(err)).Inc()
			return resp, err
		}
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, kit.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// ObserveResults records the best match type of a resolve call.
func (m *Metrics) ObserveResults(results []phyto.SearchResult) {
	if m == nil {
		return
	}
	label := "none"
	if len(results) > 0 {
		label = string(results[0].MatchType)
	}
	m.Resolutions.WithLabelValues(label).Inc()
}

// ObserveLoad records a dataset load. Its signature matches phyto.LoadObserver.
func (m *Metrics) ObserveLoad(s *phyto.Snapshot, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.LoadDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.Loads.WithLabelValues("error").Inc()
	} else {
		m.Loads.WithLabelValues("ok").Inc()
	}
	if s != nil {
		info := s.Info()
		m.Products.Set(float64(info.Total))
		m.Aliases.Set(float64(info.Aliases))
		m.CMRCodes.Set(float64(info.CMR))
	}
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
