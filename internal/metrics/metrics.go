// Package metrics owns the Prometheus registry and the collectors the
// service records into.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	GatewayCalls    *prometheus.CounterVec
	GatewayDuration *prometheus.HistogramVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	Notifications   *prometheus.CounterVec
	HourlyRate      prometheus.Gauge
	WeeklyWorkHours prometheus.Gauge
	InsightsActive  prometheus.Gauge
}

// New builds a registry with the process/go collectors plus the service's own.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		GatewayCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yardops_gateway_calls_total",
				Help: "Persistence gateway calls by operation and outcome.",
			},
			[]string{"op", "outcome"},
		),
		GatewayDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yardops_gateway_call_duration_seconds",
				Help:    "Persistence gateway call latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yardops_http_requests_total",
				Help: "HTTP requests by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yardops_http_request_duration_seconds",
				Help:    "HTTP request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yardops_notifications_total",
				Help: "User notifications emitted by kind.",
			},
			[]string{"kind"},
		),
		HourlyRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "yardops_insights_hourly_rate",
			Help: "Revenue per work hour over completed jobs.",
		}),
		WeeklyWorkHours: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "yardops_insights_weekly_work_hours",
			Help: "Work hours over the trailing seven days.",
		}),
		InsightsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "yardops_insights_active",
			Help: "Number of advisory insights currently raised.",
		}),
	}

	registry.MustRegister(
		m.GatewayCalls,
		m.GatewayDuration,
		m.HTTPRequests,
		m.HTTPDuration,
		m.Notifications,
		m.HourlyRate,
		m.WeeklyWorkHours,
		m.InsightsActive,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
