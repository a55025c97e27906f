// Package metrics implements httpcore.MetricsSink with Prometheus
// collectors, the same domain wiring caddyserver/caddy's own
// internal/metrics package and modules/caddyhttp instrumentation use.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/littlekitten/lkserver/internal/httpcore"
)

// Collectors bundles every counter/gauge the server emits and registers
// them on a dedicated registry so /metrics doesn't leak Go runtime
// defaults the admin surface doesn't advertise.
type Collectors struct {
	Registry *prometheus.Registry

	connectionsTotal prometheus.Counter
	requestsByStatus *prometheus.CounterVec
	cgiSpawnsTotal   prometheus.Counter
	proxyDialsTotal  prometheus.Counter
	parseErrorsTotal prometheus.Counter
}

// New constructs and registers the collectors.
func New() *Collectors {
	reg := prometheus.NewRegistry()
	c := &Collectors{
		Registry: reg,
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lk_connections_total",
			Help: "Total accepted client connections.",
		}),
		requestsByStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lk_requests_total",
			Help: "Total responses written, labeled by status class.",
		}, []string{"status_class"}),
		cgiSpawnsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lk_cgi_spawns_total",
			Help: "Total CGI child processes launched.",
		}),
		proxyDialsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lk_proxy_dials_total",
			Help: "Total upstream connections opened by the reverse proxy backend.",
		}),
		parseErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lk_parse_errors_total",
			Help: "Total requests rejected as malformed by the request parser.",
		}),
	}
	reg.MustRegister(c.connectionsTotal, c.requestsByStatus, c.cgiSpawnsTotal, c.proxyDialsTotal, c.parseErrorsTotal)
	return c
}

var _ httpcore.MetricsSink = (*Collectors)(nil)

func (c *Collectors) ObserveConnection() { c.connectionsTotal.Inc() }

func (c *Collectors) ObserveResponse(ctx *httpcore.Context, status int) {
	c.requestsByStatus.WithLabelValues(statusClass(status)).Inc()
}

func (c *Collectors) ObserveCGISpawn()   { c.cgiSpawnsTotal.Inc() }
func (c *Collectors) ObserveProxyDial()  { c.proxyDialsTotal.Inc() }
func (c *Collectors) ObserveParseError() { c.parseErrorsTotal.Inc() }

func statusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	default:
		return "other"
	}
}
