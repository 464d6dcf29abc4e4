package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns the process collectors.
type Registry struct {
	reg         *prometheus.Registry
	GatewayOps  *prometheus.CounterVec
	GatewayTime *prometheus.HistogramVec
	Coercions   prometheus.Counter
	Requests    *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retail_gateway_ops_total",
		Help: "Gateway operations by gateway, operation and result.",
	}, []string{"gateway", "op", "result"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "retail_gateway_op_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"gateway", "op"})
	coercions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "retail_product_field_coercions_total",
		Help: "Product numeric fields coerced to zero.",
	})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retail_http_requests_total",
	}, []string{"method", "status"})

	r.MustRegister(ops, latency, coercions, requests)
	return &Registry{
		reg:         r,
		GatewayOps:  ops,
		GatewayTime: latency,
		Coercions:   coercions,
		Requests:    requests,
	}
}

// Observe records one gateway call. A nil registry is a no-op.
func (r *Registry) Observe(gateway, op string, start time.Time, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.GatewayOps.WithLabelValues(gateway, op, result).Inc()
	r.GatewayTime.WithLabelValues(gateway, op).Observe(time.Since(start).Seconds())
}

// CountCoercion is nil-safe.
func (r *Registry) CountCoercion() {
	if r == nil {
		return
	}
	r.Coercions.Inc()
}

func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// CountRequest is nil-safe.
func (r *Registry) CountRequest(method string, status int) {
	if r == nil {
		return
	}
	r.Requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
