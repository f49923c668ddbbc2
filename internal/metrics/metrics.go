// Package metrics holds the Prometheus collectors of the blog service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collectors groups every collector the service exports. It implements
// cache.Recorder.
type Collectors struct {
	cacheOps        *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg. A nil reg leaves
// them unregistered, which tests use.
func New(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_cache_operations_total",
			Help: "Cache operations by operation and result.",
		}, []string{"op", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method and status class.",
		}, []string{"method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}

	if reg == nil {
		return c, nil
	}
	for _, col := range []prometheus.Collector{c.cacheOps, c.httpRequests, c.requestDuration} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// CacheOp counts one cache operation.
func (c *Collectors) CacheOp(op, result string) {
	c.cacheOps.WithLabelValues(op, result).Inc()
}

// ObserveRequest records one served request.
func (c *Collectors) ObserveRequest(method string, status int, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(method, StatusClass(status)).Inc()
	c.requestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// StatusClass turns 404 into "4xx".
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
