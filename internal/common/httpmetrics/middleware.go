package httpmetrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AlibekovAA/tenantdesk-auth/internal/observability/metrics"
)

type Collector struct {
	prefix           string
	requestsTotal    *prometheus.CounterVec
	requestsInFlight prometheus.Gauge
	requestDuration  *prometheus.HistogramVec
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func New(prefix string) *Collector {
	c := &Collector{prefix: prefix}
	if prefix == "auth" {
		c.requestsTotal = metrics.AuthRequestsTotal
		c.requestsInFlight = metrics.AuthRequestsInFlight
		c.requestDuration = metrics.AuthRequestDurationSeconds
	}
	return c
}

func (c *Collector) Wrap(next http.Handler) http.Handler {
	if c.requestsTotal == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		method := r.Method
		path := NormalizePath(r.URL.Path)

		c.requestsTotal.WithLabelValues(method, path).Inc()
		c.requestsInFlight.Inc()
		defer c.requestsInFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		statusClass := fmt.Sprintf("%dxx", rec.status/100)
		c.requestDuration.WithLabelValues(method, path, statusClass).Observe(time.Since(start).Seconds())
	})
}
