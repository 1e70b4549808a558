package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapnotes",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mapnotes",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Annotation metrics
	EntitiesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapnotes",
		Subsystem: "entities",
		Name:      "created_total",
		Help:      "Total entities added to the collection",
	}, []string{"kind"})

	EntitiesRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mapnotes",
		Subsystem: "entities",
		Name:      "removed_total",
		Help:      "Total entities removed from the collection",
	})

	Entities = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mapnotes",
		Subsystem: "entities",
		Name:      "current",
		Help:      "Entities currently held in the collection",
	})

	Measurements = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapnotes",
		Subsystem: "measurement",
		Name:      "completed_total",
		Help:      "Completed measurements by outcome",
	}, []string{"outcome"})

	// Document metrics
	DocumentOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapnotes",
		Subsystem: "documents",
		Name:      "operations_total",
		Help:      "Document save/load/import/export operations",
	}, []string{"operation", "result"})

	DocumentSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mapnotes",
		Subsystem: "documents",
		Name:      "size_bytes",
		Help:      "Size of serialized documents",
		Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
	})

	// Database pool metrics
	DBConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mapnotes",
		Subsystem: "db",
		Name:      "conns_open",
		Help:      "Connections open in the database pool",
	})

	DBConnsInUse = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mapnotes",
		Subsystem: "db",
		Name:      "conns_in_use",
		Help:      "Connections currently in use",
	})
)

// ObserveDocument records one document operation
func ObserveDocument(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	DocumentOps.WithLabelValues(operation, result).Inc()
}

// Middleware records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler returns a gin handler serving the Prometheus /metrics endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// UpdateDBPoolMetrics copies database/sql pool stats into gauges.
func UpdateDBPoolMetrics(stats sql.DBStats) {
	DBConnsOpen.Set(float64(stats.OpenConnections))
	DBConnsInUse.Set(float64(stats.InUse))
}
