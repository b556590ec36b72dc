package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storeops/picking-service/pkg/metrics"
)

// MetricsEndpoint returns a handler for the /metrics endpoint
func MetricsEndpoint(m *metrics.Metrics) gin.HandlerFunc {
	handler := m.Handler()
	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}

// MetricsConfig holds configuration for metrics collection
type MetricsConfig struct {
	// ServiceName is included as a label on all metrics
	ServiceName string

	// Namespace is the Prometheus namespace
	Namespace string

	// ExcludePaths lists paths to exclude from metrics
	ExcludePaths []string
}

// DefaultMetricsConfig returns a default metrics configuration
func DefaultMetricsConfig(serviceName string) *MetricsConfig {
	return &MetricsConfig{
		ServiceName:  serviceName,
		Namespace:    "storeops",
		ExcludePaths: []string{"/metrics", "/health", "/ready"},
	}
}

// MetricsMiddlewareWithConfig records request count, duration, and in-flight
// gauge per route pattern.
func MetricsMiddlewareWithConfig(m *metrics.Metrics, config *MetricsConfig) gin.HandlerFunc {
	excludeMap := make(map[string]bool)
	for _, path := range config.ExcludePaths {
		excludeMap[path] = true
	}

	return func(c *gin.Context) {
		if excludeMap[c.Request.URL.Path] {
			c.Next()
			return
		}

		m.IncrementHTTPRequestsInFlight()
		defer m.DecrementHTTPRequestsInFlight()

		start := time.Now()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		method := c.Request.Method

		// Label by route pattern so /sessions/:sessionId stays one series.
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		m.RecordHTTPRequest(method, path, status, duration)
	}
}
