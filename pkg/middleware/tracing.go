package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// tracingSkipPaths are health endpoints that would flood the trace backend.
var tracingSkipPaths = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/metrics": true,
}

// Tracing opens a server span per request, named after the route so every
// scan on /sessions/:sessionId/scan lands under one span name.
func Tracing(serviceName string) gin.HandlerFunc {
	tracer := otel.Tracer(serviceName)
	propagator := otel.GetTextMapPropagator()

	return func(c *gin.Context) {
		if tracingSkipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		ctx := propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		ctx, span := tracer.Start(ctx, fmt.Sprintf("%s %s", c.Request.Method, route),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethodKey.String(c.Request.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPURLKey.String(c.Request.URL.String()),
				attribute.String("http.client_ip", c.ClientIP()),
				attribute.String("service.name", serviceName),
			),
		)
		defer span.End()

		if requestID := GetRequestID(c); requestID != "" {
			span.SetAttributes(attribute.String("request.id", requestID))
		}
		if correlationID, ok := c.Get(ContextKeyCorrelationID); ok {
			span.SetAttributes(attribute.String("correlation.id", fmt.Sprintf("%v", correlationID)))
		}

		// Expose the IDs to the request logger.
		c.Set(ContextKeyTraceID, span.SpanContext().TraceID().String())
		c.Set(ContextKeySpanID, span.SpanContext().SpanID().String())

		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(semconv.HTTPStatusCodeKey.Int(status))
		if status >= 400 {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		} else {
			span.SetStatus(codes.Ok, "")
		}

		for _, err := range c.Errors {
			span.RecordError(err.Err)
		}
	}
}

// AddSpanAttributes attaches attributes to the request's current span.
func AddSpanAttributes(c *gin.Context, attrs map[string]interface{}) {
	span := trace.SpanFromContext(c.Request.Context())
	for k, v := range attrs {
		span.SetAttributes(spanAttribute(k, v))
	}
}

func spanAttribute(key string, value interface{}) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
