package kafka

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/storeops/picking-service/pkg/cloudevents"
	"github.com/storeops/picking-service/pkg/logging"
	"github.com/storeops/picking-service/pkg/metrics"
	"github.com/storeops/picking-service/pkg/tracing"
)

// addEventAttributes adds picking extension attributes to a span
func addEventAttributes(span trace.Span, event *cloudevents.CloudEvent) {
	if event.CorrelationID != "" {
		span.SetAttributes(attribute.String("picking.correlation_id", event.CorrelationID))
	}
	if event.OrderNumber != "" {
		span.SetAttributes(attribute.String("picking.order_number", event.OrderNumber))
	}
	if event.SessionID != "" {
		span.SetAttributes(attribute.String("picking.session_id", event.SessionID))
	}
}

// InstrumentedProducer wraps a Producer with metrics and tracing
type InstrumentedProducer struct {
	producer *Producer
	metrics  *metrics.Metrics
	logger   *logging.Logger
	tracer   trace.Tracer
}

// NewInstrumentedProducer creates a new instrumented producer
func NewInstrumentedProducer(producer *Producer, m *metrics.Metrics, logger *logging.Logger) *InstrumentedProducer {
	return &InstrumentedProducer{
		producer: producer,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("kafka-producer"),
	}
}

// PublishEvent publishes a CloudEvent with metrics and tracing
func (p *InstrumentedProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.CloudEvent) error {
	start := time.Now()

	ctx, span := p.tracer.Start(ctx, "kafka.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKey.String("kafka"),
			semconv.MessagingDestinationNameKey.String(topic),
			semconv.MessagingOperationKey.String("publish"),
			attribute.String("messaging.kafka.event_type", event.Type),
			attribute.String("messaging.message_id", event.ID),
		),
	)
	defer span.End()

	addEventAttributes(span, event)

	// Propagate trace context through the event headers
	carrier := tracing.MapCarrier{}
	tracing.InjectTraceContext(ctx, carrier)
	if tp, ok := carrier["traceparent"]; ok {
		event.TraceParent = tp
		event.TraceState = carrier["tracestate"]
	}

	err := p.producer.PublishEvent(ctx, topic, event)
	duration := time.Since(start)

	success := err == nil
	if p.metrics != nil {
		p.metrics.RecordKafkaPublish(topic, event.Type, success, duration)
	}

	if p.logger != nil {
		p.logger.KafkaPublish(ctx, topic, event.Type, success, duration)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
		span.SetAttributes(attribute.Int64("messaging.duration_ms", duration.Milliseconds()))
	}

	return err
}

// Close closes the underlying producer
func (p *InstrumentedProducer) Close() error {
	return p.producer.Close()
}
