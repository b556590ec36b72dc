package kafka

import (
	"context"
	"log/slog"

	"github.com/storeops/picking-service/pkg/cloudevents"
	"github.com/storeops/picking-service/pkg/logging"
	"github.com/storeops/picking-service/pkg/resilience"
)

// CircuitBreakerProducer wraps InstrumentedProducer with circuit breaker protection
type CircuitBreakerProducer struct {
	producer       *InstrumentedProducer
	circuitBreaker *resilience.CircuitBreaker
	logger         *logging.Logger
}

// NewCircuitBreakerProducer creates a new circuit breaker protected Kafka producer
func NewCircuitBreakerProducer(producer *InstrumentedProducer, logger *logging.Logger) *CircuitBreakerProducer {
	config := resilience.DefaultCircuitBreakerConfig("kafka-producer")

	var slogLogger *slog.Logger
	if logger != nil && logger.Logger != nil {
		slogLogger = logger.Logger
	} else {
		slogLogger = slog.Default()
	}

	return &CircuitBreakerProducer{
		producer:       producer,
		circuitBreaker: resilience.NewCircuitBreaker(config, slogLogger),
		logger:         logger,
	}
}

// PublishEvent publishes a CloudEvent with circuit breaker protection
func (p *CircuitBreakerProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.CloudEvent) error {
	_, err := p.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return nil, p.producer.PublishEvent(ctx, topic, event)
	})
	return err
}

// Close closes the underlying producer
func (p *CircuitBreakerProducer) Close() error {
	return p.producer.Close()
}
