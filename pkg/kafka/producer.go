package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/storeops/picking-service/pkg/cloudevents"
)

// Producer handles publishing messages to Kafka topics
type Producer struct {
	writers map[string]*kafka.Writer
	config  *Config
}

// NewProducer creates a new Kafka producer
func NewProducer(config *Config) *Producer {
	return &Producer{
		writers: make(map[string]*kafka.Writer),
		config:  config,
	}
}

// getWriter returns a writer for the specified topic, creating one if necessary
func (p *Producer) getWriter(topic string) *kafka.Writer {
	if writer, exists := p.writers[topic]; exists {
		return writer
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(p.config.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    p.config.BatchSize,
		BatchTimeout: p.config.BatchTimeout,
		RequiredAcks: kafka.RequiredAcks(p.config.RequiredAcks),
		Async:        false,
	}

	p.writers[topic] = writer
	return writer
}

// headersFor builds the CloudEvents binary-mode headers for an event
func headersFor(event *cloudevents.CloudEvent) []kafka.Header {
	headers := []kafka.Header{
		{Key: "ce-specversion", Value: []byte(event.SpecVersion)},
		{Key: "ce-type", Value: []byte(event.Type)},
		{Key: "ce-source", Value: []byte(event.Source)},
		{Key: "ce-id", Value: []byte(event.ID)},
		{Key: "ce-time", Value: []byte(event.Time.Format(time.RFC3339))},
		{Key: "content-type", Value: []byte(event.DataContentType)},
	}

	if event.CorrelationID != "" {
		headers = append(headers, kafka.Header{Key: "ce-" + cloudevents.ExtCorrelationID, Value: []byte(event.CorrelationID)})
	}
	if event.OrderNumber != "" {
		headers = append(headers, kafka.Header{Key: "ce-" + cloudevents.ExtOrderNumber, Value: []byte(event.OrderNumber)})
	}
	if event.SessionID != "" {
		headers = append(headers, kafka.Header{Key: "ce-" + cloudevents.ExtSessionID, Value: []byte(event.SessionID)})
	}
	if event.Platform != "" {
		headers = append(headers, kafka.Header{Key: "ce-" + cloudevents.ExtPlatform, Value: []byte(event.Platform)})
	}

	// W3C Trace Context headers
	if event.TraceParent != "" {
		headers = append(headers, kafka.Header{Key: "ce-traceparent", Value: []byte(event.TraceParent)})
	}
	if event.TraceState != "" {
		headers = append(headers, kafka.Header{Key: "ce-tracestate", Value: []byte(event.TraceState)})
	}

	return headers
}

// PublishEvent publishes a CloudEvent to the specified topic
func (p *Producer) PublishEvent(ctx context.Context, topic string, event *cloudevents.CloudEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	writer := p.getWriter(topic)

	msg := kafka.Message{
		Key:     []byte(event.Subject),
		Value:   data,
		Headers: headersFor(event),
		Time:    event.Time,
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish event to topic %s: %w", topic, err)
	}

	return nil
}

// PublishBatch publishes multiple events to a topic
func (p *Producer) PublishBatch(ctx context.Context, topic string, events []*cloudevents.CloudEvent) error {
	messages := make([]kafka.Message, 0, len(events))

	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", event.ID, err)
		}

		messages = append(messages, kafka.Message{
			Key:     []byte(event.Subject),
			Value:   data,
			Headers: headersFor(event),
			Time:    event.Time,
		})
	}

	writer := p.getWriter(topic)
	if err := writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("failed to publish batch to topic %s: %w", topic, err)
	}

	return nil
}

// Close closes all writers
func (p *Producer) Close() error {
	var firstErr error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close writer for topic %s: %w", topic, err)
		}
	}
	return firstErr
}
