package mongodb

import (
	"context"
	"log/slog"
	"time"

	"github.com/storeops/picking-service/pkg/logging"
	"github.com/storeops/picking-service/pkg/metrics"
	"github.com/storeops/picking-service/pkg/resilience"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CircuitBreakerClient fronts the instrumented client with a shared breaker
// so a down database sheds load fast instead of stacking up slow requests.
// All collections from one client share the one breaker: if the server is
// unreachable for one query it is unreachable for all of them.
type CircuitBreakerClient struct {
	client  *InstrumentedClient
	breaker *resilience.CircuitBreaker
	logger  *logging.Logger
}

func NewCircuitBreakerClient(client *InstrumentedClient, logger *logging.Logger) *CircuitBreakerClient {
	config := &resilience.CircuitBreakerConfig{
		Name:                  "mongodb",
		MaxRequests:           5,
		Interval:              time.Minute,
		Timeout:               30 * time.Second,
		FailureThreshold:      5,
		FailureRatioThreshold: 0.5,
		MinRequestsToTrip:     10,
	}

	slogLogger := slog.Default()
	if logger != nil && logger.Logger != nil {
		slogLogger = logger.Logger
	}

	return &CircuitBreakerClient{
		client:  client,
		breaker: resilience.NewCircuitBreaker(config, slogLogger),
		logger:  logger,
	}
}

func (c *CircuitBreakerClient) Collection(name string) *CircuitBreakerCollection {
	return &CircuitBreakerCollection{
		collection: c.client.Collection(name),
		breaker:    c.breaker,
	}
}

func (c *CircuitBreakerClient) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// HealthCheck goes through the breaker so readiness flips as soon as the
// breaker opens, without waiting on another ping timeout.
func (c *CircuitBreakerClient) HealthCheck(ctx context.Context) error {
	_, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		return nil, c.client.HealthCheck(ctx)
	})
	return err
}

// CircuitBreakerCollection runs each snapshot operation through the shared
// breaker.
type CircuitBreakerCollection struct {
	collection *InstrumentedCollection
	breaker    *resilience.CircuitBreaker
}

// FindOne cannot surface the breaker rejection through *mongo.SingleResult,
// so an open breaker yields a zero result whose Decode reports
// mongo.ErrNoDocuments.
func (c *CircuitBreakerCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		return c.collection.FindOne(ctx, filter, opts...), nil
	})
	if err != nil {
		return &mongo.SingleResult{}
	}
	return result.(*mongo.SingleResult)
}

func (c *CircuitBreakerCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		return c.collection.Find(ctx, filter, opts...)
	})
	if err != nil {
		return nil, err
	}
	return result.(*mongo.Cursor), nil
}

func (c *CircuitBreakerCollection) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		return c.collection.UpdateOne(ctx, filter, update, opts...)
	})
	if err != nil {
		return nil, err
	}
	return result.(*mongo.UpdateResult), nil
}

func (c *CircuitBreakerCollection) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		return c.collection.DeleteOne(ctx, filter, opts...)
	})
	if err != nil {
		return nil, err
	}
	return result.(*mongo.DeleteResult), nil
}

func (c *CircuitBreakerCollection) BulkWrite(ctx context.Context, models []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error) {
	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		return c.collection.BulkWrite(ctx, models, opts...)
	})
	if err != nil {
		return nil, err
	}
	return result.(*mongo.BulkWriteResult), nil
}

func (c *CircuitBreakerCollection) CreateIndex(ctx context.Context, model mongo.IndexModel, opts ...*options.CreateIndexesOptions) (string, error) {
	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		return c.collection.CreateIndex(ctx, model, opts...)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// NewProductionClient composes the full client stack used by the service:
// driver connection, instrumentation, circuit breaker.
func NewProductionClient(ctx context.Context, config *Config, m *metrics.Metrics, logger *logging.Logger) (*CircuitBreakerClient, error) {
	baseClient, err := NewClient(ctx, config)
	if err != nil {
		return nil, err
	}
	return NewCircuitBreakerClient(NewInstrumentedClient(baseClient, m, logger), logger), nil
}
