package mongodb

import (
	"context"
	"time"

	"github.com/storeops/picking-service/pkg/logging"
	"github.com/storeops/picking-service/pkg/metrics"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedClient adds metrics and tracing around the snapshot store.
type InstrumentedClient struct {
	client  *Client
	metrics *metrics.Metrics
	logger  *logging.Logger
	tracer  trace.Tracer
}

func NewInstrumentedClient(client *Client, m *metrics.Metrics, logger *logging.Logger) *InstrumentedClient {
	return &InstrumentedClient{
		client:  client,
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("mongodb"),
	}
}

// Collection returns an instrumented handle for the named collection.
func (c *InstrumentedClient) Collection(name string) *InstrumentedCollection {
	return &InstrumentedCollection{
		collection: c.client.Collection(name),
		name:       name,
		database:   c.client.config.Database,
		metrics:    c.metrics,
		logger:     c.logger,
		tracer:     c.tracer,
	}
}

func (c *InstrumentedClient) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// HealthCheck pings the server, recording the outcome on a span.
func (c *InstrumentedClient) HealthCheck(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "mongodb.ping",
		trace.WithAttributes(
			semconv.DBSystemMongoDB,
			semconv.DBNameKey.String(c.client.config.Database),
		),
	)
	defer span.End()

	err := c.client.HealthCheck(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return err
}

// InstrumentedCollection wraps the snapshot collection operations the order
// repository uses, emitting one span, one metric sample, and one query log
// line per call.
type InstrumentedCollection struct {
	collection *mongo.Collection
	name       string
	database   string
	metrics    *metrics.Metrics
	logger     *logging.Logger
	tracer     trace.Tracer
}

func (c *InstrumentedCollection) startSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "mongodb."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemMongoDB,
			semconv.DBNameKey.String(c.database),
			semconv.DBOperationKey.String(operation),
			attribute.String("db.collection", c.name),
		),
	)
}

// observe closes out a call: metric sample, query log, span status.
func (c *InstrumentedCollection) observe(ctx context.Context, span trace.Span, operation string, start time.Time, err error, rowsAffected int64) {
	duration := time.Since(start)
	success := err == nil
	if c.metrics != nil {
		c.metrics.RecordMongoDBOperation(c.name, operation, success, duration)
	}
	if c.logger != nil {
		c.logger.DatabaseQuery(ctx, c.name, operation, duration, success, rowsAffected)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
		span.SetAttributes(attribute.Int64("db.rows_affected", rowsAffected))
	}
}

func (c *InstrumentedCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	start := time.Now()
	ctx, span := c.startSpan(ctx, "findOne")
	defer span.End()

	result := c.collection.FindOne(ctx, filter, opts...)

	err := result.Err()
	var rows int64
	if err == nil {
		rows = 1
	}
	if err == mongo.ErrNoDocuments {
		// A miss is a normal outcome, not a failure.
		err = nil
	}
	c.observe(ctx, span, "findOne", start, err, rows)

	return result
}

func (c *InstrumentedCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	start := time.Now()
	ctx, span := c.startSpan(ctx, "find")
	defer span.End()

	cursor, err := c.collection.Find(ctx, filter, opts...)
	// Matched row count is unknown until the cursor is drained.
	c.observe(ctx, span, "find", start, err, 0)

	return cursor, err
}

func (c *InstrumentedCollection) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	start := time.Now()
	ctx, span := c.startSpan(ctx, "updateOne")
	defer span.End()

	result, err := c.collection.UpdateOne(ctx, filter, update, opts...)

	var rows int64
	if err == nil && result != nil {
		rows = result.ModifiedCount
		span.SetAttributes(
			attribute.Int64("db.matched_count", result.MatchedCount),
			attribute.Int64("db.upserted_count", result.UpsertedCount),
		)
	}
	c.observe(ctx, span, "updateOne", start, err, rows)

	return result, err
}

func (c *InstrumentedCollection) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	start := time.Now()
	ctx, span := c.startSpan(ctx, "deleteOne")
	defer span.End()

	result, err := c.collection.DeleteOne(ctx, filter, opts...)

	var rows int64
	if err == nil && result != nil {
		rows = result.DeletedCount
	}
	c.observe(ctx, span, "deleteOne", start, err, rows)

	return result, err
}

func (c *InstrumentedCollection) BulkWrite(ctx context.Context, models []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error) {
	start := time.Now()
	ctx, span := c.startSpan(ctx, "bulkWrite")
	defer span.End()

	span.SetAttributes(attribute.Int("db.bulk_operations", len(models)))

	result, err := c.collection.BulkWrite(ctx, models, opts...)

	var rows int64
	if err == nil && result != nil {
		rows = result.InsertedCount + result.ModifiedCount + result.UpsertedCount + result.DeletedCount
	}
	c.observe(ctx, span, "bulkWrite", start, err, rows)

	return result, err
}

func (c *InstrumentedCollection) CreateIndex(ctx context.Context, model mongo.IndexModel, opts ...*options.CreateIndexesOptions) (string, error) {
	start := time.Now()
	ctx, span := c.startSpan(ctx, "createIndex")
	defer span.End()

	name, err := c.collection.Indexes().CreateOne(ctx, model, opts...)
	if err == nil {
		span.SetAttributes(attribute.String("db.index_name", name))
	}
	c.observe(ctx, span, "createIndex", start, err, 0)

	return name, err
}
