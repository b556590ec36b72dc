package mongodb

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/storeops/picking-service/internal/domain"
	"github.com/storeops/picking-service/pkg/mongodb"
)

// OrderRepository stores order snapshots fetched from the order source. The
// snapshots are a read cache for listing and lookup; the order source stays
// the system of record.
type OrderRepository struct {
	collection *mongodb.CircuitBreakerCollection
}

func NewOrderRepository(client *mongodb.CircuitBreakerClient) *OrderRepository {
	repo := &OrderRepository{
		collection: client.Collection("orders"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *OrderRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "orderNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "platform", Value: 1}}},
		{Keys: bson.D{{Key: "trackingNumber", Value: 1}}},
	}
	for _, model := range indexes {
		_, _ = r.collection.CreateIndex(ctx, model)
	}
}

// UpsertAll replaces the stored snapshot for every fetched order, keyed by
// order number. Orders absent from the fetch are left untouched.
func (r *OrderRepository) UpsertAll(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	now := mongodb.Now()
	models := make([]mongo.WriteModel, 0, len(orders))
	for i := range orders {
		orders[i].FetchedAt = now
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(mongodb.BuildFilter("orderNumber", orders[i].OrderNumber)).
			SetReplacement(orders[i]).
			SetUpsert(true))
	}

	if _, err := r.collection.BulkWrite(ctx, models); err != nil {
		return fmt.Errorf("failed to upsert order snapshots: %w", err)
	}
	return nil
}

// FindByOrderNumber returns the snapshot for an order, or nil when absent.
func (r *OrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	var order domain.Order
	err := r.collection.FindOne(ctx, mongodb.BuildFilter("orderNumber", orderNumber)).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Find returns snapshots matching the filter, newest fetch first.
func (r *OrderRepository) Find(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = domain.ParseOrderStatus(filter.Status)
	}
	if filter.Platform != "" {
		query["platform"] = filter.Platform
	}
	if filter.Search != "" {
		pattern := primitiveRegex(filter.Search)
		query["$or"] = bson.A{
			bson.M{"orderNumber": pattern},
			bson.M{"trackingNumber": pattern},
		}
	}

	opts := options.Find().SetSort(mongodb.SortMultiple(
		mongodb.SortField{Field: "fetchedAt", Descending: true},
		mongodb.SortField{Field: "orderNumber"},
	))
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []domain.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus sets the stored status for an order snapshot.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderNumber string, status domain.OrderStatus) error {
	result, err := r.collection.UpdateOne(ctx,
		mongodb.BuildFilter("orderNumber", orderNumber),
		mongodb.BuildUpdate(bson.M{"status": status}),
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("order %s not found", orderNumber)
	}
	return nil
}

// Delete removes an order snapshot.
func (r *OrderRepository) Delete(ctx context.Context, orderNumber string) error {
	_, err := r.collection.DeleteOne(ctx, mongodb.BuildFilter("orderNumber", orderNumber))
	return err
}

// primitiveRegex builds a case-insensitive substring match for search input.
// Metacharacters are quoted so user input cannot change the query shape.
func primitiveRegex(search string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
}
