package domain

import "context"

// OrderFilter narrows an order listing.
type OrderFilter struct {
	Status   string
	Platform string
	Search   string // matched against order number and tracking number
	Limit    int
}

// OrderSource fetches orders from the upstream system of record.
type OrderSource interface {
	FetchOrders(ctx context.Context) ([]Order, error)
}

// StatusSink persists an order status change back to the system of record.
// Implementations must be idempotent per order number: marking an already
// done order done again succeeds without side effects.
type StatusSink interface {
	MarkDone(ctx context.Context, orderNumber string) error
}

// OrderSnapshotRepository caches fetched orders for listing and lookup.
type OrderSnapshotRepository interface {
	UpsertAll(ctx context.Context, orders []Order) error
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	Find(ctx context.Context, filter OrderFilter) ([]Order, error)
	UpdateStatus(ctx context.Context, orderNumber string, status OrderStatus) error
}
