package domain

import (
	"errors"
	"strings"
	"time"
)

// Errors
var (
	ErrOrderHasNoItems    = errors.New("order has no line items")
	ErrInvalidQuantity    = errors.New("invalid required quantity")
	ErrItemMissingBarcode = errors.New("line item has no scannable barcode")
	ErrPickingIncomplete  = errors.New("picking is not complete")
	ErrAlreadyCommitted   = errors.New("order is already committed")
	ErrCommitInFlight     = errors.New("commit is already in flight")
)

// OrderStatus is the externally persisted status of an order
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusDone    OrderStatus = "done"
)

// ParseOrderStatus normalizes a raw status string from the order store.
// Comparison is case-insensitive; anything that is not "done" is pending.
func ParseOrderStatus(raw string) OrderStatus {
	if strings.EqualFold(strings.TrimSpace(raw), string(OrderStatusDone)) {
		return OrderStatusDone
	}
	return OrderStatusPending
}

// LineItem is one distinct product entry within an order, with its own
// required scan quantity. Immutable for the lifetime of a pick session.
type LineItem struct {
	LineID      int    `bson:"lineId" json:"lineId"`
	SKU         string `bson:"sku" json:"sku"`
	ProductName string `bson:"productName" json:"productName"`
	Barcode     string `bson:"barcode" json:"barcode"`
	RequiredQty int    `bson:"requiredQty" json:"requiredQty"`
}

// Order is an e-commerce order as supplied by the order source.
type Order struct {
	OrderNumber    string      `bson:"orderNumber" json:"orderNumber"`
	Platform       string      `bson:"platform" json:"platform"`
	TrackingNumber string      `bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	Status         OrderStatus `bson:"status" json:"status"`
	Items          []LineItem  `bson:"items" json:"items"`
	FetchedAt      time.Time   `bson:"fetchedAt" json:"fetchedAt"`
}

// IsDone reports whether the order has already been picked and finalized.
func (o *Order) IsDone() bool {
	return o.Status == OrderStatusDone
}

// NormalizeBarcode produces the canonical key used for all barcode matching.
func NormalizeBarcode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
