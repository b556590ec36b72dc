package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// PickSessionOpenedEvent is published when a picking session is opened
type PickSessionOpenedEvent struct {
	SessionID   string    `json:"sessionId"`
	OrderNumber string    `json:"orderNumber"`
	Platform    string    `json:"platform"`
	ItemCount   int       `json:"itemCount"`
	Prefilled   bool      `json:"prefilled"`
	OpenedAt    time.Time `json:"openedAt"`
}

func (e *PickSessionOpenedEvent) EventType() string     { return "storeops.picking.session-opened" }
func (e *PickSessionOpenedEvent) OccurredAt() time.Time { return e.OpenedAt }

// ItemScannedEvent is published when a scan is accepted against a line item
type ItemScannedEvent struct {
	SessionID   string    `json:"sessionId"`
	OrderNumber string    `json:"orderNumber"`
	LineID      int       `json:"lineId"`
	Barcode     string    `json:"barcode"`
	NewCount    int       `json:"newCount"`
	RequiredQty int       `json:"requiredQty"`
	ScannedAt   time.Time `json:"scannedAt"`
}

func (e *ItemScannedEvent) EventType() string     { return "storeops.picking.item-scanned" }
func (e *ItemScannedEvent) OccurredAt() time.Time { return e.ScannedAt }

// OrderPickedEvent is published when a fully picked order is committed
type OrderPickedEvent struct {
	SessionID   string    `json:"sessionId"`
	OrderNumber string    `json:"orderNumber"`
	Platform    string    `json:"platform"`
	LineCount   int       `json:"lineCount"`
	CommittedAt time.Time `json:"committedAt"`
}

func (e *OrderPickedEvent) EventType() string     { return "storeops.picking.order-picked" }
func (e *OrderPickedEvent) OccurredAt() time.Time { return e.CommittedAt }
