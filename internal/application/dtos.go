package application

import "time"

// OrderSummaryDTO represents an order in list responses
type OrderSummaryDTO struct {
	OrderNumber    string    `json:"orderNumber"`
	Platform       string    `json:"platform"`
	TrackingNumber string    `json:"trackingNumber,omitempty"`
	Status         string    `json:"status"`
	ItemCount      int       `json:"itemCount"`
	FetchedAt      time.Time `json:"fetchedAt"`
}

// OrderDTO represents a full order in responses
type OrderDTO struct {
	OrderNumber    string        `json:"orderNumber"`
	Platform       string        `json:"platform"`
	TrackingNumber string        `json:"trackingNumber,omitempty"`
	Status         string        `json:"status"`
	Items          []LineItemDTO `json:"items"`
	FetchedAt      time.Time     `json:"fetchedAt"`
}

// LineItemDTO represents a line item within an order
type LineItemDTO struct {
	LineID      int    `json:"lineId"`
	SKU         string `json:"sku"`
	ProductName string `json:"productName"`
	Barcode     string `json:"barcode"`
	RequiredQty int    `json:"requiredQty"`
}

// SessionLineDTO represents a line item with its scan progress
type SessionLineDTO struct {
	LineID      int    `json:"lineId"`
	SKU         string `json:"sku"`
	ProductName string `json:"productName"`
	Barcode     string `json:"barcode"`
	RequiredQty int    `json:"requiredQty"`
	ScannedQty  int    `json:"scannedQty"`
}

// SessionDTO represents a picking session in responses
type SessionDTO struct {
	SessionID      string           `json:"sessionId"`
	OrderNumber    string           `json:"orderNumber"`
	Platform       string           `json:"platform"`
	TrackingNumber string           `json:"trackingNumber,omitempty"`
	Status         string           `json:"status"`
	Lines          []SessionLineDTO `json:"lines"`
	Complete       bool             `json:"complete"`
	Committed      bool             `json:"committed"`
	Progress       float64          `json:"progress"`
	OpenedAt       time.Time        `json:"openedAt"`
}

// ScanResultDTO represents the outcome of one scan
type ScanResultDTO struct {
	Outcome  string `json:"outcome"`
	Barcode  string `json:"barcode,omitempty"`
	LineID   *int   `json:"lineId,omitempty"`
	NewCount *int   `json:"newCount,omitempty"`
	Complete bool   `json:"complete"`
}

// RefreshResultDTO represents the outcome of an order refresh
type RefreshResultDTO struct {
	OrdersFetched int       `json:"ordersFetched"`
	RefreshedAt   time.Time `json:"refreshedAt"`
}
