package cloudevents

import (
	"time"
)

// EventType constants for picking domain events
const (
	SessionOpened = "storeops.picking.session-opened"
	ItemScanned   = "storeops.picking.item-scanned"
	OrderPicked   = "storeops.picking.order-picked"
)

// Source constants for event sources
const (
	SourcePicking = "/storeops/picking-service"
)

// CloudEvents extension attribute names used in message headers
const (
	ExtCorrelationID = "correlationid"
	ExtOrderNumber   = "ordernumber"
	ExtSessionID     = "sessionid"
	ExtPlatform      = "platform"
)

// CloudEvent represents a CloudEvents v1.0 compliant event
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	// Business context extensions
	CorrelationID string `json:"correlationid,omitempty"`
	OrderNumber   string `json:"ordernumber,omitempty"`
	SessionID     string `json:"sessionid,omitempty"`
	Platform      string `json:"platform,omitempty"`

	// W3C trace context, propagated through message headers
	TraceParent string `json:"traceparent,omitempty"`
	TraceState  string `json:"tracestate,omitempty"`
}

// SessionOpenedData represents the data payload for SessionOpened events
type SessionOpenedData struct {
	SessionID   string `json:"sessionId"`
	OrderNumber string `json:"orderNumber"`
	Platform    string `json:"platform"`
	ItemCount   int    `json:"itemCount"`
	Prefilled   bool   `json:"prefilled"`
}

// ItemScannedData represents the data payload for ItemScanned events
type ItemScannedData struct {
	SessionID   string `json:"sessionId"`
	OrderNumber string `json:"orderNumber"`
	LineID      int    `json:"lineId"`
	Barcode     string `json:"barcode"`
	NewCount    int    `json:"newCount"`
	RequiredQty int    `json:"requiredQty"`
}

// OrderPickedData represents the data payload for OrderPicked events
type OrderPickedData struct {
	SessionID   string `json:"sessionId"`
	OrderNumber string `json:"orderNumber"`
	Platform    string `json:"platform"`
	LineCount   int    `json:"lineCount"`
}
