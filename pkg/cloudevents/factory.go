package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventFactory creates CloudEvents for picking domain events
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// CreateEvent creates a new CloudEvent with the given parameters
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
) *CloudEvent {
	return &CloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
	}
}

// CreateSessionOpenedEvent creates a SessionOpened event
func (f *EventFactory) CreateSessionOpenedEvent(
	ctx context.Context,
	sessionID string,
	orderNumber string,
	platform string,
	itemCount int,
	prefilled bool,
) *CloudEvent {
	data := SessionOpenedData{
		SessionID:   sessionID,
		OrderNumber: orderNumber,
		Platform:    platform,
		ItemCount:   itemCount,
		Prefilled:   prefilled,
	}
	event := f.CreateEvent(ctx, SessionOpened, "session/"+sessionID, data)
	event.SessionID = sessionID
	event.OrderNumber = orderNumber
	event.Platform = platform
	return event
}

// CreateItemScannedEvent creates an ItemScanned event
func (f *EventFactory) CreateItemScannedEvent(
	ctx context.Context,
	sessionID string,
	orderNumber string,
	lineID int,
	barcode string,
	newCount int,
	requiredQty int,
) *CloudEvent {
	data := ItemScannedData{
		SessionID:   sessionID,
		OrderNumber: orderNumber,
		LineID:      lineID,
		Barcode:     barcode,
		NewCount:    newCount,
		RequiredQty: requiredQty,
	}
	event := f.CreateEvent(ctx, ItemScanned, "session/"+sessionID, data)
	event.SessionID = sessionID
	event.OrderNumber = orderNumber
	return event
}

// CreateOrderPickedEvent creates an OrderPicked event
func (f *EventFactory) CreateOrderPickedEvent(
	ctx context.Context,
	sessionID string,
	orderNumber string,
	platform string,
	lineCount int,
) *CloudEvent {
	data := OrderPickedData{
		SessionID:   sessionID,
		OrderNumber: orderNumber,
		Platform:    platform,
		LineCount:   lineCount,
	}
	event := f.CreateEvent(ctx, OrderPicked, "order/"+orderNumber, data)
	event.SessionID = sessionID
	event.OrderNumber = orderNumber
	event.Platform = platform
	return event
}
