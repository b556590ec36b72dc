package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/storeops/picking-service/pkg/cloudevents"
	"github.com/storeops/picking-service/pkg/errors"
	"github.com/storeops/picking-service/pkg/logging"
	"github.com/storeops/picking-service/pkg/metrics"
	"github.com/storeops/picking-service/pkg/resilience"

	"github.com/storeops/picking-service/internal/domain"
)

const defaultListLimit = 50

// EventPublisher publishes picking events to the message broker.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.CloudEvent) error
}

// PickingApplicationService handles picking-related use cases
type PickingApplicationService struct {
	snapshots    domain.OrderSnapshotRepository
	source       domain.OrderSource
	sink         domain.StatusSink
	sinkBreaker  *resilience.CircuitBreaker
	sessions     *SessionRegistry
	producer     EventPublisher
	eventFactory *cloudevents.EventFactory
	eventsTopic  string
	metrics      *metrics.Metrics
	logger       *logging.Logger
}

// NewPickingApplicationService creates a new PickingApplicationService
func NewPickingApplicationService(
	snapshots domain.OrderSnapshotRepository,
	source domain.OrderSource,
	sink domain.StatusSink,
	sinkBreaker *resilience.CircuitBreaker,
	sessions *SessionRegistry,
	producer EventPublisher,
	eventFactory *cloudevents.EventFactory,
	eventsTopic string,
	m *metrics.Metrics,
	logger *logging.Logger,
) *PickingApplicationService {
	return &PickingApplicationService{
		snapshots:    snapshots,
		source:       source,
		sink:         sink,
		sinkBreaker:  sinkBreaker,
		sessions:     sessions,
		producer:     producer,
		eventFactory: eventFactory,
		eventsTopic:  eventsTopic,
		metrics:      m,
		logger:       logger,
	}
}

// RefreshOrders re-fetches all orders from the order source and replaces the
// cached snapshots.
func (s *PickingApplicationService) RefreshOrders(ctx context.Context) (*RefreshResultDTO, error) {
	orders, err := s.source.FetchOrders(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to fetch orders from source")
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}

	if err := s.snapshots.UpsertAll(ctx, orders); err != nil {
		s.logger.WithError(err).Error("Failed to store order snapshots")
		return nil, fmt.Errorf("failed to store order snapshots: %w", err)
	}

	s.metrics.RecordOrdersRefreshed(len(orders))
	s.logger.Info("Refreshed orders", "count", len(orders))

	return &RefreshResultDTO{
		OrdersFetched: len(orders),
		RefreshedAt:   time.Now().UTC(),
	}, nil
}

// ListOrders retrieves cached orders with optional filters
func (s *PickingApplicationService) ListOrders(ctx context.Context, query ListOrdersQuery) ([]OrderSummaryDTO, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	orders, err := s.snapshots.Find(ctx, domain.OrderFilter{
		Status:   query.Status,
		Platform: query.Platform,
		Search:   query.Search,
		Limit:    limit,
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to list orders", "status", query.Status, "platform", query.Platform)
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return ToOrderSummaryDTOs(orders), nil
}

// GetOrder retrieves a cached order by order number
func (s *PickingApplicationService) GetOrder(ctx context.Context, query GetOrderQuery) (*OrderDTO, error) {
	order, err := s.snapshots.FindByOrderNumber(ctx, query.OrderNumber)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get order", "orderNumber", query.OrderNumber)
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		return nil, errors.ErrNotFoundWithID("order", query.OrderNumber)
	}

	return ToOrderDTO(order), nil
}

// OpenSession opens a picking session for an order
func (s *PickingApplicationService) OpenSession(ctx context.Context, cmd OpenSessionCommand) (*SessionDTO, error) {
	order, err := s.snapshots.FindByOrderNumber(ctx, cmd.OrderNumber)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get order", "orderNumber", cmd.OrderNumber)
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		return nil, errors.ErrNotFoundWithID("order", cmd.OrderNumber)
	}

	session, err := domain.NewPickSession(uuid.New().String(), order)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if err := s.sessions.Add(session); err != nil {
		if stderrors.Is(err, ErrDuplicateOrderSession) {
			return nil, errors.ErrConflict(err.Error()).WithDetail("orderNumber", cmd.OrderNumber)
		}
		return nil, fmt.Errorf("failed to register session: %w", err)
	}

	events := session.GetDomainEvents()
	session.ClearDomainEvents()

	s.metrics.RecordSessionOpened(order.Platform)
	s.metrics.SetActiveSessions(s.sessions.Len())
	s.publishEvents(ctx, session.SessionID, events)

	s.logger.Info("Opened picking session",
		"sessionId", session.SessionID,
		"orderNumber", cmd.OrderNumber,
		"items", len(order.Items),
	)

	return ToSessionDTO(session), nil
}

// GetSession retrieves a live session by ID
func (s *PickingApplicationService) GetSession(ctx context.Context, query GetSessionQuery) (*SessionDTO, error) {
	handle, err := s.sessions.Get(query.SessionID)
	if err != nil {
		return nil, errors.ErrNotFoundWithID("session", query.SessionID)
	}

	handle.mu.Lock()
	defer handle.mu.Unlock()
	return ToSessionDTO(handle.session), nil
}

// Scan reconciles one scanner input against a session
func (s *PickingApplicationService) Scan(ctx context.Context, cmd ScanCommand) (*ScanResultDTO, error) {
	handle, err := s.sessions.Get(cmd.SessionID)
	if err != nil {
		return nil, errors.ErrNotFoundWithID("session", cmd.SessionID)
	}

	handle.mu.Lock()
	result := handle.session.Scan(cmd.Barcode)
	complete := handle.session.IsComplete()
	platform := handle.session.Platform
	events := handle.session.GetDomainEvents()
	handle.session.ClearDomainEvents()
	handle.mu.Unlock()

	s.metrics.RecordScan(platform, string(result.Outcome))
	s.publishEvents(ctx, cmd.SessionID, events)

	if result.Outcome != domain.ScanAccepted {
		s.logger.Info("Scan rejected",
			"sessionId", cmd.SessionID,
			"outcome", string(result.Outcome),
			"barcode", result.Barcode,
		)
	}

	dto := ToScanResultDTO(result, complete)
	return &dto, nil
}

// ConfirmSession commits a completed session: the order is marked done in the
// system of record, then the session locks permanently. The session lock is
// not held across the external call; the commit-in-flight guard on the
// session rejects a second confirm in the meantime.
func (s *PickingApplicationService) ConfirmSession(ctx context.Context, cmd ConfirmSessionCommand) (*SessionDTO, error) {
	handle, err := s.sessions.Get(cmd.SessionID)
	if err != nil {
		return nil, errors.ErrNotFoundWithID("session", cmd.SessionID)
	}

	handle.mu.Lock()
	beginErr := handle.session.BeginCommit()
	orderNumber := handle.session.OrderNumber
	handle.mu.Unlock()

	if beginErr != nil {
		switch {
		case stderrors.Is(beginErr, domain.ErrCommitInFlight):
			return nil, errors.ErrConflict("confirm already in progress")
		case stderrors.Is(beginErr, domain.ErrAlreadyCommitted):
			return nil, errors.ErrConflict("order is already committed")
		case stderrors.Is(beginErr, domain.ErrPickingIncomplete):
			return nil, errors.ErrConflict("picking is not complete")
		default:
			return nil, fmt.Errorf("failed to begin commit: %w", beginErr)
		}
	}

	_, sinkErr := s.sinkBreaker.Execute(ctx, func() (interface{}, error) {
		return nil, s.sink.MarkDone(ctx, orderNumber)
	})

	handle.mu.Lock()
	defer handle.mu.Unlock()

	if sinkErr != nil {
		handle.session.AbortCommit()
		s.logger.WithError(sinkErr).Error("Failed to commit order status",
			"sessionId", cmd.SessionID,
			"orderNumber", orderNumber,
		)
		return nil, errors.ErrServiceUnavailable("order status store").Wrap(sinkErr)
	}

	handle.session.CompleteCommit()
	events := handle.session.GetDomainEvents()
	handle.session.ClearDomainEvents()

	if err := s.snapshots.UpdateStatus(ctx, orderNumber, domain.OrderStatusDone); err != nil {
		// The system of record already holds the new status; the stale
		// snapshot heals on the next refresh.
		s.logger.WithError(err).Warn("Failed to update order snapshot after commit", "orderNumber", orderNumber)
	}

	s.metrics.RecordOrderCommitted(handle.session.Platform)
	s.publishEvents(ctx, cmd.SessionID, events)

	s.logger.Info("Committed order",
		"sessionId", cmd.SessionID,
		"orderNumber", orderNumber,
	)

	return ToSessionDTO(handle.session), nil
}

// CloseSession discards a live session. A confirm still running against the
// removed session completes on its own; its result reaches the system of
// record but the session itself is gone.
func (s *PickingApplicationService) CloseSession(ctx context.Context, cmd CloseSessionCommand) error {
	if err := s.sessions.Remove(cmd.SessionID); err != nil {
		return errors.ErrNotFoundWithID("session", cmd.SessionID)
	}

	s.metrics.SetActiveSessions(s.sessions.Len())
	s.logger.Info("Closed picking session", "sessionId", cmd.SessionID)
	return nil
}

// publishEvents sends drained domain events to Kafka. Publishing is best
// effort; a broker outage never fails the picking operation.
func (s *PickingApplicationService) publishEvents(ctx context.Context, sessionID string, events []domain.DomainEvent) {
	if s.producer == nil {
		return
	}

	for _, evt := range events {
		var event *cloudevents.CloudEvent

		switch e := evt.(type) {
		case *domain.PickSessionOpenedEvent:
			event = s.eventFactory.CreateSessionOpenedEvent(ctx, e.SessionID, e.OrderNumber, e.Platform, e.ItemCount, e.Prefilled)
		case *domain.ItemScannedEvent:
			event = s.eventFactory.CreateItemScannedEvent(ctx, e.SessionID, e.OrderNumber, e.LineID, e.Barcode, e.NewCount, e.RequiredQty)
		case *domain.OrderPickedEvent:
			event = s.eventFactory.CreateOrderPickedEvent(ctx, e.SessionID, e.OrderNumber, e.Platform, e.LineCount)
		default:
			continue
		}

		if err := s.producer.PublishEvent(ctx, s.eventsTopic, event); err != nil {
			s.logger.WithError(err).Error("Failed to publish event",
				"eventType", evt.EventType(),
				"sessionId", sessionID,
			)
		}
	}
}
