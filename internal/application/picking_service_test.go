package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/storeops/picking-service/pkg/errors"
	"github.com/storeops/picking-service/pkg/logging"
	"github.com/storeops/picking-service/pkg/metrics"
	"github.com/storeops/picking-service/pkg/resilience"
	pkgtesting "github.com/storeops/picking-service/pkg/testing"

	"github.com/storeops/picking-service/internal/domain"
)

type fakeOrderSource struct {
	orders []domain.Order
	err    error
}

func (f *fakeOrderSource) FetchOrders(ctx context.Context) ([]domain.Order, error) {
	return f.orders, f.err
}

type fakeStatusSink struct {
	mu       sync.Mutex
	marked   []string
	err      error
	failOnce bool
}

func (f *fakeStatusSink) MarkDone(ctx context.Context, orderNumber string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		err := f.err
		if f.failOnce {
			f.err = nil
		}
		return err
	}
	f.marked = append(f.marked, orderNumber)
	return nil
}

type fakeSnapshotRepo struct {
	mu              sync.Mutex
	orders          map[string]domain.Order
	upserted        []domain.Order
	statusUpdates   map[string]domain.OrderStatus
	updateStatusErr error
}

func newFakeSnapshotRepo(orders ...domain.Order) *fakeSnapshotRepo {
	repo := &fakeSnapshotRepo{
		orders:        make(map[string]domain.Order),
		statusUpdates: make(map[string]domain.OrderStatus),
	}
	for _, order := range orders {
		repo.orders[order.OrderNumber] = order
	}
	return repo
}

func (f *fakeSnapshotRepo) UpsertAll(ctx context.Context, orders []domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = orders
	for _, order := range orders {
		f.orders[order.OrderNumber] = order
	}
	return nil
}

func (f *fakeSnapshotRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderNumber]
	if !ok {
		return nil, nil
	}
	return &order, nil
}

func (f *fakeSnapshotRepo) Find(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, order := range f.orders {
		if filter.Status != "" && string(order.Status) != filter.Status {
			continue
		}
		if filter.Platform != "" && order.Platform != filter.Platform {
			continue
		}
		out = append(out, order)
	}
	return out, nil
}

func (f *fakeSnapshotRepo) UpdateStatus(ctx context.Context, orderNumber string, status domain.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateStatusErr != nil {
		return f.updateStatusErr
	}
	f.statusUpdates[orderNumber] = status
	return nil
}

func testOrder() domain.Order {
	return domain.Order{
		OrderNumber:    "SPE-2024-001",
		Platform:       "shopee",
		TrackingNumber: "SG123456789",
		Status:         domain.OrderStatusPending,
		Items: []domain.LineItem{
			{LineID: 0, SKU: "TSHIRT-RED-M", ProductName: "Red T-Shirt (M)", Barcode: "885001000011", RequiredQty: 2},
			{LineID: 1, SKU: "MUG-WHITE", ProductName: "White Mug", Barcode: "885001000028", RequiredQty: 1},
		},
		FetchedAt: time.Now().UTC(),
	}
}

func newTestService(repo *fakeSnapshotRepo, source *fakeOrderSource, sink *fakeStatusSink) *PickingApplicationService {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	logger := logging.New(&logging.Config{ServiceName: "picking-service", Output: io.Discard})
	breaker := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("status-sink"), discard)

	return NewPickingApplicationService(
		repo,
		source,
		sink,
		breaker,
		NewSessionRegistry(),
		nil,
		nil,
		"",
		metrics.New(metrics.DefaultConfig("picking-service")),
		logger,
	)
}

func requireAppError(t *testing.T, err error, code string) *apperrors.AppError {
	t.Helper()
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code)
	return appErr
}

func TestRefreshOrders(t *testing.T) {
	repo := newFakeSnapshotRepo()
	source := &fakeOrderSource{orders: []domain.Order{testOrder()}}
	service := newTestService(repo, source, &fakeStatusSink{})

	result, err := service.RefreshOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.OrdersFetched)
	assert.Len(t, repo.upserted, 1)
}

func TestRefreshOrdersSourceFailure(t *testing.T) {
	source := &fakeOrderSource{err: errors.New("sheet unreachable")}
	service := newTestService(newFakeSnapshotRepo(), source, &fakeStatusSink{})

	_, err := service.RefreshOrders(context.Background())
	assert.Error(t, err)
}

func TestGetOrderNotFound(t *testing.T) {
	service := newTestService(newFakeSnapshotRepo(), &fakeOrderSource{}, &fakeStatusSink{})

	_, err := service.GetOrder(context.Background(), GetOrderQuery{OrderNumber: "MISSING"})
	requireAppError(t, err, apperrors.CodeNotFound)
}

func TestOpenSession(t *testing.T) {
	repo := newFakeSnapshotRepo(testOrder())
	service := newTestService(repo, &fakeOrderSource{}, &fakeStatusSink{})

	session, err := service.OpenSession(context.Background(), OpenSessionCommand{OrderNumber: "SPE-2024-001"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.SessionID)
	assert.Equal(t, "SPE-2024-001", session.OrderNumber)
	assert.False(t, session.Complete)
	require.Len(t, session.Lines, 2)
	assert.Equal(t, 0, session.Lines[0].ScannedQty)
}

func TestOpenSessionOrderNotFound(t *testing.T) {
	service := newTestService(newFakeSnapshotRepo(), &fakeOrderSource{}, &fakeStatusSink{})

	_, err := service.OpenSession(context.Background(), OpenSessionCommand{OrderNumber: "MISSING"})
	requireAppError(t, err, apperrors.CodeNotFound)
}

func TestOpenSessionDuplicateOrder(t *testing.T) {
	repo := newFakeSnapshotRepo(testOrder())
	service := newTestService(repo, &fakeOrderSource{}, &fakeStatusSink{})

	_, err := service.OpenSession(context.Background(), OpenSessionCommand{OrderNumber: "SPE-2024-001"})
	require.NoError(t, err)

	_, err = service.OpenSession(context.Background(), OpenSessionCommand{OrderNumber: "SPE-2024-001"})
	requireAppError(t, err, apperrors.CodeConflict)
}

func TestOpenSessionInvalidOrder(t *testing.T) {
	order := testOrder()
	order.Items = nil
	repo := newFakeSnapshotRepo(order)
	service := newTestService(repo, &fakeOrderSource{}, &fakeStatusSink{})

	_, err := service.OpenSession(context.Background(), OpenSessionCommand{OrderNumber: "SPE-2024-001"})
	requireAppError(t, err, apperrors.CodeValidationError)
}

func TestScan(t *testing.T) {
	repo := newFakeSnapshotRepo(testOrder())
	service := newTestService(repo, &fakeOrderSource{}, &fakeStatusSink{})
	ctx := context.Background()

	session, err := service.OpenSession(ctx, OpenSessionCommand{OrderNumber: "SPE-2024-001"})
	require.NoError(t, err)

	tests := []struct {
		name            string
		barcode         string
		expectedOutcome string
		expectComplete  bool
	}{
		{"first unit accepted", "885001000011", "accepted", false},
		{"whitespace normalized", "  885001000011  ", "accepted", false},
		{"unknown code unmatched", "999999999999", "unmatched", false},
		{"non-ascii code unmatched", "código-✓", "unmatched", false},
		{"oversized code unmatched", strings.Repeat("9", 80), "unmatched", false},
		{"empty input ignored", "", "ignored", false},
		{"last unit completes", "885001000028", "accepted", true},
		{"extra unit over-scanned", "885001000011", "over_scanned", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := service.Scan(ctx, ScanCommand{SessionID: session.SessionID, Barcode: tt.barcode})
			require.NoError(t, err)
			assert.Equal(t, tt.expectedOutcome, result.Outcome)
			assert.Equal(t, tt.expectComplete, result.Complete)
		})
	}
}

func TestScanSessionNotFound(t *testing.T) {
	service := newTestService(newFakeSnapshotRepo(), &fakeOrderSource{}, &fakeStatusSink{})

	_, err := service.Scan(context.Background(), ScanCommand{SessionID: "nope", Barcode: "123"})
	requireAppError(t, err, apperrors.CodeNotFound)
}

func completeSession(t *testing.T, service *PickingApplicationService, sessionID string) {
	t.Helper()
	ctx := context.Background()
	for _, barcode := range []string{"885001000011", "885001000011", "885001000028"} {
		result, err := service.Scan(ctx, ScanCommand{SessionID: sessionID, Barcode: barcode})
		require.NoError(t, err)
		require.Equal(t, "accepted", result.Outcome)
	}
}

func TestConfirmSession(t *testing.T) {
	repo := newFakeSnapshotRepo(testOrder())
	sink := &fakeStatusSink{}
	service := newTestService(repo, &fakeOrderSource{}, sink)
	ctx, cancel := pkgtesting.CreateTestContext(5 * time.Second)
	defer cancel()

	session, err := service.OpenSession(ctx, OpenSessionCommand{OrderNumber: "SPE-2024-001"})
	require.NoError(t, err)
	completeSession(t, service, session.SessionID)

	confirmed, err := service.ConfirmSession(ctx, ConfirmSessionCommand{SessionID: session.SessionID})
	require.NoError(t, err)
	assert.True(t, confirmed.Committed)
	assert.Equal(t, "done", confirmed.Status)
	assert.Equal(t, []string{"SPE-2024-001"}, sink.marked)
	assert.Equal(t, domain.OrderStatusDone, repo.statusUpdates["SPE-2024-001"])

	// The committed session is locked permanently.
	result, err := service.Scan(ctx, ScanCommand{SessionID: session.SessionID, Barcode: "885001000011"})
	require.NoError(t, err)
	assert.Equal(t, "locked", result.Outcome)
}

func TestConfirmSessionIncomplete(t *testing.T) {
	repo := newFakeSnapshotRepo(testOrder())
	sink := &fakeStatusSink{}
	service := newTestService(repo, &fakeOrderSource{}, sink)
	ctx := context.Background()

	session, err := service.OpenSession(ctx, OpenSessionCommand{OrderNumber: "SPE-2024-001"})
	require.NoError(t, err)

	_, err = service.ConfirmSession(ctx, ConfirmSessionCommand{SessionID: session.SessionID})
	requireAppError(t, err, apperrors.CodeConflict)
	assert.Empty(t, sink.marked)
}

func TestConfirmSessionSinkFailureAllowsRetry(t *testing.T) {
	repo := newFakeSnapshotRepo(testOrder())
	sink := &fakeStatusSink{err: errors.New("sheet write failed"), failOnce: true}
	service := newTestService(repo, &fakeOrderSource{}, sink)
	ctx := context.Background()

	session, err := service.OpenSession(ctx, OpenSessionCommand{OrderNumber: "SPE-2024-001"})
	require.NoError(t, err)
	completeSession(t, service, session.SessionID)

	_, err = service.ConfirmSession(ctx, ConfirmSessionCommand{SessionID: session.SessionID})
	requireAppError(t, err, apperrors.CodeServiceUnavailable)

	// The failed confirm released the commit guard; a retry succeeds.
	confirmed, err := service.ConfirmSession(ctx, ConfirmSessionCommand{SessionID: session.SessionID})
	require.NoError(t, err)
	assert.True(t, confirmed.Committed)
	assert.Equal(t, []string{"SPE-2024-001"}, sink.marked)
}

func TestConfirmSessionTwice(t *testing.T) {
	repo := newFakeSnapshotRepo(testOrder())
	service := newTestService(repo, &fakeOrderSource{}, &fakeStatusSink{})
	ctx := context.Background()

	session, err := service.OpenSession(ctx, OpenSessionCommand{OrderNumber: "SPE-2024-001"})
	require.NoError(t, err)
	completeSession(t, service, session.SessionID)

	_, err = service.ConfirmSession(ctx, ConfirmSessionCommand{SessionID: session.SessionID})
	require.NoError(t, err)

	_, err = service.ConfirmSession(ctx, ConfirmSessionCommand{SessionID: session.SessionID})
	requireAppError(t, err, apperrors.CodeConflict)
}

func TestCloseSession(t *testing.T) {
	repo := newFakeSnapshotRepo(testOrder())
	service := newTestService(repo, &fakeOrderSource{}, &fakeStatusSink{})
	ctx := context.Background()

	session, err := service.OpenSession(ctx, OpenSessionCommand{OrderNumber: "SPE-2024-001"})
	require.NoError(t, err)

	require.NoError(t, service.CloseSession(ctx, CloseSessionCommand{SessionID: session.SessionID}))

	_, err = service.GetSession(ctx, GetSessionQuery{SessionID: session.SessionID})
	requireAppError(t, err, apperrors.CodeNotFound)

	// The order is free for a new session after close.
	_, err = service.OpenSession(ctx, OpenSessionCommand{OrderNumber: "SPE-2024-001"})
	require.NoError(t, err)
}

func TestCloseSessionNotFound(t *testing.T) {
	service := newTestService(newFakeSnapshotRepo(), &fakeOrderSource{}, &fakeStatusSink{})

	err := service.CloseSession(context.Background(), CloseSessionCommand{SessionID: "nope"})
	requireAppError(t, err, apperrors.CodeNotFound)
}
