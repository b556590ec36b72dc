package mongodb

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/storeops/picking-service/internal/domain"
	"github.com/storeops/picking-service/pkg/logging"
	"github.com/storeops/picking-service/pkg/metrics"
	"github.com/storeops/picking-service/pkg/mongodb"
	pkgtesting "github.com/storeops/picking-service/pkg/testing"
)

type OrderRepositoryIntegrationTestSuite struct {
	suite.Suite
	container *pkgtesting.MongoDBContainer
	client    *mongodb.Client
	repo      *OrderRepository
	ctx       context.Context
}

func (s *OrderRepositoryIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := pkgtesting.NewMongoDBContainer(s.ctx)
	s.Require().NoError(err)
	s.container = container

	config := mongodb.DefaultConfig()
	config.URI = container.URI
	config.Database = "picking_test"

	client, err := mongodb.NewClient(s.ctx, config)
	s.Require().NoError(err)
	s.client = client

	m := metrics.New(metrics.DefaultConfig("picking-service"))
	logger := logging.New(&logging.Config{ServiceName: "picking-service", Output: io.Discard})
	instrumented := mongodb.NewInstrumentedClient(client, m, logger)
	s.repo = NewOrderRepository(mongodb.NewCircuitBreakerClient(instrumented, logger))
}

func (s *OrderRepositoryIntegrationTestSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close(s.ctx)
	}
	if s.container != nil {
		s.Require().NoError(s.container.Close(s.ctx))
	}
}

func (s *OrderRepositoryIntegrationTestSuite) TearDownTest() {
	s.client.Collection("orders").Drop(s.ctx)
}

func TestOrderRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	suite.Run(t, new(OrderRepositoryIntegrationTestSuite))
}

func (s *OrderRepositoryIntegrationTestSuite) seedOrders() []domain.Order {
	orders := []domain.Order{
		{
			OrderNumber:    "SPE-2024-001",
			Platform:       "shopee",
			TrackingNumber: "SG123456789",
			Status:         domain.OrderStatusPending,
			Items: []domain.LineItem{
				{LineID: 0, SKU: "TSHIRT-RED-M", ProductName: "Red T-Shirt (M)", Barcode: "885001000011", RequiredQty: 2},
			},
		},
		{
			OrderNumber:    "LAZ-2024-007",
			Platform:       "lazada",
			TrackingNumber: "SG987654321",
			Status:         domain.OrderStatusDone,
			Items: []domain.LineItem{
				{LineID: 0, SKU: "CAP-BLACK", ProductName: "Black Cap", Barcode: "885001000035", RequiredQty: 1},
			},
		},
	}
	s.Require().NoError(s.repo.UpsertAll(s.ctx, orders))
	return orders
}

func (s *OrderRepositoryIntegrationTestSuite) TestUpsertAllAndFindByOrderNumber() {
	s.seedOrders()

	order, err := s.repo.FindByOrderNumber(s.ctx, "SPE-2024-001")
	s.Require().NoError(err)
	s.Require().NotNil(order)
	s.Equal("shopee", order.Platform)
	s.Require().Len(order.Items, 1)
	s.Equal("885001000011", order.Items[0].Barcode)
	s.False(order.FetchedAt.IsZero())
}

func (s *OrderRepositoryIntegrationTestSuite) TestUpsertAllReplacesExistingSnapshot() {
	orders := s.seedOrders()

	orders[0].Status = domain.OrderStatusDone
	orders[0].Items[0].RequiredQty = 5
	s.Require().NoError(s.repo.UpsertAll(s.ctx, orders[:1]))

	order, err := s.repo.FindByOrderNumber(s.ctx, "SPE-2024-001")
	s.Require().NoError(err)
	s.Require().NotNil(order)
	s.Equal(domain.OrderStatusDone, order.Status)
	s.Equal(5, order.Items[0].RequiredQty)

	// Orders absent from the refresh stay untouched.
	other, err := s.repo.FindByOrderNumber(s.ctx, "LAZ-2024-007")
	s.Require().NoError(err)
	s.Require().NotNil(other)
}

func (s *OrderRepositoryIntegrationTestSuite) TestFindByOrderNumberMissing() {
	order, err := s.repo.FindByOrderNumber(s.ctx, "NOPE")
	s.Require().NoError(err)
	s.Nil(order)
}

func (s *OrderRepositoryIntegrationTestSuite) TestFindWithFilters() {
	s.seedOrders()

	pending, err := s.repo.Find(s.ctx, domain.OrderFilter{Status: "pending", Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal("SPE-2024-001", pending[0].OrderNumber)

	lazada, err := s.repo.Find(s.ctx, domain.OrderFilter{Platform: "lazada", Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(lazada, 1)
	s.Equal("LAZ-2024-007", lazada[0].OrderNumber)

	all, err := s.repo.Find(s.ctx, domain.OrderFilter{Limit: 10})
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *OrderRepositoryIntegrationTestSuite) TestFindSearchesOrderAndTrackingNumbers() {
	s.seedOrders()

	byOrder, err := s.repo.Find(s.ctx, domain.OrderFilter{Search: "spe-2024", Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(byOrder, 1)
	s.Equal("SPE-2024-001", byOrder[0].OrderNumber)

	byTracking, err := s.repo.Find(s.ctx, domain.OrderFilter{Search: "SG9876", Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(byTracking, 1)
	s.Equal("LAZ-2024-007", byTracking[0].OrderNumber)
}

func (s *OrderRepositoryIntegrationTestSuite) TestUpdateStatus() {
	s.seedOrders()

	s.Require().NoError(s.repo.UpdateStatus(s.ctx, "SPE-2024-001", domain.OrderStatusDone))

	order, err := s.repo.FindByOrderNumber(s.ctx, "SPE-2024-001")
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusDone, order.Status)

	s.Error(s.repo.UpdateStatus(s.ctx, "NOPE", domain.OrderStatusDone))
}

func (s *OrderRepositoryIntegrationTestSuite) TestDelete() {
	s.seedOrders()

	s.Require().NoError(s.repo.Delete(s.ctx, "SPE-2024-001"))

	order, err := s.repo.FindByOrderNumber(s.ctx, "SPE-2024-001")
	s.Require().NoError(err)
	s.Nil(order)
}
