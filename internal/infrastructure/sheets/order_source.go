package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/sheets/v4"

	"github.com/storeops/picking-service/internal/domain"
	"github.com/storeops/picking-service/pkg/logging"
	"github.com/storeops/picking-service/pkg/metrics"
	"github.com/storeops/picking-service/pkg/resilience"
)

// Column headers expected on the first row of the orders sheet.
const (
	headerOrderNumber    = "Order Number"
	headerPlatform       = "Platform"
	headerTrackingNumber = "Tracking Number"
	headerStatus         = "Status"
	headerSKU            = "SKU"
	headerProductName    = "Product Name"
	headerBarcode        = "Barcode"
	headerQuantity       = "Quantity"
)

// OrderSource reads orders from a Google Sheet where each row is one
// line item and consecutive rows sharing an order number form one order.
type OrderSource struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	retry         *resilience.RetryConfig
	metrics       *metrics.Metrics
	logger        *logging.Logger
}

// NewOrderSource creates an OrderSource backed by the given sheet.
func NewOrderSource(service *sheets.Service, config Config, m *metrics.Metrics, logger *logging.Logger) *OrderSource {
	sheetName := config.SheetName
	if sheetName == "" {
		sheetName = DefaultSheetName
	}

	// Reading the sheet has no side effects, so transient API errors are
	// safe to retry. Status writes never go through this path.
	retry := resilience.DefaultRetryConfig()
	retry.RetryableErrors = func(err error) bool { return true }

	return &OrderSource{
		service:       service,
		spreadsheetID: config.SpreadsheetID,
		sheetName:     sheetName,
		retry:         retry,
		metrics:       m,
		logger:        logger,
	}
}

// FetchOrders reads the whole orders sheet and groups its rows into orders.
func (s *OrderSource) FetchOrders(ctx context.Context) ([]domain.Order, error) {
	resp, err := resilience.RetryWithResult(ctx, s.retry, func() (*sheets.ValueRange, error) {
		start := time.Now()
		resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName).Context(ctx).Do()
		if s.metrics != nil {
			s.metrics.RecordSheetsCall("values.get", err == nil, time.Since(start))
		}
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read orders sheet: %w", err)
	}

	orders, err := parseOrderRows(resp.Values)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Debug("fetched orders from sheet",
			"sheet", s.sheetName,
			"rows", len(resp.Values),
			"orders", len(orders))
	}
	return orders, nil
}

// parseOrderRows converts raw sheet values into orders. The first row is
// the header row; rows without an order number are skipped. Row order is
// preserved both across orders and within an order's line items.
func parseOrderRows(values [][]interface{}) ([]domain.Order, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("orders sheet is empty")
	}

	headers := values[0]
	cols := struct {
		orderNumber, platform, tracking, status, sku, productName, barcode, quantity int
	}{
		orderNumber: headerIndex(headers, headerOrderNumber),
		platform:    headerIndex(headers, headerPlatform),
		tracking:    headerIndex(headers, headerTrackingNumber),
		status:      headerIndex(headers, headerStatus),
		sku:         headerIndex(headers, headerSKU),
		productName: headerIndex(headers, headerProductName),
		barcode:     headerIndex(headers, headerBarcode),
		quantity:    headerIndex(headers, headerQuantity),
	}
	if cols.orderNumber < 0 || cols.status < 0 {
		return nil, fmt.Errorf("orders sheet is missing %q or %q column", headerOrderNumber, headerStatus)
	}

	byNumber := make(map[string]*domain.Order)
	var ordered []*domain.Order

	for _, row := range values[1:] {
		orderNumber := strings.TrimSpace(rowCell(row, cols.orderNumber))
		if orderNumber == "" {
			continue
		}

		order, ok := byNumber[orderNumber]
		if !ok {
			order = &domain.Order{
				OrderNumber:    orderNumber,
				Platform:       strings.TrimSpace(rowCell(row, cols.platform)),
				TrackingNumber: strings.TrimSpace(rowCell(row, cols.tracking)),
				Status:         domain.ParseOrderStatus(rowCell(row, cols.status)),
			}
			byNumber[orderNumber] = order
			ordered = append(ordered, order)
		}

		order.Items = append(order.Items, domain.LineItem{
			LineID:      len(order.Items),
			SKU:         strings.TrimSpace(rowCell(row, cols.sku)),
			ProductName: strings.TrimSpace(rowCell(row, cols.productName)),
			Barcode:     rowCell(row, cols.barcode),
			RequiredQty: parseQuantity(rowCell(row, cols.quantity)),
		})
	}

	orders := make([]domain.Order, 0, len(ordered))
	for _, order := range ordered {
		orders = append(orders, *order)
	}
	return orders, nil
}

func rowCell(row []interface{}, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return cellString(row[index])
}

// parseQuantity tolerates the numeric formats sheet cells produce,
// including floats like "2.0". Unparseable values yield zero.
func parseQuantity(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(f)
	}
	return 0
}
