package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/sheets/v4"

	"github.com/storeops/picking-service/internal/domain"
	"github.com/storeops/picking-service/pkg/logging"
	"github.com/storeops/picking-service/pkg/metrics"
)

// StatusSink writes order status changes back to the orders sheet.
type StatusSink struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	metrics       *metrics.Metrics
	logger        *logging.Logger
}

// NewStatusSink creates a StatusSink writing to the given sheet.
func NewStatusSink(service *sheets.Service, config Config, m *metrics.Metrics, logger *logging.Logger) *StatusSink {
	sheetName := config.SheetName
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	return &StatusSink{
		service:       service,
		spreadsheetID: config.SpreadsheetID,
		sheetName:     sheetName,
		metrics:       m,
		logger:        logger,
	}
}

// MarkDone sets the status cell to "done" on every row belonging to the
// order. Rows that already read "done" are written again with the same
// value, so repeating the call for the same order is harmless.
func (s *StatusSink) MarkDone(ctx context.Context, orderNumber string) error {
	headers, err := s.readRow(ctx, fmt.Sprintf("%s!1:1", s.sheetName))
	if err != nil {
		return fmt.Errorf("failed to read sheet headers: %w", err)
	}

	orderCol := headerIndex(headers, headerOrderNumber)
	statusCol := headerIndex(headers, headerStatus)
	if orderCol < 0 || statusCol < 0 {
		return fmt.Errorf("orders sheet is missing %q or %q column", headerOrderNumber, headerStatus)
	}

	numberColumn := columnLetter(orderCol)
	columnRange := fmt.Sprintf("%s!%s:%s", s.sheetName, numberColumn, numberColumn)
	values, err := s.readColumn(ctx, columnRange)
	if err != nil {
		return fmt.Errorf("failed to read order number column: %w", err)
	}

	rows := matchingRows(values, orderNumber)
	if len(rows) == 0 {
		return fmt.Errorf("order %s not found in sheet", orderNumber)
	}

	statusColumn := columnLetter(statusCol)
	data := make([]*sheets.ValueRange, 0, len(rows))
	for _, row := range rows {
		data = append(data, &sheets.ValueRange{
			Range:  fmt.Sprintf("%s!%s%d", s.sheetName, statusColumn, row),
			Values: [][]interface{}{{string(domain.OrderStatusDone)}},
		})
	}

	start := time.Now()
	_, err = s.service.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             data,
	}).Context(ctx).Do()
	if s.metrics != nil {
		s.metrics.RecordSheetsCall("values.batchUpdate", err == nil, time.Since(start))
	}
	if err != nil {
		return fmt.Errorf("failed to update status for order %s: %w", orderNumber, err)
	}

	if s.logger != nil {
		s.logger.Info("marked order done in sheet",
			"order_number", orderNumber,
			"rows_updated", len(rows))
	}
	return nil
}

func (s *StatusSink) readRow(ctx context.Context, readRange string) ([]interface{}, error) {
	values, err := s.read(ctx, readRange)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("range %s is empty", readRange)
	}
	return values[0], nil
}

func (s *StatusSink) readColumn(ctx context.Context, readRange string) ([][]interface{}, error) {
	return s.read(ctx, readRange)
}

func (s *StatusSink) read(ctx context.Context, readRange string) ([][]interface{}, error) {
	start := time.Now()
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, readRange).Context(ctx).Do()
	if s.metrics != nil {
		s.metrics.RecordSheetsCall("values.get", err == nil, time.Since(start))
	}
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// matchingRows returns the 1-based sheet row numbers whose first cell
// matches the order number after trimming. Row 1 is the header row and
// never matches an order number lookup from our own data.
func matchingRows(column [][]interface{}, orderNumber string) []int {
	target := strings.TrimSpace(orderNumber)
	var rows []int
	for i, row := range column {
		if i == 0 {
			continue
		}
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(cellString(row[0])) == target {
			rows = append(rows, i+1)
		}
	}
	return rows
}
