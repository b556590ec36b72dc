package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storeops/picking-service/internal/domain"
)

func TestColumnLetter(t *testing.T) {
	tests := []struct {
		index    int
		expected string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, columnLetter(tt.index))
	}
}

func TestHeaderIndex(t *testing.T) {
	headers := []interface{}{"Order Number", " Platform ", "status", "Barcode"}

	assert.Equal(t, 0, headerIndex(headers, "Order Number"))
	assert.Equal(t, 1, headerIndex(headers, "Platform"))
	assert.Equal(t, 2, headerIndex(headers, "Status"))
	assert.Equal(t, -1, headerIndex(headers, "Quantity"))
}

func orderSheetValues() [][]interface{} {
	return [][]interface{}{
		{"Order Number", "Platform", "Tracking Number", "Status", "SKU", "Product Name", "Barcode", "Quantity"},
		{"SPE-2024-001", "shopee", "SG123456789", "pending", "TSHIRT-RED-M", "Red T-Shirt (M)", "885001000011", "2"},
		{"SPE-2024-001", "shopee", "SG123456789", "pending", "MUG-WHITE", "White Mug", "885001000028", "1"},
		{"LAZ-2024-007", "lazada", "", "Done", "CAP-BLACK", "Black Cap", "885001000035", "1"},
	}
}

func TestParseOrderRows(t *testing.T) {
	orders, err := parseOrderRows(orderSheetValues())
	require.NoError(t, err)
	require.Len(t, orders, 2)

	first := orders[0]
	assert.Equal(t, "SPE-2024-001", first.OrderNumber)
	assert.Equal(t, "shopee", first.Platform)
	assert.Equal(t, "SG123456789", first.TrackingNumber)
	assert.Equal(t, domain.OrderStatusPending, first.Status)
	require.Len(t, first.Items, 2)
	assert.Equal(t, 0, first.Items[0].LineID)
	assert.Equal(t, "TSHIRT-RED-M", first.Items[0].SKU)
	assert.Equal(t, "885001000011", first.Items[0].Barcode)
	assert.Equal(t, 2, first.Items[0].RequiredQty)
	assert.Equal(t, 1, first.Items[1].LineID)
	assert.Equal(t, 1, first.Items[1].RequiredQty)

	second := orders[1]
	assert.Equal(t, "LAZ-2024-007", second.OrderNumber)
	assert.Equal(t, domain.OrderStatusDone, second.Status)
	require.Len(t, second.Items, 1)
}

func TestParseOrderRowsSkipsBlankOrderNumbers(t *testing.T) {
	values := orderSheetValues()
	values = append(values, []interface{}{"", "", "", "", "", "", "", ""})
	values = append(values, []interface{}{"   "})

	orders, err := parseOrderRows(values)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestParseOrderRowsNonAdjacentRowsMergeIntoOneOrder(t *testing.T) {
	values := [][]interface{}{
		{"Order Number", "Status", "SKU", "Barcode", "Quantity"},
		{"ORD-1", "pending", "SKU-A", "111", "1"},
		{"ORD-2", "pending", "SKU-B", "222", "1"},
		{"ORD-1", "pending", "SKU-C", "333", "3"},
	}

	orders, err := parseOrderRows(values)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Len(t, orders[0].Items, 2)
	assert.Equal(t, "SKU-A", orders[0].Items[0].SKU)
	assert.Equal(t, "SKU-C", orders[0].Items[1].SKU)
	assert.Equal(t, 1, orders[0].Items[1].LineID)
}

func TestParseOrderRowsMissingColumns(t *testing.T) {
	tests := []struct {
		name   string
		values [][]interface{}
	}{
		{"empty sheet", nil},
		{"no order number column", [][]interface{}{{"Status", "SKU"}}},
		{"no status column", [][]interface{}{{"Order Number", "SKU"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseOrderRows(tt.values)
			assert.Error(t, err)
		})
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		raw      string
		expected int
	}{
		{"2", 2},
		{" 3 ", 3},
		{"2.0", 2},
		{"", 0},
		{"n/a", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseQuantity(tt.raw), "raw=%q", tt.raw)
	}
}

func TestMatchingRows(t *testing.T) {
	column := [][]interface{}{
		{"Order Number"},
		{"ORD-1"},
		{" ORD-2 "},
		{},
		{"ORD-1"},
		{"ord-1"},
	}

	assert.Equal(t, []int{2, 5}, matchingRows(column, "ORD-1"))
	assert.Equal(t, []int{3}, matchingRows(column, "ORD-2"))
	assert.Nil(t, matchingRows(column, "ORD-9"))
}
