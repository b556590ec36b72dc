package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBarcode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Trims whitespace", input: "  885001  ", expected: "885001"},
		{name: "Uppercases", input: "abc-123", expected: "ABC-123"},
		{name: "Empty stays empty", input: "", expected: ""},
		{name: "Whitespace only collapses to empty", input: " \t ", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeBarcode(tt.input))
		})
	}
}

func TestBuildBarcodeIndex(t *testing.T) {
	items := []LineItem{
		{LineID: 0, Barcode: "abc-1", RequiredQty: 1},
		{LineID: 1, Barcode: "XYZ-2", RequiredQty: 2},
		{LineID: 2, Barcode: " ABC-1 ", RequiredQty: 1},
	}

	index := BuildBarcodeIndex(items)

	// Lines sharing a normalized barcode keep their item-list order.
	assert.Equal(t, []int{0, 2}, index.Candidates("ABC-1"))
	assert.Equal(t, []int{1}, index.Candidates("XYZ-2"))
	assert.Nil(t, index.Candidates("MISSING"))
	assert.True(t, index.Contains("ABC-1"))
	assert.False(t, index.Contains("abc-1"))
}

func TestBuildBarcodeIndexSkipsBlankBarcodes(t *testing.T) {
	items := []LineItem{
		{LineID: 0, Barcode: "   ", RequiredQty: 1},
		{LineID: 1, Barcode: "REAL-1", RequiredQty: 1},
	}

	index := BuildBarcodeIndex(items)

	assert.False(t, index.Contains(""))
	assert.Equal(t, []int{1}, index.Candidates("REAL-1"))
}
