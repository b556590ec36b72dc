package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test fixtures
func createTestOrder() *Order {
	return &Order{
		OrderNumber:    "SPE-2024-001",
		Platform:       "shopee",
		TrackingNumber: "TRK-778899",
		Status:         OrderStatusPending,
		Items: []LineItem{
			{
				LineID:      0,
				SKU:         "SKU-001",
				ProductName: "Ceramic Mug",
				Barcode:     "885001000011",
				RequiredQty: 2,
			},
			{
				LineID:      1,
				SKU:         "SKU-002",
				ProductName: "Tea Towel",
				Barcode:     "885001000028",
				RequiredQty: 1,
			},
		},
	}
}

// TestNewPickSession tests session creation
func TestNewPickSession(t *testing.T) {
	tests := []struct {
		name        string
		order       func() *Order
		expectError error
	}{
		{
			name:  "Valid session creation",
			order: createTestOrder,
		},
		{
			name: "Order with no items",
			order: func() *Order {
				o := createTestOrder()
				o.Items = nil
				return o
			},
			expectError: ErrOrderHasNoItems,
		},
		{
			name: "Order with zero required quantity",
			order: func() *Order {
				o := createTestOrder()
				o.Items[1].RequiredQty = 0
				return o
			},
			expectError: ErrInvalidQuantity,
		},
		{
			name: "Pending order with blank barcode",
			order: func() *Order {
				o := createTestOrder()
				o.Items[0].Barcode = "   "
				return o
			},
			expectError: ErrItemMissingBarcode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := NewPickSession("SES-001", tt.order())
			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				assert.Nil(t, session)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, session)
			assert.Equal(t, "SES-001", session.SessionID)
			assert.Equal(t, "SPE-2024-001", session.OrderNumber)
			assert.Equal(t, 0, session.ScannedCount(0))
			assert.Equal(t, 0, session.ScannedCount(1))
			assert.False(t, session.IsComplete())

			events := session.GetDomainEvents()
			require.Len(t, events, 1)
			opened, ok := events[0].(*PickSessionOpenedEvent)
			require.True(t, ok)
			assert.Equal(t, "SPE-2024-001", opened.OrderNumber)
			assert.False(t, opened.Prefilled)
		})
	}
}

// TestNewPickSessionDoneOrder tests that finalized orders open pre-filled
func TestNewPickSessionDoneOrder(t *testing.T) {
	order := createTestOrder()
	order.Status = OrderStatusDone

	session, err := NewPickSession("SES-002", order)
	require.NoError(t, err)

	assert.Equal(t, 2, session.ScannedCount(0))
	assert.Equal(t, 1, session.ScannedCount(1))
	assert.True(t, session.IsComplete())

	events := session.GetDomainEvents()
	require.Len(t, events, 1)
	opened := events[0].(*PickSessionOpenedEvent)
	assert.True(t, opened.Prefilled)
}

// TestNewPickSessionDoneOrderBlankBarcode ensures finalized orders are
// viewable even with bad barcode data
func TestNewPickSessionDoneOrderBlankBarcode(t *testing.T) {
	order := createTestOrder()
	order.Status = OrderStatusDone
	order.Items[0].Barcode = ""

	session, err := NewPickSession("SES-003", order)
	require.NoError(t, err)
	assert.True(t, session.IsComplete())
}

// TestScan tests the scan reconciliation outcomes
func TestScan(t *testing.T) {
	t.Run("Accepted scan increments count", func(t *testing.T) {
		session, err := NewPickSession("SES-010", createTestOrder())
		require.NoError(t, err)
		session.ClearDomainEvents()

		result := session.Scan("885001000011")
		assert.Equal(t, ScanAccepted, result.Outcome)
		assert.Equal(t, 0, result.LineID)
		assert.Equal(t, 1, result.NewCount)
		assert.Equal(t, 1, session.ScannedCount(0))

		events := session.GetDomainEvents()
		require.Len(t, events, 1)
		scanned, ok := events[0].(*ItemScannedEvent)
		require.True(t, ok)
		assert.Equal(t, 0, scanned.LineID)
		assert.Equal(t, 1, scanned.NewCount)
		assert.Equal(t, 2, scanned.RequiredQty)
	})

	t.Run("Scan normalizes whitespace and case", func(t *testing.T) {
		order := createTestOrder()
		order.Items[0].Barcode = "abc-123"
		session, err := NewPickSession("SES-011", order)
		require.NoError(t, err)

		result := session.Scan("  abc-123  ")
		assert.Equal(t, ScanAccepted, result.Outcome)

		result = session.Scan("ABC-123")
		assert.Equal(t, ScanAccepted, result.Outcome)
		assert.Equal(t, 2, result.NewCount)
	})

	t.Run("Empty input is ignored", func(t *testing.T) {
		session, err := NewPickSession("SES-012", createTestOrder())
		require.NoError(t, err)

		assert.Equal(t, ScanIgnored, session.Scan("").Outcome)
		assert.Equal(t, ScanIgnored, session.Scan("   ").Outcome)
		assert.Equal(t, 0, session.ScannedCount(0))
		assert.Equal(t, 0, session.ScannedCount(1))
	})

	t.Run("Unknown barcode is unmatched", func(t *testing.T) {
		session, err := NewPickSession("SES-013", createTestOrder())
		require.NoError(t, err)

		result := session.Scan("999999999999")
		assert.Equal(t, ScanUnmatched, result.Outcome)
		assert.Equal(t, "999999999999", result.Barcode)
		assert.Equal(t, 0, session.ScannedCount(0))
	})

	t.Run("Scanning past required is over-scanned", func(t *testing.T) {
		session, err := NewPickSession("SES-014", createTestOrder())
		require.NoError(t, err)

		assert.Equal(t, ScanAccepted, session.Scan("885001000028").Outcome)
		result := session.Scan("885001000028")
		assert.Equal(t, ScanOverScanned, result.Outcome)
		assert.Equal(t, 1, session.ScannedCount(1))
	})

	t.Run("Done order is locked before lookup", func(t *testing.T) {
		order := createTestOrder()
		order.Status = OrderStatusDone
		session, err := NewPickSession("SES-015", order)
		require.NoError(t, err)

		// Matching and non-matching barcodes alike report locked.
		assert.Equal(t, ScanLocked, session.Scan("885001000011").Outcome)
		assert.Equal(t, ScanLocked, session.Scan("999999999999").Outcome)
		assert.Equal(t, 2, session.ScannedCount(0))
	})

	t.Run("Ignored outcome wins over locked for empty input", func(t *testing.T) {
		order := createTestOrder()
		order.Status = OrderStatusDone
		session, err := NewPickSession("SES-016", order)
		require.NoError(t, err)

		assert.Equal(t, ScanIgnored, session.Scan("  ").Outcome)
	})
}

// TestScanSharedBarcode tests the first-come-first-served policy when two
// line items carry the same barcode
func TestScanSharedBarcode(t *testing.T) {
	order := &Order{
		OrderNumber: "LAZ-2024-007",
		Platform:    "lazada",
		Status:      OrderStatusPending,
		Items: []LineItem{
			{LineID: 0, SKU: "SKU-A", ProductName: "Gift Box Red", Barcode: "SHARED-1", RequiredQty: 1},
			{LineID: 1, SKU: "SKU-B", ProductName: "Gift Box Blue", Barcode: "SHARED-1", RequiredQty: 2},
		},
	}
	session, err := NewPickSession("SES-020", order)
	require.NoError(t, err)

	// The earliest unfilled line absorbs each scan; not round-robin.
	r := session.Scan("SHARED-1")
	assert.Equal(t, ScanAccepted, r.Outcome)
	assert.Equal(t, 0, r.LineID)

	r = session.Scan("SHARED-1")
	assert.Equal(t, ScanAccepted, r.Outcome)
	assert.Equal(t, 1, r.LineID)
	assert.Equal(t, 1, r.NewCount)

	r = session.Scan("SHARED-1")
	assert.Equal(t, ScanAccepted, r.Outcome)
	assert.Equal(t, 1, r.LineID)
	assert.Equal(t, 2, r.NewCount)

	r = session.Scan("SHARED-1")
	assert.Equal(t, ScanOverScanned, r.Outcome)
	assert.True(t, session.IsComplete())
}

// TestScanSequence walks a realistic picking flow to completion
func TestScanSequence(t *testing.T) {
	session, err := NewPickSession("SES-030", createTestOrder())
	require.NoError(t, err)

	assert.Equal(t, ScanAccepted, session.Scan("885001000011").Outcome)
	assert.Equal(t, ScanAccepted, session.Scan("885001000028").Outcome)
	assert.False(t, session.IsComplete())

	assert.Equal(t, ScanAccepted, session.Scan("885001000011").Outcome)
	assert.True(t, session.IsComplete())

	assert.Equal(t, ScanOverScanned, session.Scan("885001000011").Outcome)
	assert.True(t, session.IsComplete())
}

// TestCommitLifecycle tests the begin/complete/abort commit transitions
func TestCommitLifecycle(t *testing.T) {
	completeSession := func(t *testing.T) *PickSession {
		session, err := NewPickSession("SES-040", createTestOrder())
		require.NoError(t, err)
		session.Scan("885001000011")
		session.Scan("885001000011")
		session.Scan("885001000028")
		require.True(t, session.IsComplete())
		session.ClearDomainEvents()
		return session
	}

	t.Run("Begin refuses incomplete session", func(t *testing.T) {
		session, err := NewPickSession("SES-041", createTestOrder())
		require.NoError(t, err)

		assert.ErrorIs(t, session.BeginCommit(), ErrPickingIncomplete)
		assert.False(t, session.CommitInFlight())
	})

	t.Run("Begin then complete finalizes the session", func(t *testing.T) {
		session := completeSession(t)

		require.NoError(t, session.BeginCommit())
		assert.True(t, session.CommitInFlight())

		session.CompleteCommit()
		assert.True(t, session.Committed())
		assert.False(t, session.CommitInFlight())
		assert.Equal(t, OrderStatusDone, session.Status)

		// Committed sessions reject scanning.
		assert.Equal(t, ScanLocked, session.Scan("885001000011").Outcome)

		events := session.GetDomainEvents()
		require.Len(t, events, 1)
		picked, ok := events[0].(*OrderPickedEvent)
		require.True(t, ok)
		assert.Equal(t, "SPE-2024-001", picked.OrderNumber)
		assert.Equal(t, 2, picked.LineCount)
	})

	t.Run("Begin refuses while in flight", func(t *testing.T) {
		session := completeSession(t)

		require.NoError(t, session.BeginCommit())
		assert.ErrorIs(t, session.BeginCommit(), ErrCommitInFlight)
	})

	t.Run("Abort clears guard and allows retry", func(t *testing.T) {
		session := completeSession(t)

		require.NoError(t, session.BeginCommit())
		session.AbortCommit()
		assert.False(t, session.Committed())
		assert.False(t, session.CommitInFlight())

		// The caller may confirm again after a failed attempt.
		require.NoError(t, session.BeginCommit())
		session.CompleteCommit()
		assert.True(t, session.Committed())
	})

	t.Run("Begin refuses already committed session", func(t *testing.T) {
		session := completeSession(t)

		require.NoError(t, session.BeginCommit())
		session.CompleteCommit()
		assert.ErrorIs(t, session.BeginCommit(), ErrAlreadyCommitted)
	})

	t.Run("Begin refuses session opened on a done order", func(t *testing.T) {
		order := createTestOrder()
		order.Status = OrderStatusDone
		session, err := NewPickSession("SES-042", order)
		require.NoError(t, err)

		assert.ErrorIs(t, session.BeginCommit(), ErrAlreadyCommitted)
	})
}

// TestProgress tests the scanned fraction calculation
func TestProgress(t *testing.T) {
	session, err := NewPickSession("SES-050", createTestOrder())
	require.NoError(t, err)

	assert.InDelta(t, 0.0, session.Progress(), 0.001)
	session.Scan("885001000011")
	assert.InDelta(t, 1.0/3.0, session.Progress(), 0.001)
	session.Scan("885001000028")
	session.Scan("885001000011")
	assert.InDelta(t, 1.0, session.Progress(), 0.001)
}
