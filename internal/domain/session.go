package domain

import (
	"time"
)

// ScanOutcome classifies the result of reconciling one scan event.
type ScanOutcome string

const (
	// ScanAccepted means the scan fulfilled one unit of a line item.
	ScanAccepted ScanOutcome = "accepted"
	// ScanOverScanned means the barcode matched but every matching line
	// item already has its full required quantity.
	ScanOverScanned ScanOutcome = "over_scanned"
	// ScanUnmatched means the barcode does not belong to this order.
	ScanUnmatched ScanOutcome = "unmatched"
	// ScanIgnored means the input was empty after normalization.
	ScanIgnored ScanOutcome = "ignored"
	// ScanLocked means the order is already finalized; scanning is disabled.
	ScanLocked ScanOutcome = "locked"
)

// ScanResult reports the outcome of a single scan event. LineID and NewCount
// are only meaningful for ScanAccepted.
type ScanResult struct {
	Outcome  ScanOutcome
	Barcode  string
	LineID   int
	NewCount int
}

// PickSession is the aggregate root for one order-picking session: the
// order's line items, the per-line scan counts, and the commit state. It is
// created when an order's detail view is opened and discarded when the view
// closes or the order is committed.
//
// The aggregate itself is not safe for concurrent use; callers serialize
// access per session (see application.SessionRegistry).
type PickSession struct {
	SessionID      string
	OrderNumber    string
	Platform       string
	TrackingNumber string
	Status         OrderStatus
	Items          []LineItem

	counts         map[int]int // lineId -> scanned count, never exceeds required
	requiredByLine map[int]int
	index          BarcodeIndex

	committed      bool
	commitInFlight bool

	OpenedAt     time.Time
	DomainEvents []DomainEvent
}

// NewPickSession creates a session for the given order. Orders whose
// persisted status is already done open fully pre-filled and read-only.
//
// A pending order containing a line item with an empty barcode is rejected:
// such an item can never be matched by a real scan, so the session could
// never complete. This is treated as bad order data, not a pickable order.
func NewPickSession(sessionID string, order *Order) (*PickSession, error) {
	if len(order.Items) == 0 {
		return nil, ErrOrderHasNoItems
	}

	counts := make(map[int]int, len(order.Items))
	required := make(map[int]int, len(order.Items))
	for _, item := range order.Items {
		if item.RequiredQty <= 0 {
			return nil, ErrInvalidQuantity
		}
		if !order.IsDone() && NormalizeBarcode(item.Barcode) == "" {
			return nil, ErrItemMissingBarcode
		}
		required[item.LineID] = item.RequiredQty
		if order.IsDone() {
			counts[item.LineID] = item.RequiredQty
		} else {
			counts[item.LineID] = 0
		}
	}

	now := time.Now()
	s := &PickSession{
		SessionID:      sessionID,
		OrderNumber:    order.OrderNumber,
		Platform:       order.Platform,
		TrackingNumber: order.TrackingNumber,
		Status:         order.Status,
		Items:          order.Items,
		counts:         counts,
		requiredByLine: required,
		index:          BuildBarcodeIndex(order.Items),
		OpenedAt:       now,
		DomainEvents:   make([]DomainEvent, 0),
	}

	s.AddDomainEvent(&PickSessionOpenedEvent{
		SessionID:   sessionID,
		OrderNumber: order.OrderNumber,
		Platform:    order.Platform,
		ItemCount:   len(order.Items),
		Prefilled:   order.IsDone(),
		OpenedAt:    now,
	})

	return s, nil
}

// Scan reconciles one raw scanner input against the session state. The
// read-decide-write step for an accepted scan is a single uninterrupted
// operation; no count ever exceeds its line's required quantity.
func (s *PickSession) Scan(raw string) ScanResult {
	code := NormalizeBarcode(raw)
	if code == "" {
		return ScanResult{Outcome: ScanIgnored}
	}

	// Finalized orders are locked before any lookup happens.
	if s.Status == OrderStatusDone || s.committed {
		return ScanResult{Outcome: ScanLocked, Barcode: code}
	}

	candidates := s.index.Candidates(code)
	if len(candidates) == 0 {
		return ScanResult{Outcome: ScanUnmatched, Barcode: code}
	}

	// First-come-first-served in item-list order across lines sharing the
	// barcode; not round-robin.
	for _, lineID := range candidates {
		if s.counts[lineID] < s.requiredByLine[lineID] {
			s.counts[lineID]++
			newCount := s.counts[lineID]

			s.AddDomainEvent(&ItemScannedEvent{
				SessionID:   s.SessionID,
				OrderNumber: s.OrderNumber,
				LineID:      lineID,
				Barcode:     code,
				NewCount:    newCount,
				RequiredQty: s.requiredByLine[lineID],
				ScannedAt:   time.Now(),
			})

			return ScanResult{
				Outcome:  ScanAccepted,
				Barcode:  code,
				LineID:   lineID,
				NewCount: newCount,
			}
		}
	}

	return ScanResult{Outcome: ScanOverScanned, Barcode: code}
}

// IsComplete reports whether every line item has been scanned its required
// number of times.
func (s *PickSession) IsComplete() bool {
	for lineID, required := range s.requiredByLine {
		if s.counts[lineID] < required {
			return false
		}
	}
	return true
}

// ScannedCount returns the current scan count for a line.
func (s *PickSession) ScannedCount(lineID int) int {
	return s.counts[lineID]
}

// Progress returns the fraction of required scans already performed, 0..1.
func (s *PickSession) Progress() float64 {
	total, scanned := 0, 0
	for lineID, required := range s.requiredByLine {
		total += required
		scanned += s.counts[lineID]
	}
	if total == 0 {
		return 0
	}
	return float64(scanned) / float64(total)
}

// BeginCommit sets the single-flight guard for the commit transition. It
// refuses when a commit is already in flight, when the session is already
// committed, or when picking is not complete. The guard must be set before
// the external persistence call is issued.
func (s *PickSession) BeginCommit() error {
	if s.commitInFlight {
		return ErrCommitInFlight
	}
	if s.committed || s.Status == OrderStatusDone {
		return ErrAlreadyCommitted
	}
	if !s.IsComplete() {
		return ErrPickingIncomplete
	}
	s.commitInFlight = true
	return nil
}

// CompleteCommit records a successful persistence call. This is a terminal,
// one-way transition; the session locks against further scanning.
func (s *PickSession) CompleteCommit() {
	s.committed = true
	s.commitInFlight = false
	s.Status = OrderStatusDone

	s.AddDomainEvent(&OrderPickedEvent{
		SessionID:   s.SessionID,
		OrderNumber: s.OrderNumber,
		Platform:    s.Platform,
		LineCount:   len(s.Items),
		CommittedAt: time.Now(),
	})
}

// AbortCommit clears the single-flight guard after a failed persistence
// call, leaving the session uncommitted so the caller may confirm again.
func (s *PickSession) AbortCommit() {
	s.commitInFlight = false
}

// Committed reports whether the order status change has been persisted.
func (s *PickSession) Committed() bool {
	return s.committed
}

// CommitInFlight reports whether a confirm call is currently outstanding.
func (s *PickSession) CommitInFlight() bool {
	return s.commitInFlight
}

// AddDomainEvent adds a domain event
func (s *PickSession) AddDomainEvent(event DomainEvent) {
	s.DomainEvents = append(s.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (s *PickSession) ClearDomainEvents() {
	s.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (s *PickSession) GetDomainEvents() []DomainEvent {
	return s.DomainEvents
}
