package application

import (
	"errors"
	"sync"

	"github.com/storeops/picking-service/internal/domain"
)

// Registry errors
var (
	ErrSessionNotFound       = errors.New("session not found")
	ErrDuplicateOrderSession = errors.New("an active session already exists for this order")
)

// sessionHandle pairs a session with the mutex that serializes access to it.
// All scan and commit transitions on a session happen under this lock.
type sessionHandle struct {
	mu      sync.Mutex
	session *domain.PickSession
}

// SessionRegistry holds the live picking sessions, at most one per order.
// Sessions exist only in memory; a restart discards them all.
type SessionRegistry struct {
	mu      sync.RWMutex
	byID    map[string]*sessionHandle
	byOrder map[string]string // orderNumber -> sessionID
}

// NewSessionRegistry creates an empty SessionRegistry
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		byID:    make(map[string]*sessionHandle),
		byOrder: make(map[string]string),
	}
}

// Add registers a new session. It refuses when another live session already
// covers the same order.
func (r *SessionRegistry) Add(session *domain.PickSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byOrder[session.OrderNumber]; exists {
		return ErrDuplicateOrderSession
	}

	r.byID[session.SessionID] = &sessionHandle{session: session}
	r.byOrder[session.OrderNumber] = session.SessionID
	return nil
}

// Get returns the handle for a session ID.
func (r *SessionRegistry) Get(sessionID string) (*sessionHandle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handle, ok := r.byID[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return handle, nil
}

// Remove discards a session. Removal never blocks on the session lock; an
// operation still holding the handle finishes against the orphaned session.
func (r *SessionRegistry) Remove(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	handle, ok := r.byID[sessionID]
	if !ok {
		return ErrSessionNotFound
	}

	delete(r.byID, sessionID)
	delete(r.byOrder, handle.session.OrderNumber)
	return nil
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
