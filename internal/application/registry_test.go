package application

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storeops/picking-service/internal/domain"
	pkgtesting "github.com/storeops/picking-service/pkg/testing"
)

func newRegistrySession(t *testing.T, sessionID, orderNumber string) *domain.PickSession {
	t.Helper()
	order := testOrder()
	order.OrderNumber = orderNumber
	session, err := domain.NewPickSession(sessionID, &order)
	require.NoError(t, err)
	return session
}

func TestSessionRegistryAddAndGet(t *testing.T) {
	registry := NewSessionRegistry()
	session := newRegistrySession(t, "sess-1", "ORD-1")

	require.NoError(t, registry.Add(session))
	assert.Equal(t, 1, registry.Len())

	handle, err := registry.Get("sess-1")
	require.NoError(t, err)
	assert.Same(t, session, handle.session)

	_, err = registry.Get("sess-2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionRegistryRefusesSecondSessionPerOrder(t *testing.T) {
	registry := NewSessionRegistry()

	require.NoError(t, registry.Add(newRegistrySession(t, "sess-1", "ORD-1")))

	err := registry.Add(newRegistrySession(t, "sess-2", "ORD-1"))
	assert.ErrorIs(t, err, ErrDuplicateOrderSession)

	// A different order is unaffected.
	require.NoError(t, registry.Add(newRegistrySession(t, "sess-3", "ORD-2")))
}

func TestSessionRegistryRemoveFreesOrder(t *testing.T) {
	registry := NewSessionRegistry()

	require.NoError(t, registry.Add(newRegistrySession(t, "sess-1", "ORD-1")))
	require.NoError(t, registry.Remove("sess-1"))
	assert.Equal(t, 0, registry.Len())

	assert.ErrorIs(t, registry.Remove("sess-1"), ErrSessionNotFound)

	require.NoError(t, registry.Add(newRegistrySession(t, "sess-2", "ORD-1")))
}

func TestSessionRegistryConcurrentAddRemove(t *testing.T) {
	registry := NewSessionRegistry()
	const workers = 16

	sessions := make([]*domain.PickSession, workers)
	for i := range sessions {
		sessions[i] = newRegistrySession(t, fmt.Sprintf("sess-%d", i), fmt.Sprintf("ORD-%d", i))
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for _, session := range sessions {
		go func(session *domain.PickSession) {
			defer wg.Done()
			if err := registry.Add(session); err != nil && !errors.Is(err, ErrDuplicateOrderSession) {
				t.Errorf("unexpected add error: %v", err)
			}
			_ = registry.Remove(session.SessionID)
		}(session)
	}
	wg.Wait()

	pkgtesting.AssertEventually(t, func() bool {
		return registry.Len() == 0
	}, time.Second, "registry should drain after all removes")
}
