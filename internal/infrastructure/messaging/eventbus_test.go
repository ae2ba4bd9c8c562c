package messaging

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
)

func TestInMemoryEventBus_DeliversToSubscribers(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{WorkerPoolSize: 4})

	var mu sync.Mutex
	var received []shared.EventType
	done := make(chan struct{})

	err := bus.Subscribe(shared.EventXPAwarded, func(e shared.Event) error {
		mu.Lock()
		received = append(received, e.EventType())
		mu.Unlock()
		close(done)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(shared.NewXPAwardedEvent("user1", 100, 100, "quiz_attempt")))
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []shared.EventType{shared.EventXPAwarded}, received)
}

func TestInMemoryEventBus_TypeFiltering(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{})

	var xpCount, allCount atomic.Int64
	require.NoError(t, bus.Subscribe(shared.EventXPAwarded, func(shared.Event) error {
		xpCount.Add(1)
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		allCount.Add(1)
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewXPAwardedEvent("user1", 10, 10, "quiz_attempt")))
	require.NoError(t, bus.Publish(shared.NewLevelUpEvent("user1", 1, 2)))
	require.NoError(t, bus.Close()) // drains in-flight handlers

	assert.Equal(t, int64(1), xpCount.Load())
	assert.Equal(t, int64(2), allCount.Load())
}

func TestInMemoryEventBus_ClosedBusRejectsOperations(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{})
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(shared.NewLevelUpEvent("user1", 1, 2)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventLevelUp, func(shared.Event) error { return nil }), ErrEventBusClosed)

	// Closing twice is harmless.
	assert.NoError(t, bus.Close())
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{WorkerPoolSize: 2})

	var delivered atomic.Int64
	require.NoError(t, bus.Subscribe(shared.EventLevelUp, func(shared.Event) error {
		return assert.AnError
	}))
	require.NoError(t, bus.Subscribe(shared.EventLevelUp, func(shared.Event) error {
		delivered.Add(1)
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewLevelUpEvent("user1", 1, 2)))
	require.NoError(t, bus.Close())

	assert.Equal(t, int64(1), delivered.Load())
}
