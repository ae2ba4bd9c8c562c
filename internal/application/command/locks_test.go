package command

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserLocks_Serializes(t *testing.T) {
	locks := NewUserLocks()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("user1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestUserLocks_DropsUnusedEntries(t *testing.T) {
	locks := NewUserLocks()

	unlock := locks.Lock("user1")
	other := locks.Lock("user2")

	locks.mu.Lock()
	assert.Len(t, locks.locks, 2)
	locks.mu.Unlock()

	unlock()
	other()

	// The table stays proportional to concurrent writers, not total users.
	locks.mu.Lock()
	assert.Empty(t, locks.locks)
	locks.mu.Unlock()
}

func TestUserLocks_IndependentUsers(t *testing.T) {
	locks := NewUserLocks()

	unlock := locks.Lock("user1")
	defer unlock()

	done := make(chan struct{})
	go func() {
		other := locks.Lock("user2")
		other()
		close(done)
	}()

	// A held lock for one user must not block another user.
	<-done
}
