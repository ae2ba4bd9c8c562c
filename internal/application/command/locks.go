package command

import (
	"sync"
)

// UserLocks serializes writes per user within this process. The per-user
// mutex keeps in-process writers from burning optimistic-lock retries
// against each other; cross-process races are still caught by the version
// check in the storage layer.
type UserLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewUserLocks creates an empty lock table.
func NewUserLocks() *UserLocks {
	return &UserLocks{locks: make(map[string]*userLock)}
}

// Lock acquires the mutex for one user and returns the release function.
// Entries are reference counted and dropped when unused, so the table stays
// proportional to concurrent writers rather than total users.
func (l *UserLocks) Lock(userID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[userID]
	if !ok {
		entry = &userLock{}
		l.locks[userID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}
