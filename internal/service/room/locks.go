package room

import "sync"

// roomLocks serializes every mutation of a single room. Each connection's
// messages already arrive in order; this keeps handlers for different
// connections from interleaving on the same room state.
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newRoomLocks() roomLocks {
	return roomLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *roomLocks) lock(roomId string) *sync.Mutex {
	for {
		l.mu.Lock()
		m, ok := l.locks[roomId]
		if !ok {
			m = &sync.Mutex{}
			l.locks[roomId] = m
		}
		l.mu.Unlock()

		m.Lock()

		// the entry may have been dropped, and a recreated room given a
		// fresh mutex, while this goroutine was blocked; holding the
		// stale one guards nothing
		l.mu.Lock()
		current := l.locks[roomId]
		l.mu.Unlock()

		if current == m {
			return m
		}
		m.Unlock()
	}
}

// drop forgets the lock entry of a deleted room. Callers must still hold
// the room's mutex; waiters blocked on it re-check the entry after
// acquiring and retry on the replacement.
func (l *roomLocks) drop(roomId string) {
	l.mu.Lock()
	delete(l.locks, roomId)
	l.mu.Unlock()
}
