package room

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockRetriesAfterDrop(t *testing.T) {
	l := newRoomLocks()

	held := l.lock("r1")

	acquired := make(chan *sync.Mutex)
	go func() { acquired <- l.lock("r1") }()

	// let the waiter block on the held mutex
	time.Sleep(20 * time.Millisecond)

	// the room is deleted and immediately recreated with a fresh lock
	l.drop("r1")
	recreated := l.lock("r1")

	held.Unlock()

	select {
	case <-acquired:
		t.Fatal("waiter proceeded on a stale lock while the recreated room's lock was held")
	case <-time.After(100 * time.Millisecond):
	}

	recreated.Unlock()

	select {
	case m := <-acquired:
		assert.Same(t, recreated, m, "waiter must end up on the room's current lock")
		m.Unlock()
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the recreated lock")
	}
}

func TestLockSerializesSameRoom(t *testing.T) {
	l := newRoomLocks()

	held := l.lock("r1")

	acquired := make(chan struct{})
	go func() {
		m := l.lock("r1")
		m.Unlock()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second caller acquired the lock while it was held")
	case <-time.After(50 * time.Millisecond):
	}

	held.Unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second caller never acquired the lock")
	}
}

func TestLockDifferentRoomsAreIndependent(t *testing.T) {
	l := newRoomLocks()

	m1 := l.lock("r1")
	defer m1.Unlock()

	done := make(chan struct{})
	go func() {
		m2 := l.lock("r2")
		m2.Unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("locking a different room blocked")
	}
}
