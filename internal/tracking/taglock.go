package tracking

import "sync"

// tagLocks serializes scan processing per tag UID. Locks are reference
// counted and removed from the map when the last holder releases, so the map
// does not grow with the tag population.
type tagLocks struct {
	mu    sync.Mutex
	locks map[string]*tagLock
}

type tagLock struct {
	mu   sync.Mutex
	refs int
}

func newTagLocks() *tagLocks {
	return &tagLocks{locks: make(map[string]*tagLock)}
}

// Acquire blocks until the tag's lock is held and returns the release func.
func (t *tagLocks) Acquire(tagUID string) func() {
	t.mu.Lock()
	lock, ok := t.locks[tagUID]
	if !ok {
		lock = &tagLock{}
		t.locks[tagUID] = lock
	}
	lock.refs++
	t.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		t.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(t.locks, tagUID)
		}
		t.mu.Unlock()
	}
}
