package rewards

import (
	"sync"

	"github.com/0gfoundation/0g-reward-payout/internal/idempotency"
)

// keyLocks hands out one mutex per idempotency key so that requests for the
// same key run lookup → submit → save strictly one after another, while
// unrelated keys proceed in parallel. Entries are dropped once unused.
type keyLocks struct {
	mu    sync.Mutex
	locks map[idempotency.Key]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[idempotency.Key]*keyLock)}
}

// Lock blocks until k is free and returns the matching unlock func.
func (l *keyLocks) Lock(k idempotency.Key) func() {
	l.mu.Lock()
	kl, ok := l.locks[k]
	if !ok {
		kl = &keyLock{}
		l.locks[k] = kl
	}
	kl.refs++
	l.mu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()
		l.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(l.locks, k)
		}
		l.mu.Unlock()
	}
}

func (l *keyLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
