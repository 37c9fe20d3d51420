package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/catena/pkg/ports"
)

// lockEntry holds the slot of one key and the number of holders and waiters.
// Entries are garbage collected once nobody references them.
type lockEntry struct {
	slot  chan struct{}
	refs  int
	token uint64
	timer *time.Timer
}

// Locker implements ports.DistributedLocker within one process.
// It keeps single-replica deployments from running the same chain twice at once.
// Locks expire after their TTL like their Redis counterparts.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
	next  uint64
}

var _ ports.DistributedLocker = (*Locker)(nil)

// NewLocker creates an in-process locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*lockEntry)}
}

// acquire gets or creates the entry of key and increments its reference count.
func (l *Locker) acquire(key string) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.locks[key]
	if !exists {
		entry = &lockEntry{slot: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (l *Locker) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.locks[key]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(l.locks, key)
	}
}

// Lock blocks until key is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	entry := l.acquire(key)

	select {
	case entry.slot <- struct{}{}:
	case <-ctx.Done():
		l.release(key)
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, ctx.Err())
	}

	l.mu.Lock()
	l.next++
	token := l.next
	entry.token = token
	if ttl > 0 {
		entry.timer = time.AfterFunc(ttl, func() { l.unlock(key, entry, token) })
	}
	l.mu.Unlock()

	return func(context.Context) error {
		if !l.unlock(key, entry, token) {
			return fmt.Errorf("lock %s expired before it was released", key)
		}
		return nil
	}, nil
}

// unlock frees the slot if token still holds it. It reports whether it did.
func (l *Locker) unlock(key string, entry *lockEntry, token uint64) bool {
	l.mu.Lock()
	if entry.token != token {
		l.mu.Unlock()
		return false
	}
	entry.token = 0
	if entry.timer != nil {
		entry.timer.Stop()
		entry.timer = nil
	}
	l.mu.Unlock()

	<-entry.slot
	l.release(key)
	return true
}

// Held returns the number of keys currently locked or awaited.
func (l *Locker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
