// internal/lock/manager.go
package lock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"fumo-economy/internal/util"
)

// Manager provides in-process mutual exclusion keyed by arbitrary strings.
// Waiters on a key are served in arrival order: a releasing holder hands
// ownership directly to the oldest waiter, so no later arrival can barge in.
type Manager struct {
	mu   sync.Mutex
	keys map[string]*queue
	wait time.Duration
}

// queue exists in Manager.keys exactly while its key is held.
type queue struct {
	waiters []chan struct{}
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{keys: make(map[string]*queue)}
}

// SetWait bounds how long Acquire queues for a key. Zero waits until the
// caller's context ends.
func (m *Manager) SetWait(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wait = d
}

// Key joins parts into a composite lock key such as "userID:operation".
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Acquire blocks until the caller owns key. If ctx ends first the request is
// withdrawn and util.ErrLockTimeout is returned.
func (m *Manager) Acquire(ctx context.Context, key string) error {
	m.mu.Lock()
	q, held := m.keys[key]
	if !held {
		m.keys[key] = &queue{}
		m.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	q.waiters = append(q.waiters, ch)
	wait := m.wait
	m.mu.Unlock()

	if wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
	}

	m.mu.Lock()
	for i, w := range q.waiters {
		if w == ch {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			m.mu.Unlock()
			return fmt.Errorf("%w: key %q: %v", util.ErrLockTimeout, key, ctx.Err())
		}
	}
	m.mu.Unlock()

	// Ownership was handed over while ctx was ending; pass it on.
	m.Release(key)
	return fmt.Errorf("%w: key %q: %v", util.ErrLockTimeout, key, ctx.Err())
}

// Release gives up ownership of key. Releasing a key that is not held panics.
func (m *Manager) Release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, held := m.keys[key]
	if !held {
		panic(fmt.Sprintf("lock: release of unheld key %q", key))
	}
	if len(q.waiters) == 0 {
		delete(m.keys, key)
		return
	}
	next := q.waiters[0]
	q.waiters = q.waiters[1:]
	close(next)
}

// WithLock runs fn while holding key. The key is released when fn returns or
// panics; fn's error is returned unchanged.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := m.Acquire(ctx, key); err != nil {
		return err
	}
	defer m.Release(key)
	return fn(ctx)
}

// Do is WithLock for functions that produce a value.
func Do[T any](ctx context.Context, m *Manager, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	if err := m.Acquire(ctx, key); err != nil {
		var zero T
		return zero, err
	}
	defer m.Release(key)
	return fn(ctx)
}

// Held returns the number of keys currently owned.
func (m *Manager) Held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}
