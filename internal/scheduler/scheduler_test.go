// internal/scheduler/scheduler_test.go
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_Every(t *testing.T) {
	s := New(nil)
	assert.Error(t, s.Every("bad", 0, nil))
	assert.NoError(t, s.Every("ok", time.Second, func(context.Context, time.Time) error { return nil }))
}

func TestScheduler_RunsAtAlignedBoundaries(t *testing.T) {
	const interval = 20 * time.Millisecond
	s := New(nil)

	var mu sync.Mutex
	var fired []time.Time
	require.NoError(t, s.Every("tick", interval, func(_ context.Context, at time.Time) error {
		mu.Lock()
		defer mu.Unlock()
		fired = append(fired, at)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fired) >= 3
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	for _, at := range fired {
		assert.Zero(t, at.Sub(at.Truncate(interval)), "boundary %v is not aligned", at)
	}
	for i := 1; i < len(fired); i++ {
		assert.True(t, fired[i].After(fired[i-1]))
	}
}

func TestScheduler_ErrorsDoNotStopTheLoop(t *testing.T) {
	s := New(nil)
	var calls atomic.Int32
	require.NoError(t, s.Every("failing", 10*time.Millisecond, func(context.Context, time.Time) error {
		if calls.Add(1)%2 == 0 {
			panic("boom")
		}
		return errors.New("job failed")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	assert.Eventually(t, func() bool { return calls.Load() >= 4 }, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_RunTwice(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Every("tick", time.Hour, func(context.Context, time.Time) error { return nil }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.running
	}, time.Second, time.Millisecond)
	assert.Error(t, s.Run(context.Background()))
	assert.Error(t, s.Every("late", time.Hour, nil))

	cancel()
	assert.NoError(t, <-done)
}
