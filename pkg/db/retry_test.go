// pkg/db/retry_test.go
package db

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fumo-economy/internal/util"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestIsBusy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"Nil", nil, false},
		{"SerializationFailure", &pq.Error{Code: "40001"}, true},
		{"Deadlock", fmt.Errorf("wrapped: %w", &pq.Error{Code: "40P01"}), true},
		{"LockNotAvailable", &pq.Error{Code: "55P03"}, true},
		{"UniqueViolation", &pq.Error{Code: "23505"}, false},
		{"Sentinel", util.ErrStorageBusy, true},
		{"Other", errors.New("boom"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsBusy(tc.err))
		})
	}
}

func TestRetry(t *testing.T) {
	t.Run("SucceedsAfterBusy", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), fastPolicy(5), func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return &pq.Error{Code: "40001"}
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("NonBusyErrorIsNotRetried", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := Retry(context.Background(), fastPolicy(5), func(ctx context.Context) error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("ExhaustedAttempts", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), fastPolicy(4), func(ctx context.Context) error {
			calls++
			return util.ErrStorageBusy
		})
		assert.ErrorIs(t, err, util.ErrStorageBusyExhausted)
		assert.Equal(t, 4, calls)
	})

	t.Run("ContextCancelledDuringBackoff", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		policy := RetryPolicy{MaxAttempts: 10, BaseDelay: time.Hour, MaxDelay: time.Hour}
		err := Retry(ctx, policy, func(ctx context.Context) error {
			cancel()
			return util.ErrStorageBusy
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBackoffIsBounded(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 10, BaseDelay: 10 * time.Millisecond, MaxDelay: 80 * time.Millisecond}
	for attempt := 0; attempt < 10; attempt++ {
		d := p.backoff(attempt)
		assert.LessOrEqual(t, d, 80*time.Millisecond)
		assert.GreaterOrEqual(t, d, 5*time.Millisecond)
	}
}

func TestSchemaStatements(t *testing.T) {
	stmts := SchemaStatements()
	require.NotEmpty(t, stmts)
	for _, st := range stmts {
		assert.NotEmpty(t, st.SQL)
		assert.Contains(t, st.SQL, "IF NOT EXISTS")
	}
}
