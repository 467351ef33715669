// pkg/db/retry.go
package db

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/lib/pq"

	"fumo-economy/internal/util"
)

// RetryPolicy bounds the busy-retry loop around storage calls.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy mirrors the configuration defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 8,
		BaseDelay:   25 * time.Millisecond,
		MaxDelay:    1200 * time.Millisecond,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxAttempts < 1 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = d.BaseDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	return p
}

// backoff returns the wait before retry number attempt (0-based): exponential
// growth capped at MaxDelay, with equal jitter.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt && d < p.MaxDelay; i++ {
		d *= 2
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	half := d / 2
	if half <= 0 {
		return d
	}
	return half + time.Duration(rand.Int64N(int64(half)+1))
}

// Postgres error codes treated as a transient busy condition.
var busyCodes = map[pq.ErrorCode]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
	"53300": {}, // too_many_connections
}

// IsBusy reports whether err is a transient storage contention error.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, util.ErrStorageBusy) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		_, ok := busyCodes[pqErr.Code]
		return ok
	}
	return false
}

// Retry runs fn until it succeeds, fails with a non-busy error, or the policy
// runs out of attempts, in which case util.ErrStorageBusyExhausted is returned
// wrapping the last busy error.
func Retry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	p := policy.normalized()
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil || !IsBusy(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts-1 {
			break
		}
		if err := sleepWithContext(ctx, p.backoff(attempt)); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", util.ErrStorageBusyExhausted, p.MaxAttempts, lastErr)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
