// internal/api/throttle.go
package api

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"fumo-economy/internal/api/handler"
	"fumo-economy/internal/config"
	"fumo-economy/internal/util"
)

// limiterIdleTTL is how long an unused caller limiter is kept.
const limiterIdleTTL = 10 * time.Minute

type callerLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// throttle hands out one token bucket per caller. Callers are identified by
// the {userID} route parameter when present and by remote address otherwise.
type throttle struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	callers map[string]*callerLimiter
	now     func() time.Time
}

func newThrottle(cfg config.ThrottleConfig) *throttle {
	return &throttle{
		limit:   rate.Limit(cfg.PurchaseRPS),
		burst:   cfg.PurchaseBurst,
		callers: make(map[string]*callerLimiter),
		now:     time.Now,
	}
}

func (t *throttle) allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	c, ok := t.callers[key]
	if !ok {
		t.sweep(now)
		c = &callerLimiter{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.callers[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// sweep drops idle limiters. Caller holds t.mu.
func (t *throttle) sweep(now time.Time) {
	for key, c := range t.callers {
		if now.Sub(c.lastSeen) > limiterIdleTTL {
			delete(t.callers, key)
		}
	}
}

func callerKey(r *http.Request) string {
	if userID := chi.URLParam(r, "userID"); userID != "" {
		return "user:" + userID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}

// middleware rejects callers over their budget with 429 RATE_LIMITED. A zero
// rate disables it.
func (t *throttle) middleware(next http.Handler) http.Handler {
	if t.limit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.allow(callerKey(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(handler.ErrorResponse{
				Error:   util.CodeRateLimited,
				Message: util.CodeRateLimited.Message(),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
