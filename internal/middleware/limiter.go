package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"mall-be/internal/utils"

	"golang.org/x/time/rate"
)

// Tier is a rate limit policy.
type Tier struct {
	Name  string
	Limit rate.Limit
	Burst int
}

var (
	// TierStrict guards the payment webhook.
	TierStrict = Tier{Name: "strict", Limit: rate.Limit(2), Burst: 5}
	// TierGeneral is the default for browser routes.
	TierGeneral = Tier{Name: "general", Limit: rate.Limit(10), Burst: 20}
)

const visitorTTL = 3 * time.Minute

// visitor holds the rate limiter and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{visitors: make(map[string]*visitor)}
}

// getVisitor retrieves or creates the limiter for key.
func (l *RateLimiter) getVisitor(key string, t Tier) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, exists := l.visitors[key]
	if !exists {
		limiter := rate.NewLimiter(t.Limit, t.Burst)
		l.visitors[key] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// Cleanup drops visitors idle for longer than visitorTTL until ctx ends.
func (l *RateLimiter) Cleanup(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evict(time.Now())
		}
	}
}

func (l *RateLimiter) evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(l.visitors, key)
		}
	}
}

// Limit rejects requests over the tier's budget with 429. Authenticated
// users are keyed by id, everyone else by client IP.
func (l *RateLimiter) Limit(t Tier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var identity string
			if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
				identity = fmt.Sprintf("user:%d", userID)
			} else {
				identity = "ip:" + ClientIP(r)
			}

			if !l.getVisitor(identity+":"+t.Name, t).Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
