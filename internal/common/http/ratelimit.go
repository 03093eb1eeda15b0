package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/AlibekovAA/tenantdesk-auth/internal/common/constants"
	"github.com/AlibekovAA/tenantdesk-auth/internal/observability/metrics"
)

type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// StartCleanup drops idle limiters until ctx is done. A limiter that can
// immediately grant a full burst has not been used recently.
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.cleanupLimiters()
			}
		}
	}()
}

func (rl *RateLimiter) cleanupLimiters() {
	now := time.Now()
	rl.mu.Lock()
	for key, limiter := range rl.limiters {
		if limiter.TokensAt(now) >= float64(rl.burst) {
			delete(rl.limiters, key)
		}
	}
	rl.mu.Unlock()
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[key]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		limiter, exists = rl.limiters[key]
		if !exists {
			limiter = rate.NewLimiter(rl.rate, rl.burst)
			rl.limiters[key] = limiter
		}
		rl.mu.Unlock()
	}

	return limiter
}

func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

func (rl *RateLimiter) size() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.limiters)
}

type StrictRateLimiter struct {
	tokenLimiter   *RateLimiter
	refreshLimiter *RateLimiter
	logoutLimiter  *RateLimiter
	generalLimiter *RateLimiter
	proxies        *TrustedProxies
}

// NewStrictRateLimiter keys every limiter by the client address resolved
// through proxies.
func NewStrictRateLimiter(proxies *TrustedProxies) *StrictRateLimiter {
	return &StrictRateLimiter{
		proxies:        proxies,
		tokenLimiter:   NewRateLimiter(constants.RateLimitTokenRequestsPerSecond, constants.RateLimitTokenBurst),
		refreshLimiter: NewRateLimiter(constants.RateLimitRefreshRequestsPerSecond, constants.RateLimitRefreshBurst),
		logoutLimiter:  NewRateLimiter(constants.RateLimitLogoutRequestsPerSecond, constants.RateLimitLogoutBurst),
		generalLimiter: NewRateLimiter(constants.RateLimitGeneralRequestsPerSecond, constants.RateLimitGeneralBurst),
	}
}

func (srl *StrictRateLimiter) StartCleanup(ctx context.Context) {
	for _, l := range []*RateLimiter{srl.tokenLimiter, srl.refreshLimiter, srl.logoutLimiter, srl.generalLimiter} {
		l.StartCleanup(ctx, constants.RateLimitCleanupInterval)
	}
}

func (srl *StrictRateLimiter) MiddlewareForPath(path string) func(http.Handler) http.Handler {
	var limiter *RateLimiter
	var limiterType string

	switch path {
	case "/auth/token":
		limiter = srl.tokenLimiter
		limiterType = "token"
	case "/auth/refresh":
		limiter = srl.refreshLimiter
		limiterType = "refresh"
	case "/auth/logout":
		limiter = srl.logoutLimiter
		limiterType = "logout"
	default:
		limiter = srl.generalLimiter
		limiterType = "general"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(srl.proxies.ClientIP(r)) {
				metrics.RateLimitBlocked.WithLabelValues(path, limiterType).Inc()
				WriteErrorEnvelope(w, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded", nil, TraceIDFromContext(r.Context()))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
