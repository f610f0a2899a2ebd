package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	DefaultBurst      = 10
	DefaultIdleExpiry = 10 * time.Minute
)

type ipBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPLimiter throttles requests per client IP with a token bucket each.
type IPLimiter struct {
	mu        sync.Mutex
	ipBuckets map[string]*ipBucket

	limit      rate.Limit
	burst      int
	idleExpiry time.Duration
	now        func() time.Time
}

// NewIPLimiter allows perMinute requests per IP. A non-positive value disables limiting.
func NewIPLimiter(perMinute int) *IPLimiter {
	l := &IPLimiter{
		ipBuckets:  make(map[string]*ipBucket),
		limit:      rate.Inf,
		burst:      DefaultBurst,
		idleExpiry: DefaultIdleExpiry,
		now:        time.Now,
	}
	if perMinute > 0 {
		l.limit = rate.Limit(float64(perMinute) / 60)
		if perMinute < DefaultBurst {
			l.burst = perMinute
		}
	}
	return l
}

func (l *IPLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later")
			}
			return next(c)
		}
	}
}

// Allow reports whether ip may make another request now.
func (l *IPLimiter) Allow(ip string) bool {
	if l.limit == rate.Inf {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	bucket, exists := l.ipBuckets[ip]
	if !exists {
		bucket = &ipBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.ipBuckets[ip] = bucket
	}
	bucket.lastSeen = now
	return bucket.limiter.AllowN(now, 1)
}

// Cleanup forgets IPs that have been idle longer than the expiry.
func (l *IPLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idleExpiry)
	for ip, bucket := range l.ipBuckets {
		if bucket.lastSeen.Before(cutoff) {
			delete(l.ipBuckets, ip)
		}
	}
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (l *IPLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Cleanup()
			}
		}
	}()
}

func (l *IPLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ipBuckets)
}
