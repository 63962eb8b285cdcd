package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is an in-memory per-client token bucket. Good enough for
// a single dashboard instance; a multi-replica deployment would move
// the counters to Redis.
type RateLimiter struct {
	capacity int
	perMin   int
	mu       sync.Mutex
	buckets  map[string]*bucket
	lastGC   time.Time
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewRateLimiter allows perMinute requests per client IP, with bursts
// up to capacity.
func NewRateLimiter(capacity, perMinute int) *RateLimiter {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &RateLimiter{
		capacity: capacity,
		perMin:   perMinute,
		buckets:  make(map[string]*bucket),
		lastGC:   time.Now(),
	}
}

// GinMiddleware returns a gin handler enforcing per-IP limits.
func (l *RateLimiter) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

func (l *RateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.gc(now)

	b, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &bucket{tokens: l.capacity - 1, last: now}
		return true
	}
	refill := int(now.Sub(b.last).Minutes() * float64(l.perMin))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// gc drops buckets idle long enough to have fully refilled anyway.
func (l *RateLimiter) gc(now time.Time) {
	if now.Sub(l.lastGC) < 10*time.Minute {
		return
	}
	for key, b := range l.buckets {
		if now.Sub(b.last) > 10*time.Minute {
			delete(l.buckets, key)
		}
	}
	l.lastGC = now
}
