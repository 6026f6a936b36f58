package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// rateKey limits authenticated callers per user and everyone else per IP.
// The user id is only set when Identify or Middleware ran first.
func rateKey(c *gin.Context) string {
	if uid := c.GetString(CtxUserID); uid != "" {
		return "user:" + uid
	}
	if ip := c.ClientIP(); ip != "" {
		return "ip:" + ip
	}
	return "ip:unknown"
}

// RateLimit is an in-process token bucket: rps tokens per second, up to burst.
func RateLimit(rps int, burst int) gin.HandlerFunc {
	return rateLimitWithClock(rps, burst, time.Now)
}

func rateLimitWithClock(rps, burst int, now func() time.Time) gin.HandlerFunc {
	b := newTokenBuckets(rps, burst)
	return func(c *gin.Context) {
		if !b.allow(rateKey(c), now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

type bucket struct {
	tokens float64
	last   time.Time
}

// tokenBuckets holds one bucket per key. A bucket idle long enough to refill
// is indistinguishable from a new one, so such buckets are dropped on a
// periodic pass instead of living forever.
type tokenBuckets struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	refill    float64
	burst     float64
	idle      time.Duration
	lastSweep time.Time
}

func newTokenBuckets(rps, burst int) *tokenBuckets {
	if rps < 1 {
		rps = 1
	}
	idle := time.Duration(float64(burst) / float64(rps) * float64(time.Second))
	if idle < time.Minute {
		idle = time.Minute
	}
	return &tokenBuckets{
		buckets: map[string]*bucket{},
		refill:  float64(rps),
		burst:   float64(burst),
		idle:    idle,
	}
}

func (tb *tokenBuckets) allow(key string, t time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if tb.lastSweep.IsZero() {
		tb.lastSweep = t
	} else if t.Sub(tb.lastSweep) >= tb.idle {
		tb.sweepLocked(t)
	}

	b := tb.buckets[key]
	if b == nil {
		b = &bucket{tokens: tb.burst, last: t}
		tb.buckets[key] = b
	}
	b.tokens = min(tb.burst, b.tokens+t.Sub(b.last).Seconds()*tb.refill)
	b.last = t
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (tb *tokenBuckets) sweepLocked(t time.Time) {
	for k, b := range tb.buckets {
		if t.Sub(b.last) >= tb.idle {
			delete(tb.buckets, k)
		}
	}
	tb.lastSweep = t
}

func (tb *tokenBuckets) len() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return len(tb.buckets)
}
