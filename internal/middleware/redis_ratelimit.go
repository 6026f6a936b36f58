package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// slidingWindow admits a request when fewer than ARGV[2] were admitted in the
// last ARGV[1] milliseconds. Returns {allowed, remaining}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local window = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local current = redis.call('ZCARD', key)
if current < limit then
  redis.call('ZADD', key, now, member)
  redis.call('PEXPIRE', key, window)
  return {1, limit - current - 1}
end
return {0, 0}
`)

// RedisRateLimit shares limits across API replicas: at most limit requests per
// window for each user, or each IP when unauthenticated. Redis failures fall
// back to the in-process limiter.
func RedisRateLimit(client *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	rps := int(float64(limit) / window.Seconds())
	if rps < 1 {
		rps = 1
	}
	fallback := RateLimit(rps, limit)
	return func(c *gin.Context) {
		now := time.Now()
		key := "rate_limit:" + rateKey(c)
		member := strconv.FormatInt(now.UnixNano(), 10)

		res, err := slidingWindow.Run(c.Request.Context(), client, []string{key},
			window.Milliseconds(), limit, now.UnixMilli(), member).Int64Slice()
		if err != nil || len(res) < 2 {
			fallback(c)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
		if res[0] == 0 {
			retry := int(window.Seconds())
			c.Header("Retry-After", fmt.Sprintf("%d", retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": retry,
			})
			return
		}
		c.Next()
	}
}
