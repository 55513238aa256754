package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RateLimiter is a fixed-window request limiter backed by Redis. Each
// client IP gets Limit requests per Window; the counter key expires with
// the window.
type RateLimiter struct {
	client redis.Cmdable
	logger *logrus.Logger
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

// NewRateLimiter creates a limiter allowing requestsPerMinute per client.
func NewRateLimiter(client redis.Cmdable, requestsPerMinute int, logger *logrus.Logger) *RateLimiter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RateLimiter{
		client: client,
		logger: logger,
		limit:  requestsPerMinute,
		window: time.Minute,
		prefix: "quantsim:ratelimit",
		now:    time.Now,
	}
}

func (rl *RateLimiter) key(clientIP string, windowStart int64) string {
	return fmt.Sprintf("%s:%s:%d", rl.prefix, clientIP, windowStart)
}

// Middleware rejects requests over the limit with 429. Redis failures let
// the request through and are logged.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.client == nil || rl.limit <= 0 || isProbePath(c.Request.URL.Path) {
			c.Next()
			return
		}

		now := rl.now()
		windowStart := now.Truncate(rl.window).Unix()
		key := rl.key(c.ClientIP(), windowStart)
		ctx := c.Request.Context()

		count, err := rl.client.Incr(ctx, key).Result()
		if err != nil {
			rl.logger.WithError(err).WithField("key", key).Warn("Rate limiter unavailable, allowing request")
			c.Next()
			return
		}
		if count == 1 {
			if err := rl.client.Expire(ctx, key, rl.window).Err(); err != nil {
				rl.logger.WithError(err).WithField("key", key).Warn("Failed to set rate limit window expiry")
			}
		}

		remaining := rl.limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		reset := time.Unix(windowStart, 0).Add(rl.window)
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if int(count) > rl.limit {
			c.Header("Retry-After", strconv.Itoa(int(reset.Sub(now).Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status": "error",
				"error":  "Rate limit exceeded, try again later",
			})
			return
		}

		c.Next()
	}
}
