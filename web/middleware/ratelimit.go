package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cardtracker/cardtracker/logger"
	"github.com/cardtracker/cardtracker/web/cache"
	"github.com/cardtracker/cardtracker/web/entity"

	"github.com/gin-gonic/gin"
)

type RateLimitConfig struct {
	RequestsPerMinute int
	KeyFunc           func(c *gin.Context) string
}

func DefaultRateLimitConfig(requestsPerMinute int) RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: requestsPerMinute,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

// RateLimit counts requests per client and path in one-minute windows.
// When Redis is unavailable requests are let through.
func RateLimit(config RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.RequestsPerMinute <= 0 {
			c.Next()
			return
		}

		key := config.KeyFunc(c)
		rateLimitKey := cache.KeyRateLimitBase + key + ":" + c.Request.URL.Path

		count, ttl, err := cache.IncrWindow(rateLimitKey, time.Minute)
		if err != nil {
			logger.Warning("Rate limit increment failed:", err)
			c.Next()
			return
		}
		if ttl < 0 {
			ttl = time.Minute
		}

		remaining := max(config.RequestsPerMinute-int(count), 0)
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerMinute))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

		if int(count) > config.RequestsPerMinute {
			logger.Warningf("Rate limit exceeded for %s on %s (count: %d)", key, c.Request.URL.Path, count)
			c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, entity.Msg{Message: "Too many requests"})
			return
		}
		c.Next()
	}
}
