package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aman-churiwal/getyoursite/internal/metrics"
	"github.com/aman-churiwal/getyoursite/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimit rejects a client address once it exceeds limiter's budget. The
// scope labels rejections in metrics and logs.
func RateLimit(limiter ratelimit.Limiter, scope string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		ctx := c.Request.Context()

		allowed, err := limiter.Allow(ctx, key)
		if err != nil {
			logger.Error("rate limit check failed", zap.String("scope", scope), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Rate limit check failed",
			})
			return
		}

		SetRateLimitHeaders(c, limiter, key, allowed)

		if !allowed {
			metrics.ObserveRateLimitRejection(scope)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please try again later",
			})
			return
		}

		c.Next()
	}
}

// SetRateLimitHeaders writes the X-RateLimit-* headers for key, plus
// Retry-After when the request was rejected.
func SetRateLimitHeaders(c *gin.Context, limiter ratelimit.Limiter, key string, allowed bool) {
	ctx := c.Request.Context()

	remaining, _ := limiter.Remaining(ctx, key)
	resetTime, err := limiter.Reset(ctx, key)
	if err != nil {
		resetTime = time.Now().Add(limiter.Window())
	}

	c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

	if !allowed {
		retryAfter := int(time.Until(resetTime).Seconds())
		if retryAfter < 0 {
			retryAfter = 0
		}
		c.Header("Retry-After", strconv.Itoa(retryAfter))
	}
}
