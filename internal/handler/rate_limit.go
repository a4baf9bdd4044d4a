package handler

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/hh-autoapply/internal/dto"
	"github.com/prperemyshlev/hh-autoapply/internal/service"
	"go.uber.org/zap"
)

// RateLimitMiddleware creates a rate limiting middleware. Limiter failures let the request through.
func RateLimitMiddleware(limiter service.Limiter, limit int, window time.Duration, keyFunc func(*gin.Context) string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)

		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error:       "rate_limited",
				Description: "Rate limit exceeded, retry after " + retryAfter.String(),
			})
			return
		}

		c.Next()
	}
}

// ClientIPKey keys the limiter by route and client address
func ClientIPKey(c *gin.Context) string {
	return c.FullPath() + ":" + c.ClientIP()
}
