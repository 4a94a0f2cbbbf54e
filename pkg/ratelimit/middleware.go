package ratelimit

import (
	"net/http"
	"strconv"
	"strings"

	"bookly/internal/shared/apperrors"
	"bookly/internal/shared/utils/response"
	"bookly/pkg/logger"

	"github.com/gin-gonic/gin"
)

// rate limiting middleware
func Middleware(rateLimiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := getClientIP(c)
		limitType := getRateLimitType(c.Request.Method, c.FullPath())

		result, err := rateLimiter.IsAllowed(c.Request.Context(), clientIP, limitType)
		if err != nil {
			// a limiter outage must not take the API down with it
			logger.GetDefault().WithError(err).WarnContext(c.Request.Context(), "rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime, 10))

		if !result.Allowed {
			logger.GetDefault().LogRateLimitExceeded(c.Request.Context(), clientIP, c.FullPath())
			response.AbortWithError(c, apperrors.ErrRateLimited.WithDetails(map[string]interface{}{
				"limit":      result.Limit,
				"reset_time": result.ResetTime,
			}))
			return
		}

		c.Next()
	}
}

func getRateLimitType(method, path string) RateLimitType {
	switch {
	case strings.HasPrefix(path, "/health"),
		strings.HasPrefix(path, "/ping"),
		strings.HasPrefix(path, "/status"):
		return RateLimitTypeHealth

	case strings.Contains(path, "/auth/"):
		return RateLimitTypeAuth

	case method == http.MethodPost,
		method == http.MethodPut,
		method == http.MethodPatch,
		method == http.MethodDelete:
		return RateLimitTypeWrite

	case strings.Contains(path, "/books"),
		strings.Contains(path, "/reviews"):
		return RateLimitTypePublic

	default:
		return RateLimitTypeDefault
	}
}

// getClientIP trusts X-Forwarded-For and X-Real-IP only when the peer is one
// of the engine's trusted proxies; otherwise the peer address is used.
func getClientIP(c *gin.Context) string {
	return c.ClientIP()
}
