package middleware

import (
	"net"
	"strings"

	"bookly/internal/shared/apperrors"
	"bookly/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

// AllowedHosts rejects requests whose Host header is not on the allow-list.
// An entry of "*" disables the check and "*.example.com" matches any
// subdomain of example.com.
func AllowedHosts(hosts []string) gin.HandlerFunc {
	allowAny := len(hosts) == 0
	patterns := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "*" {
			allowAny = true
		}
		patterns = append(patterns, h)
	}

	return func(c *gin.Context) {
		if allowAny || hostAllowed(requestHost(c.Request.Host), patterns) {
			c.Next()
			return
		}
		response.AbortWithError(c, apperrors.ErrInvalidHost)
	}
}

func requestHost(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(strings.Trim(host, "[]"))
}

func hostAllowed(host string, patterns []string) bool {
	for _, p := range patterns {
		if strings.HasPrefix(p, "*.") {
			if strings.HasSuffix(host, p[1:]) {
				return true
			}
			continue
		}
		if host == p {
			return true
		}
	}
	return false
}
