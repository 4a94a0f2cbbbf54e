package middleware

import (
	"context"
	"strings"

	"bookly/internal/shared/apperrors"
	"bookly/internal/shared/tokens"
	"bookly/internal/shared/utils/response"
	"bookly/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	claimsKey      = "token_claims"
	currentUserKey = "current_user"
)

// TokenDecoder verifies a raw bearer token.
type TokenDecoder interface {
	Decode(token string) (*tokens.Claims, error)
}

// Revocations answers whether a token id has been revoked.
type Revocations interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// TokenBearer authenticates the request with a token of the given kind.
// Decoding failures and revoked ids are both reported as INVALID_TOKEN.
func TokenBearer(decoder TokenDecoder, revoked Revocations, kind tokens.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			logger.GetDefault().LogAuthFailure(c.Request.Context(), "missing bearer token", c.ClientIP())
			response.AbortWithError(c, apperrors.ErrNotAuthenticated)
			return
		}

		claims, err := decoder.Decode(raw)
		if err != nil {
			logger.GetDefault().LogAuthFailure(c.Request.Context(), "undecodable token", c.ClientIP())
			response.AbortWithError(c, err)
			return
		}

		isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			response.AbortWithError(c, err)
			return
		}
		if isRevoked {
			logger.GetDefault().LogAuthFailure(c.Request.Context(), "revoked token", c.ClientIP())
			response.AbortWithError(c, apperrors.ErrInvalidToken)
			return
		}

		if err := checkKind(claims, kind); err != nil {
			response.AbortWithError(c, err)
			return
		}

		c.Set(claimsKey, claims)
		c.Set("user_uid", claims.User.UserUID)
		c.Set("user_email", claims.User.Email)
		c.Set("user_role", claims.User.Role)
		c.Next()
	}
}

func checkKind(claims *tokens.Claims, want tokens.Kind) error {
	switch {
	case want == tokens.Access && claims.Refresh:
		return apperrors.ErrInvalidToken
	case want == tokens.Refresh && !claims.Refresh:
		return apperrors.ErrRefreshTokenRequired
	}
	return nil
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// ClaimsFrom returns the claims stored by TokenBearer.
func ClaimsFrom(c *gin.Context) (*tokens.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*tokens.Claims)
	return claims, ok
}
