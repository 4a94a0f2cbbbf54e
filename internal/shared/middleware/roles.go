package middleware

import (
	"context"

	"bookly/internal/shared/apperrors"
	"bookly/internal/shared/utils/response"
	"bookly/internal/users"

	"github.com/gin-gonic/gin"
)

// UserLookup resolves the account behind a token.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*users.User, error)
}

// HasRole reports whether role is one of allowed.
func HasRole(role string, allowed []string) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// CurrentUser loads the account named by the token claims and caches it on
// the context. It must run after TokenBearer.
func CurrentUser(lookup UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := resolveUser(c, lookup); err != nil {
			response.AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// RequireRoles rejects callers whose stored role is not in roles.
func RequireRoles(lookup UserLookup, roles ...string) gin.HandlerFunc {
	allowed := append([]string(nil), roles...)
	return func(c *gin.Context) {
		user, err := resolveUser(c, lookup)
		if err != nil {
			response.AbortWithError(c, err)
			return
		}
		if !HasRole(user.Role, allowed) {
			response.AbortWithError(c, apperrors.ErrInsufficientPermission)
			return
		}
		c.Next()
	}
}

// RequireAdmin middleware that requires admin role
func RequireAdmin(lookup UserLookup) gin.HandlerFunc {
	return RequireRoles(lookup, users.RoleAdmin)
}

// RequireVerified rejects accounts that have not confirmed their email.
func RequireVerified(lookup UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := resolveUser(c, lookup)
		if err != nil {
			response.AbortWithError(c, err)
			return
		}
		if !user.IsVerified {
			response.AbortWithError(c, apperrors.ErrAccountNotVerified)
			return
		}
		c.Next()
	}
}

// UserFrom returns the account loaded by CurrentUser or a role guard.
func UserFrom(c *gin.Context) (*users.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*users.User)
	return user, ok
}

func resolveUser(c *gin.Context, lookup UserLookup) (*users.User, error) {
	if user, ok := UserFrom(c); ok {
		return user, nil
	}
	claims, ok := ClaimsFrom(c)
	if !ok {
		return nil, apperrors.ErrNotAuthenticated
	}
	user, err := lookup.GetByEmail(c.Request.Context(), claims.User.Email)
	if err != nil {
		return nil, err
	}
	c.Set(currentUserKey, user)
	return user, nil
}
