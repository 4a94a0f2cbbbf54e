package middleware

import (
	"bookly/internal/shared/tokens"
	"bookly/internal/users"

	"github.com/gin-gonic/gin"
)

// Guards bundles the per-route middleware handed to feature routers.
type Guards struct {
	Decoder     TokenDecoder
	Revocations Revocations
	Users       UserLookup
	// VerifiedWrites makes Writer also demand a verified account.
	VerifiedWrites bool
}

// Access accepts only non-revoked access tokens.
func (g *Guards) Access() gin.HandlerFunc {
	return TokenBearer(g.Decoder, g.Revocations, tokens.Access)
}

// Refresh accepts only non-revoked refresh tokens.
func (g *Guards) Refresh() gin.HandlerFunc {
	return TokenBearer(g.Decoder, g.Revocations, tokens.Refresh)
}

// Roles chains the access guard with a role check.
func (g *Guards) Roles(roles ...string) []gin.HandlerFunc {
	return []gin.HandlerFunc{g.Access(), RequireRoles(g.Users, roles...)}
}

// Writer guards routes that create or change content.
func (g *Guards) Writer() []gin.HandlerFunc {
	handlers := g.Roles(users.RoleAdmin, users.RoleUser)
	if g.VerifiedWrites {
		handlers = append(handlers, RequireVerified(g.Users))
	}
	return handlers
}

// Authenticated chains the access guard with loading the current user.
func (g *Guards) Authenticated() []gin.HandlerFunc {
	return []gin.HandlerFunc{g.Access(), CurrentUser(g.Users)}
}

// Admin chains the access guard with an admin-only role check.
func (g *Guards) Admin() []gin.HandlerFunc {
	return []gin.HandlerFunc{g.Access(), RequireAdmin(g.Users)}
}
