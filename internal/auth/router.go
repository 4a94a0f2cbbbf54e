package auth

import (
	"bookly/internal/shared/middleware"
	"bookly/internal/users"

	"github.com/gin-gonic/gin"
)

// Router handles auth-related routes
type Router struct {
	controller *Controller
	guards     *middleware.Guards
}

// NewRouter creates a new auth router
func NewRouter(controller *Controller, guards *middleware.Guards) *Router {
	return &Router{
		controller: controller,
		guards:     guards,
	}
}

// SetupRoutes registers all auth routes
func (authRouter *Router) SetupRoutes(rg *gin.RouterGroup) {
	guards := authRouter.guards

	auth := rg.Group("/auth")
	{
		// Public routes (no authentication required)
		auth.POST("/signup", authRouter.controller.Signup)
		auth.POST("/login", authRouter.controller.Login)
		auth.GET("/verify/:token", authRouter.controller.Verify)

		auth.GET("/refresh_token", guards.Refresh(), authRouter.controller.RefreshToken)
		auth.POST("/logout", guards.Access(), authRouter.controller.Logout)

		auth.GET("/me", append(guards.Roles(users.RoleAdmin, users.RoleUser), authRouter.controller.GetMe)...)
		auth.POST("/resend_verification", append(guards.Authenticated(), authRouter.controller.ResendVerification)...)
		auth.PUT("/change-password", append(guards.Authenticated(), authRouter.controller.ChangePassword)...)
	}
}
