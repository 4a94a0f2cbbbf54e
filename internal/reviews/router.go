package reviews

import (
	"bookly/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// Router handles review routes
type Router struct {
	controller *Controller
	guards     *middleware.Guards
}

func NewRouter(controller *Controller, guards *middleware.Guards) *Router {
	return &Router{controller: controller, guards: guards}
}

func (r *Router) SetupRoutes(rg *gin.RouterGroup) {
	reviews := rg.Group("/reviews")
	{
		reviews.GET("", r.controller.List)
		reviews.GET("/:review_uid", r.controller.Get)

		reviews.POST("/book/:book_uid", append(r.guards.Writer(), r.controller.Create)...)
		reviews.DELETE("/:review_uid", append(r.guards.Authenticated(), r.controller.Delete)...)
	}
}
