package books

import (
	"bookly/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// Router handles book routes
type Router struct {
	controller *Controller
	guards     *middleware.Guards
}

func NewRouter(controller *Controller, guards *middleware.Guards) *Router {
	return &Router{controller: controller, guards: guards}
}

func (r *Router) SetupRoutes(rg *gin.RouterGroup) {
	books := rg.Group("/books")
	{
		books.GET("", r.controller.List)
		books.GET("/:book_uid", r.controller.Get)
		books.GET("/user/:user_uid", r.guards.Access(), r.controller.ListByUser)

		books.POST("", append(r.guards.Writer(), r.controller.Create)...)
		books.PATCH("/:book_uid", append(r.guards.Writer(), r.controller.Update)...)
		books.DELETE("/:book_uid", append(r.guards.Admin(), r.controller.Delete)...)
	}
}
