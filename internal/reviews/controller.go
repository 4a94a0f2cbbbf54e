package reviews

import (
	"net/http"

	"bookly/internal/shared/apperrors"
	"bookly/internal/shared/middleware"
	"bookly/internal/shared/utils/request"
	"bookly/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) *Controller {
	return &Controller{
		service:   service,
		validator: validator.New(),
	}
}

// List godoc
// @Summary List reviews
// @Tags reviews
// @Produce json
// @Success 200 {object} response.StandardApiResponse
// @Router /reviews [get]
func (c *Controller) List(ctx *gin.Context) {
	reviews, err := c.service.List(ctx.Request.Context())
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Reviews retrieved successfully", reviews, nil)
}

// Get godoc
// @Summary Get a review
// @Tags reviews
// @Produce json
// @Param review_uid path string true "Review UID"
// @Success 200 {object} response.StandardApiResponse
// @Failure 404 {object} response.StandardApiResponse
// @Router /reviews/{review_uid} [get]
func (c *Controller) Get(ctx *gin.Context) {
	uid, err := request.UUIDParam(ctx, "review_uid")
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	review, err := c.service.Get(ctx.Request.Context(), uid)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Review retrieved successfully", review, nil)
}

// Create godoc
// @Summary Review a book
// @Tags reviews
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param book_uid path string true "Book UID"
// @Param body body CreateReviewRequest true "Review"
// @Success 201 {object} response.StandardApiResponse
// @Failure 404 {object} response.StandardApiResponse
// @Router /reviews/book/{book_uid} [post]
func (c *Controller) Create(ctx *gin.Context) {
	user, ok := middleware.UserFrom(ctx)
	if !ok {
		response.RespondError(ctx, apperrors.ErrNotAuthenticated)
		return
	}

	bookUID, err := request.UUIDParam(ctx, "book_uid")
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	var req CreateReviewRequest
	if err := request.BindJSON(ctx, c.validator, &req); err != nil {
		response.RespondError(ctx, err)
		return
	}

	review, err := c.service.Create(ctx.Request.Context(), user, bookUID, &req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "Review created successfully", review, nil)
}

// Delete godoc
// @Summary Delete a review
// @Description Only the author or an admin may delete a review
// @Tags reviews
// @Security BearerAuth
// @Param review_uid path string true "Review UID"
// @Success 204
// @Failure 403 {object} response.StandardApiResponse
// @Failure 404 {object} response.StandardApiResponse
// @Router /reviews/{review_uid} [delete]
func (c *Controller) Delete(ctx *gin.Context) {
	user, ok := middleware.UserFrom(ctx)
	if !ok {
		response.RespondError(ctx, apperrors.ErrNotAuthenticated)
		return
	}

	uid, err := request.UUIDParam(ctx, "review_uid")
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	if err := c.service.Delete(ctx.Request.Context(), user, uid); err != nil {
		response.RespondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
