package books

import (
	"net/http"

	"bookly/internal/shared/apperrors"
	"bookly/internal/shared/middleware"
	"bookly/internal/shared/utils/request"
	"bookly/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
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
// @Summary      List books
// @Tags         books
// @Produce      json
// @Success      200  {object}  response.StandardApiResponse
// @Router       /books [get]
func (c *Controller) List(ctx *gin.Context) {
	books, err := c.service.List(ctx.Request.Context())
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Books retrieved successfully", books, nil)
}

// Get godoc
// @Summary      Get a book with its reviews
// @Tags         books
// @Produce      json
// @Param        book_uid  path      string  true  "Book UID"
// @Success      200       {object}  response.StandardApiResponse
// @Failure      404       {object}  response.StandardApiResponse
// @Router       /books/{book_uid} [get]
func (c *Controller) Get(ctx *gin.Context) {
	uid, err := request.UUIDParam(ctx, "book_uid")
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	book, err := c.service.Get(ctx.Request.Context(), uid)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Book retrieved successfully", book, nil)
}

// ListByUser godoc
// @Summary      List books submitted by a user
// @Tags         books
// @Security     BearerAuth
// @Produce      json
// @Param        user_uid  path      string  true  "User UID"
// @Success      200       {object}  response.StandardApiResponse
// @Failure      401       {object}  response.StandardApiResponse
// @Router       /books/user/{user_uid} [get]
func (c *Controller) ListByUser(ctx *gin.Context) {
	userUID, err := request.UUIDParam(ctx, "user_uid")
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	books, err := c.service.ListByUser(ctx.Request.Context(), userUID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Books retrieved successfully", books, nil)
}

// Create godoc
// @Summary      Submit a book
// @Tags         books
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      CreateBookRequest  true  "Book"
// @Success      201   {object}  response.StandardApiResponse
// @Failure      400   {object}  response.StandardApiResponse
// @Failure      403   {object}  response.StandardApiResponse
// @Router       /books [post]
func (c *Controller) Create(ctx *gin.Context) {
	ownerUID, err := tokenUserUID(ctx)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	var req CreateBookRequest
	if err := request.BindJSON(ctx, c.validator, &req); err != nil {
		response.RespondError(ctx, err)
		return
	}

	book, err := c.service.Create(ctx.Request.Context(), ownerUID, &req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "Book created successfully", book, nil)
}

// Update godoc
// @Summary      Update a book
// @Tags         books
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        book_uid  path      string             true  "Book UID"
// @Param        body      body      UpdateBookRequest  true  "Fields to change"
// @Success      200       {object}  response.StandardApiResponse
// @Failure      404       {object}  response.StandardApiResponse
// @Router       /books/{book_uid} [patch]
func (c *Controller) Update(ctx *gin.Context) {
	uid, err := request.UUIDParam(ctx, "book_uid")
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	var req UpdateBookRequest
	if err := request.BindJSON(ctx, c.validator, &req); err != nil {
		response.RespondError(ctx, err)
		return
	}

	book, err := c.service.Update(ctx.Request.Context(), uid, &req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Book updated successfully", book, nil)
}

// Delete godoc
// @Summary      Delete a book
// @Tags         books
// @Security     BearerAuth
// @Param        book_uid  path  string  true  "Book UID"
// @Success      204
// @Failure      403  {object}  response.StandardApiResponse
// @Failure      404  {object}  response.StandardApiResponse
// @Router       /books/{book_uid} [delete]
func (c *Controller) Delete(ctx *gin.Context) {
	actorUID, err := tokenUserUID(ctx)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	uid, err := request.UUIDParam(ctx, "book_uid")
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	if err := c.service.Delete(ctx.Request.Context(), actorUID, uid); err != nil {
		response.RespondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func tokenUserUID(ctx *gin.Context) (uuid.UUID, error) {
	claims, ok := middleware.ClaimsFrom(ctx)
	if !ok {
		return uuid.Nil, apperrors.ErrNotAuthenticated
	}
	uid, err := uuid.Parse(claims.User.UserUID)
	if err != nil {
		return uuid.Nil, apperrors.ErrInvalidToken.Wrap(err)
	}
	return uid, nil
}
