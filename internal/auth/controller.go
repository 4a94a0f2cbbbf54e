package auth

import (
	"errors"
	"net/http"

	"bookly/internal/shared/apperrors"
	"bookly/internal/shared/middleware"
	"bookly/internal/shared/utils/request"
	"bookly/internal/shared/utils/response"
	"bookly/pkg/logger"

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

// Signup godoc
// @Summary      Create an account
// @Description  Registers a user and queues a verification email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      SignupRequest  true  "Signup data"
// @Success      201   {object}  response.StandardApiResponse
// @Failure      400   {object}  response.StandardApiResponse
// @Failure      409   {object}  response.StandardApiResponse
// @Router       /auth/signup [post]
func (c *Controller) Signup(ctx *gin.Context) {
	var req SignupRequest
	if err := request.BindJSON(ctx, c.validator, &req); err != nil {
		response.RespondError(ctx, err)
		return
	}

	user, err := c.service.Signup(ctx.Request.Context(), &req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated,
		"Account created. Check your email to verify your account", newUserResponse(user), nil)
}

// Login godoc
// @Summary      Log in
// @Description  Exchanges email and password for an access and a refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      LoginRequest  true  "Credentials"
// @Success      200   {object}  response.StandardApiResponse{data=LoginResponse}
// @Failure      400   {object}  response.StandardApiResponse
// @Router       /auth/login [post]
func (c *Controller) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := request.BindJSON(ctx, c.validator, &req); err != nil {
		response.RespondError(ctx, err)
		return
	}

	resp, err := c.service.Login(ctx.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			logger.GetDefault().LogAuthFailure(ctx.Request.Context(), "invalid credentials", ctx.ClientIP())
		}
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Login successful", resp, nil)
}

// RefreshToken godoc
// @Summary      Refresh the access token
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.StandardApiResponse{data=AccessTokenResponse}
// @Failure      401  {object}  response.StandardApiResponse
// @Failure      403  {object}  response.StandardApiResponse
// @Router       /auth/refresh_token [get]
func (c *Controller) RefreshToken(ctx *gin.Context) {
	claims, ok := middleware.ClaimsFrom(ctx)
	if !ok {
		response.RespondError(ctx, apperrors.ErrNotAuthenticated)
		return
	}

	token, err := c.service.RefreshAccess(ctx.Request.Context(), claims)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Token refreshed successfully",
		AccessTokenResponse{AccessToken: token}, nil)
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes the presented access token
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.StandardApiResponse
// @Failure      401  {object}  response.StandardApiResponse
// @Router       /auth/logout [post]
func (c *Controller) Logout(ctx *gin.Context) {
	claims, ok := middleware.ClaimsFrom(ctx)
	if !ok {
		response.RespondError(ctx, apperrors.ErrNotAuthenticated)
		return
	}

	if err := c.service.Logout(ctx.Request.Context(), claims); err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Logged Out Successfully", nil, nil)
}

// GetMe godoc
// @Summary      Current user
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.StandardApiResponse{data=MeResponse}
// @Failure      401  {object}  response.StandardApiResponse
// @Router       /auth/me [get]
func (c *Controller) GetMe(ctx *gin.Context) {
	user, ok := middleware.UserFrom(ctx)
	if !ok {
		response.RespondError(ctx, apperrors.ErrNotAuthenticated)
		return
	}

	me, err := c.service.Me(ctx.Request.Context(), user)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "User data retrieved successfully", me, nil)
}

// Verify godoc
// @Summary      Verify an account
// @Tags         auth
// @Produce      json
// @Param        token  path      string  true  "Verification token"
// @Success      200    {object}  response.StandardApiResponse
// @Failure      400    {object}  response.StandardApiResponse
// @Router       /auth/verify/{token} [get]
func (c *Controller) Verify(ctx *gin.Context) {
	user, err := c.service.Verify(ctx.Request.Context(), ctx.Param("token"))
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Account verified successfully", newUserResponse(user), nil)
}

// ResendVerification godoc
// @Summary      Resend the verification email
// @Description  Does nothing for an account that is already verified
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.StandardApiResponse
// @Failure      401  {object}  response.StandardApiResponse
// @Router       /auth/resend_verification [post]
func (c *Controller) ResendVerification(ctx *gin.Context) {
	user, ok := middleware.UserFrom(ctx)
	if !ok {
		response.RespondError(ctx, apperrors.ErrNotAuthenticated)
		return
	}

	if user.IsVerified {
		response.RespondJSON(ctx, "success", http.StatusOK, "Account is already verified", nil, nil)
		return
	}
	if err := c.service.ResendVerification(ctx.Request.Context(), user); err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Verification email sent", nil, nil)
}

// ChangePassword godoc
// @Summary      Change password
// @Tags         auth
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      ChangePasswordRequest  true  "Current and new password"
// @Success      200   {object}  response.StandardApiResponse
// @Failure      400   {object}  response.StandardApiResponse
// @Failure      401   {object}  response.StandardApiResponse
// @Router       /auth/change-password [put]
func (c *Controller) ChangePassword(ctx *gin.Context) {
	user, ok := middleware.UserFrom(ctx)
	if !ok {
		response.RespondError(ctx, apperrors.ErrNotAuthenticated)
		return
	}

	var req ChangePasswordRequest
	if err := request.BindJSON(ctx, c.validator, &req); err != nil {
		response.RespondError(ctx, err)
		return
	}

	if err := c.service.ChangePassword(ctx.Request.Context(), user, &req); err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Password changed successfully", nil, nil)
}
