// Package apperrors holds the error kinds that cross the HTTP boundary.
// Each kind carries a machine-readable code and the status it is reported with.
package apperrors

import (
	"errors"
	"net/http"
)

type AppError struct {
	Code    string
	Status  int
	Message string
	Details interface{}
	cause   error
}

func New(code string, status int, message string) *AppError {
	return &AppError{Code: code, Status: status, Message: message}
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches any AppError with the same code, so copies made by Wrap or
// WithDetails still compare equal to the sentinel.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Wrap returns a copy of e that records err as its cause.
func (e *AppError) Wrap(err error) *AppError {
	cp := *e
	cp.cause = err
	return &cp
}

// WithDetails returns a copy of e carrying extra data for the response body.
func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

var (
	ErrInvalidToken           = New("INVALID_TOKEN", http.StatusUnauthorized, "Token is invalid or expired")
	ErrNotAuthenticated       = New("NOT_AUTHENTICATED", http.StatusUnauthorized, "Authorization header must be Bearer {token}")
	ErrRefreshTokenRequired   = New("REFRESH_TOKEN_REQUIRED", http.StatusForbidden, "A valid refresh token is required for this action")
	ErrInsufficientPermission = New("INSUFFICIENT_PERMISSION", http.StatusForbidden, "You do not have the required role")
	ErrAccountNotVerified     = New("ACCOUNT_NOT_VERIFIED", http.StatusForbidden, "Account is not verified. Please check your email")
	ErrUserNotFound           = New("USER_NOT_FOUND", http.StatusNotFound, "User not found")
	ErrBookNotFound           = New("BOOK_NOT_FOUND", http.StatusNotFound, "Book not found")
	ErrReviewNotFound         = New("REVIEW_NOT_FOUND", http.StatusNotFound, "Review not found")
	ErrUserAlreadyExists      = New("USER_EXISTS", http.StatusConflict, "User with this email or username already exists")
	ErrInvalidCredentials     = New("INVALID_CREDENTIALS", http.StatusBadRequest, "Invalid email or password")
	ErrValidation             = New("VALIDATION_FAILED", http.StatusBadRequest, "Validation failed")
	ErrInvalidHost            = New("INVALID_HOST", http.StatusBadRequest, "Invalid host header")
	ErrRateLimited            = New("RATE_LIMITED", http.StatusTooManyRequests, "Rate limit exceeded")
	ErrInternal               = New("SERVER_ERROR", http.StatusInternalServerError, "Something went wrong on our end")
)

// Validation wraps a binding or validator error as ErrValidation.
func Validation(err error) *AppError {
	return ErrValidation.Wrap(err).WithDetails(err.Error())
}

// From resolves err to the AppError it should be reported as.
// Errors that are not AppErrors collapse to ErrInternal.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternal.Wrap(err)
}
