package request

import (
	"fmt"

	"bookly/internal/shared/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// BindJSON decodes the body into dst and runs struct validation.
// Both failures are reported as VALIDATION_FAILED.
func BindJSON(c *gin.Context, v *validator.Validate, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperrors.Validation(err)
	}
	if err := v.Struct(dst); err != nil {
		return apperrors.Validation(err)
	}
	return nil
}

// UUIDParam parses the named path parameter as a UUID.
func UUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.Validation(fmt.Errorf("%s %q is not a valid UUID", name, raw))
	}
	return id, nil
}
