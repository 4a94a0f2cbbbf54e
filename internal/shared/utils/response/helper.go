package response

import (
	"log/slog"
	"net/http"

	"bookly/internal/shared/apperrors"
	"bookly/pkg/logger"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondError translates err into the error envelope for its kind.
func RespondError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	if appErr.Status >= http.StatusInternalServerError {
		logger.GetDefault().LogHTTPError(c, err, appErr.Status)
	} else {
		logger.GetDefault().DebugContext(c.Request.Context(), "request rejected",
			slog.String("path", c.Request.URL.Path),
			slog.String("error_code", appErr.Code),
			slog.String("error", err.Error()),
		)
	}

	c.JSON(appErr.Status, StandardApiResponse{
		Status:     "error",
		StatusCode: appErr.Status,
		Message:    appErr.Message,
		ErrorCode:  appErr.Code,
		Errors:     appErr.Details,
	})
}

// AbortWithError responds with err and stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	RespondError(c, err)
	c.Abort()
}
