package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Taichi-iskw/ytshelf/internal/errors"
)

// statusFor maps an error code to its HTTP status
func statusFor(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeInvalidArg:
		return http.StatusBadRequest
	case apperrors.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeTimeout:
		return http.StatusRequestTimeout
	case apperrors.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// message returns the client-facing text of err. Internal causes stay in the logs.
func message(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Internal server error"
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{
		"success": false,
		"code":    apperrors.CodeOf(err),
		"message": message(err),
	})
}
