package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/sttkit/errors"
	"github.com/kbukum/sttkit/server/middleware"
)

// DataResponse is the standard success envelope.
type DataResponse struct {
	Data any `json:"data"`
}

// RespondWithError writes err as a structured error body. An AppError
// keeps its own status, an oversized body becomes 413, anything else 500.
// The error code is also set as the X-Error-Code header for the logging and
// tracing middleware.
func RespondWithError(c *gin.Context, err error) {
	appErr := toAppError(err)
	c.Header(middleware.HeaderErrorCode, string(appErr.Code))
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}

func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "Request body too large", http.StatusRequestEntityTooLarge).
			WithDetail("limit_bytes", maxErr.Limit)
	}
	return apperrors.Internal(err)
}

// RespondOK sends a 200 response wrapping data.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}
