package handler

import (
	"errors"
	"net/http"

	"carecircle/internal/transport/httpdto"
	carecircle_errors "carecircle/pkg/errors"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors to HTTP statuses and machine-readable
// codes so clients can show kind-specific messages.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, carecircle_errors.ErrNotFound):
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse(err.Error(), "NOT_FOUND"))
	case errors.Is(err, carecircle_errors.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, httpdto.NewErrorResponse(err.Error(), "FILE_TOO_LARGE"))
	case errors.Is(err, carecircle_errors.ErrQuotaExceeded):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse(err.Error(), "QUOTA_EXCEEDED"))
	case errors.Is(err, carecircle_errors.ErrLockBusy):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse(err.Error(), "VISIT_BUSY"))
	case errors.Is(err, carecircle_errors.ErrCaptionTooLong),
		errors.Is(err, carecircle_errors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_REQUEST"))
	case errors.Is(err, carecircle_errors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse(err.Error(), "UNAUTHORIZED"))
	case errors.Is(err, carecircle_errors.ErrForbidden):
		c.JSON(http.StatusForbidden, httpdto.NewErrorResponse(err.Error(), "FORBIDDEN"))
	case errors.Is(err, carecircle_errors.ErrStorageWrite):
		c.JSON(http.StatusBadGateway, httpdto.NewErrorResponse(err.Error(), "STORAGE_WRITE_FAILED"))
	case errors.Is(err, carecircle_errors.ErrMetadataWrite):
		c.JSON(http.StatusBadGateway, httpdto.NewErrorResponse(err.Error(), "METADATA_WRITE_FAILED"))
	default:
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "INTERNAL_ERROR"))
	}
}
