package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"law-reports-backend/internal/apperr"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrDuplicateUpload):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrStoreTransient):
		return http.StatusServiceUnavailable
	case errors.Is(err, apperr.ErrStoreFatal):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError writes the error body and records err on the context for the request logger.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := statusFor(err)
	body := gin.H{"error": err.Error()}

	var verr *apperr.ValidationError
	var missing *apperr.MissingColumnsError
	var dup *apperr.DuplicateUploadError
	switch {
	case errors.As(err, &verr) && len(verr.Rows) > 0:
		body["rows"] = verr.Rows
	case errors.As(err, &missing):
		body["missing_columns"] = missing.Missing
	case errors.As(err, &dup):
		body["existing_batch_id"] = dup.ExistingBatchID
		body["fingerprint"] = dup.Fingerprint
	}
	if status == http.StatusInternalServerError {
		body["error"] = "internal error"
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
