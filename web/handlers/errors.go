package handlers

import (
	"context"
	"errors"
	"net/http"

	apperrors "correspondence/errors"
	"correspondence/retrieval"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondWithError logs the technical error and returns a user-friendly message
func respondWithError(c *gin.Context, statusCode int, technicalError error, userMessage string, logger *zap.Logger, fields ...zap.Field) {
	if logger != nil {
		fields = append(fields, zap.Error(technicalError))
		logger.Error("Request failed", fields...)
	}

	c.JSON(statusCode, gin.H{"error": userMessage})
}

// respondWithClientError returns a client error (no logging needed for validation errors)
func respondWithClientError(c *gin.Context, statusCode int, userMessage string) {
	c.JSON(statusCode, gin.H{"error": userMessage})
}

// statusFor maps an error from the core to an HTTP status.
func statusFor(err error) int {
	switch {
	case apperrors.IsInvalidInput(err):
		return http.StatusBadRequest
	case apperrors.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, retrieval.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case apperrors.IsServiceUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondWithAppError picks the status for err. Client-side failures echo
// the error text; server-side failures are logged and answered generically.
func respondWithAppError(c *gin.Context, err error, logger *zap.Logger, fields ...zap.Field) {
	status := statusFor(err)
	switch status {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict:
		respondWithClientError(c, status, err.Error())
	case http.StatusServiceUnavailable:
		respondWithError(c, status, err, "Search is temporarily unavailable", logger, fields...)
	case http.StatusGatewayTimeout:
		respondWithError(c, status, err, "The request timed out", logger, fields...)
	default:
		respondWithError(c, status, err, "Internal error", logger, fields...)
	}
}
