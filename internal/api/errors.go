package api

import (
	"errors"
	"net/http"

	"github.com/PauloVieira29/Fitness/internal/logging"
	"github.com/PauloVieira29/Fitness/internal/service"
	"github.com/PauloVieira29/Fitness/internal/storage"

	"github.com/gin-gonic/gin"
)

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// abortWithCode adds a machine readable code next to the message.
func abortWithCode(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": code})
}

// statusForKind maps a service error class to its HTTP status.
// Conflicts are reported as bad requests.
func statusForKind(k service.Kind) int {
	switch k {
	case service.KindValidation, service.KindConflict:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a JSON error response. Unclassified errors
// are logged with the request ID and answered with a generic message.
func respondError(c *gin.Context, err error) {
	var se *service.Error
	if errors.As(err, &se) {
		status := statusForKind(se.Kind)
		if se.Code != "" {
			abortWithCode(c, status, se.Msg, se.Code)
			return
		}
		abortWithError(c, status, se.Msg)
		return
	}

	if errors.Is(err, storage.ErrStorageUnavailable) {
		logging.Ctx(c.Request.Context()).Warn().Err(err).Msg("Object storage unavailable")
		abortWithError(c, http.StatusServiceUnavailable, "file storage is temporarily unavailable, please try again later")
		return
	}

	logging.Ctx(c.Request.Context()).Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Msg("Unhandled error")
	abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
}
