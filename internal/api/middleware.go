package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/logging"
	"github.com/PauloVieira29/Fitness/internal/metrics"
	"github.com/PauloVieira29/Fitness/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Constants for context keys
const (
	ContextUserKey      = "user"
	ContextUserIDKey    = "userID"
	ContextUserRoleKey  = "userRole"
	ContextRequestIDKey = "requestID"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware tags every request with an ID, reusing a well formed
// incoming X-Request-ID.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = logging.GenerateRequestID()
		}
		c.Set(ContextRequestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(logging.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// AccessLogMiddleware writes one log line per request and feeds the HTTP
// metrics. Routes are labelled by their pattern, not the raw path.
func AccessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(latency.Seconds())

		// The auth middleware swaps the request, so read the final context.
		logger := logging.Ctx(c.Request.Context())
		event := logger.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = logger.Error()
		case status >= http.StatusBadRequest:
			event = logger.Warn()
		}
		event.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Int("bytes", c.Writer.Size()).
			Msg("HTTP request")
	}
}

// RecoveryMiddleware turns panics into logged 500 responses.
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.Ctx(c.Request.Context()).Error().
			Interface("panic", recovered).
			Str("path", c.Request.URL.Path).
			Msg("Recovered from panic")
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	})
}

// AuthMiddleware creates a Gin middleware for JWT authentication.
// The principal is reloaded on every request so that deactivated or
// deleted accounts lose access immediately.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		user, err := authService.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			respondError(c, err)
			return
		}

		// --- Token is valid ---
		c.Set(ContextUserKey, user)
		c.Set(ContextUserIDKey, user.ID.Hex())
		c.Set(ContextUserRoleKey, user.Role)
		c.Request = c.Request.WithContext(logging.ContextWithUserID(c.Request.Context(), user.ID.Hex()))

		c.Next()
	}
}

// RoleMiddleware creates middleware to check if user has the required role(s).
// Must run AFTER AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleRaw, exists := c.Get(ContextUserRoleKey)
		if !exists {
			abortWithError(c, http.StatusInternalServerError, "User role not found in context")
			return
		}
		userRole, ok := roleRaw.(domain.Role)
		if !ok {
			abortWithError(c, http.StatusInternalServerError, "Invalid user role type in context")
			return
		}

		for _, allowedRole := range allowedRoles {
			if userRole == allowedRole {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, "Access denied: role '"+string(userRole)+"' does not have permission")
	}
}

// currentUser returns the principal loaded by AuthMiddleware. It aborts
// with 401 and returns false when there is none.
func currentUser(c *gin.Context) (*domain.User, bool) {
	raw, exists := c.Get(ContextUserKey)
	if !exists {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user")
		return nil, false
	}
	user, ok := raw.(*domain.User)
	if !ok || user == nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user")
		return nil, false
	}
	return user, true
}

// currentUserID is currentUser for handlers that only need the ID.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	user, ok := currentUser(c)
	if !ok {
		return primitive.NilObjectID, false
	}
	return user.ID, true
}

// pathObjectID parses the named path parameter, aborting with 400 when it
// is not an ObjectID.
func pathObjectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format")
		return primitive.NilObjectID, false
	}
	return id, true
}

// queryObjectID parses an optional ObjectID query parameter.
func queryObjectID(c *gin.Context, name string) (*primitive.ObjectID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format")
		return nil, false
	}
	return &id, true
}
