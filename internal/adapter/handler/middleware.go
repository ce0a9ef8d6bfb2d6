package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rmontes/storefront/internal/adapter/auth"
	"github.com/rmontes/storefront/internal/core/domain"
)

const (
	callerContextKey = "caller"
	sessionHeader    = "X-Session-ID"
	sessionCookie    = "session_id"
)

// Authenticate resolves the caller from the bearer token or, failing that,
// the session reference, and aborts with 401 when neither resolves.
func Authenticate(resolver *auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}

		sessionID := c.GetHeader(sessionHeader)
		if sessionID == "" {
			if cookie, err := c.Cookie(sessionCookie); err == nil {
				sessionID = cookie
			}
		}

		caller, err := resolver.Resolve(c.Request.Context(), token, sessionID)
		if errors.Is(err, auth.ErrUnauthenticated) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "authentication required",
			})
			return
		}
		if err != nil {
			// A session store failure is not a credential problem.
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"status":  "error",
				"message": "authentication temporarily unavailable",
			})
			return
		}

		c.Set(callerContextKey, *caller)
		c.Next()
	}
}

// RequireAdmin must run after Authenticate.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if callerFrom(c).Role != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"status":  "error",
				"message": "admin role required",
			})
			return
		}
		c.Next()
	}
}

func callerFrom(c *gin.Context) domain.Caller {
	v, _ := c.Get(callerContextKey)
	caller, _ := v.(domain.Caller)
	return caller
}
