// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the session gate. Auth() extracts the Bearer token
// from the Authorization header, verifies it against the shared signing
// secret, and stores the authenticated user's ID and email in the Gin
// context for handlers and downstream middleware (logging, rate limiting).
//
// A missing, malformed, or expired token aborts the request with 401; the
// response body never distinguishes the three cases.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-ai-chat/internal/auth"
)

const (
	// userIDKey is the Gin context key for the authenticated user's ID.
	userIDKey = "userID"
	// userEmailKey is the Gin context key for the authenticated user's email.
	userEmailKey = "userEmail"
)

// Auth returns a middleware enforcing a valid Bearer session token signed
// with secret. On success the user ID and email are stored in the context.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			unauthorized(c)
			return
		}

		claims, err := auth.Parse(secret, token)
		if err != nil {
			unauthorized(c)
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(userEmailKey, claims.Email)
		c.Next()
	}
}

// UserID returns the authenticated user's ID from the Gin context, empty when
// Auth() has not run or rejected the request.
func UserID(c *gin.Context) string {
	v, _ := c.Get(userIDKey)
	return asString(v)
}

// bearerToken extracts the token from an "Authorization: Bearer <t>" header.
// The scheme comparison is case-insensitive; anything else yields "".
func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "unauthorized",
		"error":      "missing or invalid session token",
	})
}
