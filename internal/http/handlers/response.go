// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all
// endpoints: the structured error envelope, consistent JSON serialization,
// and helpers for common HTTP patterns. Both success and failure responses
// keep a uniform shape so clients can handle them mechanically.
//
// Example error response:
//
//	HTTP/1.1 403 Forbidden
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "forbidden",
//	  "error": "conversation not accessible"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-ai-chat/internal/http/middleware"
	"github.com/tbourn/go-ai-chat/internal/llm"
	"github.com/tbourn/go-ai-chat/internal/sanitize"
	"github.com/tbourn/go-ai-chat/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// RequestID correlates server logs with client-side errors (echoed from
// X-Request-ID). Code is a stable machine-readable string (see errors.go).
// Error is a human-readable description safe to display to users.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code      string `json:"code" example:"forbidden"`
	Error     string `json:"error" example:"conversation not accessible"`
}

// fail aborts the request with a structured error envelope. Server errors
// (>=500) are logged with the request-scoped logger before the response is
// written; their client-facing message stays generic.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Error:     msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("error", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail(), for router-level responses
// (NoRoute, NoMethod) that live outside this package's handlers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failFor maps known service-layer errors onto HTTP responses; unknown
// errors become a generic 500 with the detail kept server-side.
func failFor(c *gin.Context, err error) {
	var unavailable *llm.ServiceUnavailableError

	switch {
	case errors.Is(err, services.ErrConversationNotFound):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "conversation not accessible")
	case errors.Is(err, sanitize.ErrEmptyMessage),
		errors.Is(err, sanitize.ErrMessageTooLong),
		errors.Is(err, sanitize.ErrHarmfulContent):
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, services.ErrInvalidSender),
		errors.Is(err, services.ErrInvalidTopic),
		errors.Is(err, services.ErrInvalidInput):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrEmailExists):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, err.Error())
	case errors.As(err, &unavailable):
		status := unavailable.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		fail(c, status, ErrCodeServiceUnavailable, "AI service unavailable, please try again")
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("unhandled service error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

// ok writes a success JSON response with the given status.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
