// Auth HTTP handlers.
//
// This file exposes the account endpoints:
//   - POST /auth/register (create account, returns session token)
//   - POST /auth/login    (verify credentials, returns session token)
//
// Handlers are transport-thin: they validate input, call the auth service,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-ai-chat/internal/services"
)

// AuthService defines the account operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AuthService interface {
	// Register creates an account and returns a session token.
	Register(ctx context.Context, email, password string) (*services.AuthResult, error)
	// Login verifies credentials and returns a session token.
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
}

// CredentialsRequest is the JSON payload for register and login.
type CredentialsRequest struct {
	Email    string `json:"email" binding:"required" example:"ada@example.com"`
	Password string `json:"password" binding:"required" example:"correct horse battery"`
}

// SessionResponse is returned by successful register/login calls.
type SessionResponse struct {
	Token string      `json:"token"`
	User  SessionUser `json:"user"`
}

// SessionUser is the public projection of an account.
type SessionUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Register godoc
// @ID          register
// @Summary     Create an account
// @Description Registers a new account and returns a session token.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.CredentialsRequest  true  "Credentials"
// @Success     201  {object}  handlers.SessionResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Email taken"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	res, err := h.authSvc.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failFor(c, err)
		return
	}
	ok(c, http.StatusCreated, sessionResponse(res))
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Verifies credentials and returns a session token.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.CredentialsRequest  true  "Credentials"
// @Success     200  {object}  handlers.SessionResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid credentials"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	res, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failFor(c, err)
		return
	}
	ok(c, http.StatusOK, sessionResponse(res))
}

func sessionResponse(res *services.AuthResult) SessionResponse {
	return SessionResponse{
		Token: res.Token,
		User: SessionUser{
			ID:        res.User.ID,
			Email:     res.User.Email,
			CreatedAt: res.User.CreatedAt,
		},
	}
}
