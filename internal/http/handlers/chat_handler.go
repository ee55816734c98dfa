// Chat exchange handler.
//
// This file exposes the full message-exchange endpoint:
//   - POST /chat  (persist user prompt, obtain AI reply, persist it)
//
// The user turn is committed before the completion call. When the completion
// backend fails, the response carries the error envelope plus the already
// persisted user message so clients can keep their optimistic echo and offer
// a retry instead of silently dropping the prompt.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-ai-chat/internal/domain"
	"github.com/tbourn/go-ai-chat/internal/http/middleware"
	"github.com/tbourn/go-ai-chat/internal/llm"
)

// ChatRequest is the JSON payload for the exchange endpoint.
type ChatRequest struct {
	ConversationID string `json:"conversationId" binding:"required" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	Message        string `json:"message" binding:"required" example:"What should I pack for Iceland?"`
}

// ChatResponse carries both sides of a completed exchange.
type ChatResponse struct {
	UserMessage *domain.Message `json:"userMessage"`
	AIMessage   *domain.Message `json:"aiMessage"`
}

// Chat godoc
// @ID          chat
// @Summary     Send a message and receive an AI reply
// @Description Persists the user message, calls the completion backend with bounded history, and persists the reply.
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.ChatRequest  true  "Chat payload"
// @Success     200  {object}  handlers.ChatResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     403  {object}  handlers.ErrorResponse  "Not accessible"
// @Failure     502  {object}  handlers.ErrorResponse  "Completion backend unavailable"
// @Router      /chat [post]
func (h *Handlers) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if _, err := uuid.Parse(req.ConversationID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversationId must be a UUID")
		return
	}

	userMsg, aiMsg, err := h.msgSvc.Send(c.Request.Context(), userID(c), req.ConversationID, req.Message)
	if err != nil {
		// A persisted user turn without a reply is a durable partial result;
		// return it alongside the error so the client can retry in place.
		var unavailable *llm.ServiceUnavailableError
		if userMsg != nil && errors.As(err, &unavailable) {
			status := unavailable.StatusCode
			if status < http.StatusBadRequest {
				status = http.StatusBadGateway
			}
			middleware.LoggerFrom(c).Error().
				Err(err).
				Str("conversation_id", req.ConversationID).
				Msg("completion failed after user turn persisted")
			c.AbortWithStatusJSON(status, gin.H{
				"request_id":   c.Writer.Header().Get("X-Request-ID"),
				"code":         ErrCodeServiceUnavailable,
				"error":        "AI service unavailable, please try again",
				"user_message": userMsg,
			})
			return
		}
		failFor(c, err)
		return
	}

	ok(c, http.StatusOK, ChatResponse{UserMessage: userMsg, AIMessage: aiMsg})
}
