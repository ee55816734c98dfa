// Conversation HTTP handlers.
//
// This file exposes REST endpoints for conversation resources:
//   - POST   /conversations       (create)
//   - GET    /conversations       (list, ETag support)
//   - PATCH  /conversations/{id}  (rename)
//   - DELETE /conversations/{id}  (delete with message cascade)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses (including conditional
// responses). Ownership failures surface as 403 without revealing whether
// the conversation exists at all.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-ai-chat/internal/domain"
	"github.com/tbourn/go-ai-chat/internal/http/middleware"
	"github.com/tbourn/go-ai-chat/internal/repo"
	"github.com/tbourn/go-ai-chat/internal/services"
)

//
// Service contracts (context-aware)
//

// ConversationService defines conversation lifecycle operations consumed by
// HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ConversationService interface {
	// Create starts a new conversation for userID with an optional topic.
	Create(ctx context.Context, userID, topic string) (*domain.Conversation, error)
	// List returns the user's conversations, most recent first.
	List(ctx context.Context, userID string) ([]domain.Conversation, error)
	// UpdateTopic renames a conversation that belongs to userID.
	UpdateTopic(ctx context.Context, userID, conversationID, topic string) error
	// Delete removes a conversation and its messages.
	Delete(ctx context.Context, userID, conversationID string) error
}

// MessageService defines message persistence and exchange operations.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type MessageService interface {
	// Append stores a single message without producing a reply.
	Append(ctx context.Context, userID, conversationID, sender, content string) (*domain.Message, error)
	// ListPage returns a page of a conversation's messages and the total.
	ListPage(ctx context.Context, userID, conversationID string, page, pageSize int) ([]domain.Message, int64, error)
	// Send runs the full exchange: persist prompt, obtain and persist reply.
	Send(ctx context.Context, userID, conversationID, content string) (*domain.Message, *domain.Message, error)
	// VerifyOwnership fails with ErrConversationNotFound unless the
	// conversation belongs to userID.
	VerifyOwnership(ctx context.Context, userID, conversationID string) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for accounts, conversations, and
// messages. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	authSvc AuthService
	convSvc ConversationService
	msgSvc  MessageService
}

// New constructs a Handlers instance bound to the given services.
func New(authSvc AuthService, convSvc ConversationService, msgSvc MessageService) *Handlers {
	return &Handlers{authSvc: authSvc, convSvc: convSvc, msgSvc: msgSvc}
}

// userID extracts the authenticated user id from the Gin context (set by the
// auth middleware). Handlers behind the auth gate can rely on it being
// non-empty.
func userID(c *gin.Context) string {
	return middleware.UserID(c)
}

//
// DTOs
//

// TopicRequest is the JSON payload for creating or renaming a conversation.
type TopicRequest struct {
	// Topic names the conversation; a default is used when empty on create.
	Topic string `json:"topic" example:"Trip planning"`
}

//
// Handlers
//

// CreateConversation godoc
// @ID          createConversation
// @Summary     Create a conversation
// @Description Creates a conversation for the current user and returns it.
// @Tags        Conversations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.TopicRequest  true  "Topic payload"
// @Success     201  {object}  domain.Conversation
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /conversations [post]
func (h *Handlers) CreateConversation(c *gin.Context) {
	var req TopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	conv, err := h.convSvc.Create(c.Request.Context(), userID(c), strings.TrimSpace(req.Topic))
	if err != nil {
		failFor(c, err)
		return
	}
	ok(c, http.StatusCreated, conv)
}

// ListConversations godoc
// @ID          listConversations
// @Summary     List conversations
// @Description Returns the user's conversations, most recent first. Supports weak ETag via If-None-Match.
// @Tags        Conversations
// @Produce     json
// @Security    BearerAuth
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Success     200  {array}   domain.Conversation
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /conversations [get]
func (h *Handlers) ListConversations(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	// ETag pre-check (best effort).
	if db := h.convDB(); db != nil {
		count, maxTS, err := repo.ConversationsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"conversations:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, err := h.convSvc.List(ctx, uid)
	if err != nil {
		failFor(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// RenameConversation godoc
// @ID          renameConversation
// @Summary     Rename a conversation
// @Description Updates the topic of a conversation owned by the current user.
// @Tags        Conversations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  string  true  "Conversation ID (UUID)"  format(uuid)
// @Param       body  body  handlers.TopicRequest  true  "New topic"
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     403  {object}  handlers.ErrorResponse  "Not accessible"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /conversations/{id} [patch]
func (h *Handlers) RenameConversation(c *gin.Context) {
	convID := c.Param("id")
	if _, err := uuid.Parse(convID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}

	var req TopicRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Topic) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "topic required")
		return
	}

	if err := h.convSvc.UpdateTopic(c.Request.Context(), userID(c), convID, req.Topic); err != nil {
		failFor(c, err)
		return
	}
	noContent(c)
}

// DeleteConversation godoc
// @ID          deleteConversation
// @Summary     Delete a conversation
// @Description Removes a conversation and all of its messages.
// @Tags        Conversations
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Conversation ID (UUID)"  format(uuid)
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     403  {object}  handlers.ErrorResponse  "Not accessible"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /conversations/{id} [delete]
func (h *Handlers) DeleteConversation(c *gin.Context) {
	convID := c.Param("id")
	if _, err := uuid.Parse(convID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}

	if err := h.convSvc.Delete(c.Request.Context(), userID(c), convID); err != nil {
		failFor(c, err)
		return
	}
	noContent(c)
}

// convDB exposes the underlying DB handle when the service is the concrete
// implementation, for best-effort ETag stats. Interface-only fakes skip the
// conditional path.
func (h *Handlers) convDB() *gorm.DB {
	if svc, ok := h.convSvc.(*services.ConversationService); ok {
		return svc.DB
	}
	return nil
}
