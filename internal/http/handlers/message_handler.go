// Message HTTP handlers.
//
// This file exposes REST endpoints for message resources:
//   - GET  /messages  (paginated history for one conversation, ETag support)
//   - POST /messages  (append one message without generating a reply)
//
// The conversation is addressed by the conversationId query/body field, not
// the path, mirroring the client's flat message API. All content returned
// here is decoded plaintext; the stored encoding never leaves the service
// layer.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-ai-chat/internal/domain"
	"github.com/tbourn/go-ai-chat/internal/repo"
	"github.com/tbourn/go-ai-chat/internal/services"
	"github.com/tbourn/go-ai-chat/internal/utils"
)

//
// DTOs
//

// AppendMessageRequest is the JSON payload for storing a single message.
type AppendMessageRequest struct {
	ConversationID string `json:"conversationId" binding:"required" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	Content        string `json:"content" binding:"required" example:"Hello there"`
	Sender         string `json:"sender" binding:"required" example:"user"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"hasMore"`
}

// ListMessagesResponse wraps a page of messages and pagination information.
type ListMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

// clampPagination parses and bounds the page and limit query params.
func clampPagination(c *gin.Context) (page, limit int) {
	const (
		defaultPage  = 1
		defaultLimit = 20
		maxLimit     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	limit = utils.ClampInt(utils.AtoiDefault(c.Query("limit"), defaultLimit), 1, maxLimit)
	return
}

//
// Handlers
//

// ListMessages godoc
// @ID          listMessages
// @Summary     List messages (paginated)
// @Description Returns a page of a conversation's messages in chronological order. Supports weak ETag via If-None-Match.
// @Tags        Messages
// @Produce     json
// @Security    BearerAuth
// @Param       conversationId  query   string  true  "Conversation ID (UUID)"  format(uuid)
// @Param       page            query   int     false "Page number"    minimum(1) default(1)
// @Param       limit           query   int     false "Items per page" minimum(1) maximum(100) default(20)
// @Param       If-None-Match   header  string  false "Return 304 if ETag matches"
// @Success     200  {object}  handlers.ListMessagesResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     403  {object}  handlers.ErrorResponse  "Not accessible"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	convID := c.Query("conversationId")
	if _, err := uuid.Parse(convID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversationId must be a UUID")
		return
	}
	page, limit := clampPagination(c)

	// Ownership must be settled before the stats query: an ETag built from a
	// foreign conversation's count and last-activity time would leak state
	// the 403 body withholds.
	if err := h.msgSvc.VerifyOwnership(ctx, userID(c), convID); err != nil {
		failFor(c, err)
		return
	}

	// ETag pre-check (best effort).
	if db := h.msgDB(); db != nil {
		count, maxTS, err := repo.MessagesStats(ctx, db, convID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"messages:%s:%d:%d:%d:%d"`, convID, count, ts, page, limit)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.msgSvc.ListPage(ctx, userID(c), convID, page, limit)
	if err != nil {
		failFor(c, err)
		return
	}

	ok(c, http.StatusOK, ListMessagesResponse{
		Messages: items,
		Pagination: Pagination{
			Page:    page,
			Limit:   limit,
			Total:   total,
			HasMore: utils.HasMore(page, limit, total),
		},
	})
}

// AppendMessage godoc
// @ID          appendMessage
// @Summary     Store a message
// @Description Validates and stores a single message without generating a reply.
// @Tags        Messages
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.AppendMessageRequest  true  "Message payload"
// @Success     201  {object}  domain.Message
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     403  {object}  handlers.ErrorResponse  "Not accessible"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /messages [post]
func (h *Handlers) AppendMessage(c *gin.Context) {
	var req AppendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if _, err := uuid.Parse(req.ConversationID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversationId must be a UUID")
		return
	}

	m, err := h.msgSvc.Append(c.Request.Context(), userID(c), req.ConversationID, req.Sender, req.Content)
	if err != nil {
		failFor(c, err)
		return
	}
	ok(c, http.StatusCreated, m)
}

// msgDB exposes the underlying DB handle when the service is the concrete
// implementation, for best-effort ETag stats.
func (h *Handlers) msgDB() *gorm.DB {
	if svc, ok := h.msgSvc.(*services.MessageService); ok {
		return svc.DB
	}
	return nil
}
