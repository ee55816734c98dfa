// Package services implements the application layer: message exchange.
//
// This file implements MessageService, the application-level component that
// owns the message exchange pipeline. It validates and cleans inputs, checks
// conversation ownership, persists the user turn, obtains the assistant
// reply from the configured Completer, and persists the reply.
//
// Content crosses the codec boundary here: plaintext goes in and out of the
// service, encoded tokens go in and out of the repository. On the first
// message of a conversation the service also derives a topic from the prompt.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include conversation/user identifiers and pagination parameters where
// applicable.
package services

import (
	"context"
	"errors"
	"unicode/utf8"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-ai-chat/internal/codec"
	"github.com/tbourn/go-ai-chat/internal/domain"
	"github.com/tbourn/go-ai-chat/internal/repo"
	"github.com/tbourn/go-ai-chat/internal/sanitize"
)

// topicRunes is how much of the first prompt becomes the conversation topic.
const topicRunes = 50

// Completer produces an assistant reply from decoded conversation history
// plus the new user text. *llm.Client is the production implementation.
type Completer interface {
	Complete(ctx context.Context, history []domain.Message, userText string) (string, error)
}

// MessageService coordinates message persistence and assistant replies.
type MessageService struct {
	DB        *gorm.DB
	Codec     codec.Codec
	Completer Completer

	// HistoryLimit caps how many persisted turns are loaded as completion
	// context. <=0 uses 10.
	HistoryLimit int
}

// Append validates and persists a single message without invoking the
// completion backend. Used by the bare message-create endpoint; the sender
// must be one of the allowed values.
func (s *MessageService) Append(ctx context.Context, userID, conversationID, sender, content string) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Append",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("user.id", userID),
			attribute.String("sender", sender),
		),
	)
	defer span.End()

	if sender != domain.SenderUser && sender != domain.SenderAI {
		return nil, ErrInvalidSender
	}
	if err := s.ensureOwned(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	cleaned, err := sanitize.CleanAndValidate(content)
	if err != nil {
		return nil, err
	}

	m, err := repo.CreateMessage(s.DB.WithContext(ctx), conversationID, sender, s.Codec.Encode(cleaned))
	if err != nil {
		return nil, err
	}
	m.Content = cleaned
	return m, nil
}

// ListPage returns one page of a conversation's messages in chronological
// order, with the total count so callers can compute whether more pages
// remain. Content is decoded before return.
func (s *MessageService) ListPage(ctx context.Context, userID, conversationID string, page, pageSize int) ([]domain.Message, int64, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	if err := s.ensureOwned(ctx, userID, conversationID); err != nil {
		return nil, 0, err
	}

	total, err := repo.CountMessages(s.DB.WithContext(ctx), conversationID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}

	items, err := repo.ListMessagesPage(s.DB.WithContext(ctx), conversationID, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}
	s.decode(items)
	return items, total, nil
}

// Send runs the full exchange: validate and clean the prompt, persist the
// user turn, call the completion backend with bounded history, then persist
// the assistant turn.
//
// The user turn is committed before the completion call, so a backend
// failure returns the persisted user message alongside the error; callers
// surface the partial result and let the user retry. On the first message of
// a conversation the topic is derived from the prompt.
func (s *MessageService) Send(ctx context.Context, userID, conversationID, content string) (userMsg, aiMsg *domain.Message, err error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Send",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if err := s.ensureOwned(ctx, userID, conversationID); err != nil {
		return nil, nil, err
	}

	cleaned, err := sanitize.CleanAndValidate(content)
	if err != nil {
		return nil, nil, err
	}

	db := s.DB.WithContext(ctx)

	total, err := repo.CountMessages(db, conversationID)
	if err != nil {
		return nil, nil, err
	}

	// History is loaded before the new turn is written so the prompt does
	// not appear twice in the completion context.
	history, err := repo.LatestMessages(db, conversationID, s.historyLimit())
	if err != nil {
		return nil, nil, err
	}
	s.decode(history)

	userMsg, err = repo.CreateMessage(db, conversationID, domain.SenderUser, s.Codec.Encode(cleaned))
	if err != nil {
		return nil, nil, err
	}
	userMsg.Content = cleaned

	if total == 0 {
		if uerr := repo.UpdateConversationTopic(ctx, db, conversationID, userID, deriveTopic(cleaned)); uerr != nil {
			// Topic derivation is cosmetic; the exchange proceeds.
			span.AddEvent("topic derivation failed")
		}
	}

	reply, err := s.Completer.Complete(ctx, history, cleaned)
	if err != nil {
		return userMsg, nil, err
	}

	reply = sanitize.Clean(reply)
	if reply == "" {
		reply = "..."
	}
	if utf8.RuneCountInString(reply) > sanitize.MaxMessageLen {
		reply = string([]rune(reply)[:sanitize.MaxMessageLen])
	}

	aiMsg, err = repo.CreateMessage(db, conversationID, domain.SenderAI, s.Codec.Encode(reply))
	if err != nil {
		return userMsg, nil, err
	}
	aiMsg.Content = reply
	return userMsg, aiMsg, nil
}

// VerifyOwnership checks that the conversation exists and belongs to userID.
// Missing and foreign conversations collapse into ErrConversationNotFound.
// Transport code must call this before emitting any conversation-derived
// metadata (counts, timestamps, ETags).
func (s *MessageService) VerifyOwnership(ctx context.Context, userID, conversationID string) error {
	_, err := repo.GetConversation(ctx, s.DB, conversationID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrConversationNotFound
	}
	return err
}

func (s *MessageService) ensureOwned(ctx context.Context, userID, conversationID string) error {
	return s.VerifyOwnership(ctx, userID, conversationID)
}

func (s *MessageService) historyLimit() int {
	if s.HistoryLimit > 0 {
		return s.HistoryLimit
	}
	return 10
}

// decode replaces stored tokens with plaintext in place.
func (s *MessageService) decode(items []domain.Message) {
	for i := range items {
		items[i].Content = s.Codec.Decode(items[i].Content)
	}
}

// deriveTopic builds a conversation topic from the first prompt: the leading
// topicRunes runes, with an ellipsis when the prompt was longer.
func deriveTopic(prompt string) string {
	runes := []rune(prompt)
	if len(runes) <= topicRunes {
		return prompt
	}
	return string(runes[:topicRunes]) + "..."
}
