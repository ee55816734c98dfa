// Package services implements the application layer: conversation lifecycle.
//
// This file implements the ConversationService, which manages the lifecycle
// of conversations. It validates and normalizes topics, enforces ownership
// rules, and coordinates repository operations for creating, listing,
// renaming, and deleting conversations. Topic handling is intentionally
// minimal here because automatic topic derivation happens in MessageService
// on the first user message.
//
// Service-level errors (e.g., ErrConversationNotFound) are returned for
// predictable cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-ai-chat/internal/domain"
)

// DefaultTopic is the placeholder topic for conversations created without
// one. MessageService replaces it with a derived topic on the first message.
const DefaultTopic = "New Conversation"

// ConversationRepo defines the repository contract required by
// ConversationService. Implementations are responsible for persistence of
// conversation aggregates.
type ConversationRepo interface {
	// CreateConversation inserts a new conversation row for the given user.
	CreateConversation(ctx context.Context, db *gorm.DB, userID, topic string) (*domain.Conversation, error)

	// ListConversations returns all conversations belonging to the user,
	// most recent first.
	ListConversations(ctx context.Context, db *gorm.DB, userID string) ([]domain.Conversation, error)

	// GetConversation fetches a conversation by ID ensuring it belongs to
	// the user.
	GetConversation(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Conversation, error)

	// UpdateConversationTopic renames a conversation (only if it belongs to
	// the user).
	UpdateConversationTopic(ctx context.Context, db *gorm.DB, id, userID, topic string) error

	// DeleteConversation removes a conversation and all of its messages.
	DeleteConversation(ctx context.Context, db *gorm.DB, id, userID string) error
}

// ConversationService provides conversation-level operations such as
// creating, listing, renaming, and deleting conversations. It enforces topic
// rules and ownership constraints.
type ConversationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the conversation repository used by this service.
	Repo ConversationRepo

	// TopicMaxLen caps stored topics by rune length.
	TopicMaxLen int
	// TopicLocale selects the casing rules applied to user-supplied topics.
	TopicLocale language.Tag
}

// NewConversationService constructs a ConversationService with sane defaults
// for topic handling.
func NewConversationService(db *gorm.DB, r ConversationRepo) *ConversationService {
	return &ConversationService{
		DB:          db,
		Repo:        r,
		TopicMaxLen: 100,
		TopicLocale: language.English,
	}
}

// Create inserts a new conversation owned by userID with the provided topic.
// Topics are normalized, title-cased, and clipped; a blank topic falls back
// to DefaultTopic.
func (s *ConversationService) Create(ctx context.Context, userID, topic string) (*domain.Conversation, error) {
	topic = normalizeTopic(topic)
	if topic == "" {
		topic = DefaultTopic
	} else {
		topic = cases.Title(s.locale()).String(topic)
	}
	return s.Repo.CreateConversation(ctx, s.DB, userID, s.clip(topic))
}

// List returns all conversations for a user, most recent first.
func (s *ConversationService) List(ctx context.Context, userID string) ([]domain.Conversation, error) {
	return s.Repo.ListConversations(ctx, s.DB, userID)
}

// Get fetches a single conversation, enforcing ownership. A missing or
// foreign conversation yields ErrConversationNotFound.
func (s *ConversationService) Get(ctx context.Context, userID, conversationID string) (*domain.Conversation, error) {
	c, err := s.Repo.GetConversation(ctx, s.DB, conversationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return c, nil
}

// UpdateTopic renames a conversation, ensuring it exists and belongs to the
// given user. A blank topic is rejected with ErrInvalidTopic.
func (s *ConversationService) UpdateTopic(ctx context.Context, userID, conversationID, topic string) error {
	topic = normalizeTopic(topic)
	if topic == "" {
		return ErrInvalidTopic
	}
	err := s.Repo.UpdateConversationTopic(ctx, s.DB, conversationID, userID, s.clip(topic))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrConversationNotFound
	}
	return err
}

// Delete removes a conversation and all of its messages.
func (s *ConversationService) Delete(ctx context.Context, userID, conversationID string) error {
	err := s.Repo.DeleteConversation(ctx, s.DB, conversationID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrConversationNotFound
	}
	return err
}

// clip truncates a topic to the configured maximum rune length.
func (s *ConversationService) clip(topic string) string {
	if s.TopicMaxLen > 0 && utf8.RuneCountInString(topic) > s.TopicMaxLen {
		return string([]rune(topic)[:s.TopicMaxLen])
	}
	return topic
}

func (s *ConversationService) locale() language.Tag {
	if s.TopicLocale == language.Und {
		return language.English
	}
	return s.TopicLocale
}

// normalizeTopic trims whitespace and collapses multiple spaces to one.
func normalizeTopic(s string) string {
	return topicSpaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// topicSpaceRE collapses consecutive whitespace to a single space.
var topicSpaceRE = regexp.MustCompile(`\s+`)
