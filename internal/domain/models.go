// Package domain defines the persistence models for users, conversations,
// and messages. These types are mapped with GORM and form the core data
// layer of the chat application.
package domain

import "time"

// Sender values for Message.Sender.
const (
	SenderUser = "user"
	SenderAI   = "ai"
)

// User is an authenticated account. Users are referenced by conversations
// but never mutated by the conversation pipeline.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Email: login identity; unique.
//   - PasswordHash: bcrypt hash, never serialized.
//   - CreatedAt: timestamp managed by GORM.
type User struct {
	ID           string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Email        string    `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string    `json:"-"          gorm:"type:varchar(128);not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Conversation is a named thread owned by exactly one user. The topic is
// mutable (renamed explicitly, or derived from the first message); the
// creation timestamp is not.
//
// Rows are hard-deleted: conversation deletion must leave no stale rows
// behind, so there is no soft-deletion marker.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the owner; indexed for efficient retrieval.
//   - Topic: human-readable conversation topic.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Conversation struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;index:idx_user_conversations"`
	Topic     string    `json:"topic"      gorm:"type:varchar(255);not null;default:'New Conversation'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// Message is a single turn within a conversation, authored either by the
// "user" or the "ai". Content is stored in codec-encoded form; every
// client-facing consumer only ever sees the decoded text (the service layer
// decodes before returning).
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - ConversationID: foreign key to the owning conversation (indexed).
//   - Sender: "user" or "ai" (enforced by DB constraint).
//   - Content: message text, possibly codec-encoded at rest.
//   - Timestamp: server-assigned UTC insert time; ordering key within a
//     conversation (ascending, ID as tiebreak).
type Message struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	ConversationID string    `json:"conversation_id" gorm:"type:char(36);not null;index:idx_conversation_msgs,priority:1"`
	Sender         string    `json:"sender"          gorm:"type:varchar(16);not null;check:sender IN ('user','ai')"`
	Content        string    `json:"content"         gorm:"type:text;not null"`
	Timestamp      time.Time `json:"timestamp"       gorm:"index:idx_conversation_msgs,priority:2"`

	// Conversation is the parent thread. Messages are cascade-deleted
	// when their conversation is removed.
	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }
