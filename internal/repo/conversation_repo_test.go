package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-ai-chat/internal/domain"
)

// newTestDB opens a fresh shared in-memory SQLite database and migrates the
// given models.
func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestCreateAndGetConversation(t *testing.T) {
	db := newTestDB(t, &domain.Conversation{})
	ctx := context.Background()

	c, err := CreateConversation(ctx, db, "u1", "Topic A")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.ID == "" || c.UserID != "u1" || c.Topic != "Topic A" {
		t.Fatalf("created = %+v", c)
	}

	got, err := GetConversation(ctx, db, c.ID, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != c.ID {
		t.Fatalf("got %+v", got)
	}
}

func TestGetConversation_OwnershipScoped(t *testing.T) {
	db := newTestDB(t, &domain.Conversation{})
	ctx := context.Background()

	c, _ := CreateConversation(ctx, db, "owner", "t")

	// Another user's lookup must be indistinguishable from a missing row.
	if _, err := GetConversation(ctx, db, c.ID, "intruder"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign lookup: want ErrNotFound, got %v", err)
	}
	if _, err := GetConversation(ctx, db, uuid.NewString(), "owner"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing lookup: want ErrNotFound, got %v", err)
	}
}

func TestListConversations_MostRecentFirst(t *testing.T) {
	db := newTestDB(t, &domain.Conversation{})
	ctx := context.Background()

	first, _ := CreateConversation(ctx, db, "u1", "first")
	// Force distinct created_at values.
	db.Model(&domain.Conversation{}).Where("id = ?", first.ID).
		Update("created_at", first.CreatedAt.Add(-time.Second))
	second, _ := CreateConversation(ctx, db, "u1", "second")
	_, _ = CreateConversation(ctx, db, "someone-else", "hidden")

	out, err := ListConversations(ctx, db, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d", len(out))
	}
	if out[0].ID != second.ID {
		t.Fatalf("order wrong: %+v", out)
	}
}

func TestUpdateConversationTopic(t *testing.T) {
	db := newTestDB(t, &domain.Conversation{})
	ctx := context.Background()

	c, _ := CreateConversation(ctx, db, "u1", "old")
	if err := UpdateConversationTopic(ctx, db, c.ID, "u1", "new"); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := GetConversation(ctx, db, c.ID, "u1")
	if got.Topic != "new" {
		t.Fatalf("topic = %q", got.Topic)
	}

	if err := UpdateConversationTopic(ctx, db, c.ID, "intruder", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign rename: want ErrNotFound, got %v", err)
	}
}

func TestDeleteConversation_CascadesMessages(t *testing.T) {
	db := newTestDB(t, &domain.Conversation{}, &domain.Message{})
	ctx := context.Background()

	c, _ := CreateConversation(ctx, db, "u1", "t")
	for i := 0; i < 3; i++ {
		if _, err := CreateMessage(db, c.ID, domain.SenderUser, "m"); err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}

	if err := DeleteConversation(ctx, db, c.ID, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := GetConversation(ctx, db, c.ID, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("conversation still present: %v", err)
	}
	var left int64
	db.Model(&domain.Message{}).Where("conversation_id = ?", c.ID).Count(&left)
	if left != 0 {
		t.Fatalf("cascade left %d message rows", left)
	}
}

func TestDeleteConversation_ForeignIsNotFound(t *testing.T) {
	db := newTestDB(t, &domain.Conversation{}, &domain.Message{})
	ctx := context.Background()

	c, _ := CreateConversation(ctx, db, "owner", "t")
	if err := DeleteConversation(ctx, db, c.ID, "intruder"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	// Row untouched.
	if _, err := GetConversation(ctx, db, c.ID, "owner"); err != nil {
		t.Fatalf("owner lost the conversation: %v", err)
	}
}
