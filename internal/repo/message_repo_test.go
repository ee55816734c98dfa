package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-ai-chat/internal/domain"
)

func TestCreateMessage_AssignsIDAndTimestamp(t *testing.T) {
	db := newTestDB(t, &domain.Conversation{}, &domain.Message{})
	c, _ := CreateConversation(context.Background(), db, "u1", "t")

	before := time.Now().UTC().Add(-time.Second)
	m, err := CreateMessage(db, c.ID, domain.SenderUser, "hello")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.ID == "" || m.ConversationID != c.ID || m.Sender != domain.SenderUser {
		t.Fatalf("message = %+v", m)
	}
	if m.Timestamp.Before(before) || m.Timestamp.After(time.Now().UTC().Add(time.Second)) {
		t.Fatalf("timestamp not server-assigned UTC: %v", m.Timestamp)
	}
}

func TestCreateMessage_RejectsBadSender(t *testing.T) {
	db := newTestDB(t, &domain.Conversation{}, &domain.Message{})
	c, _ := CreateConversation(context.Background(), db, "u1", "t")

	if _, err := CreateMessage(db, c.ID, "robot", "hi"); err == nil {
		t.Fatal("check constraint should reject unknown sender")
	}
}

func TestListMessages_ChronologicalOrder(t *testing.T) {
	db := newTestDB(t, &domain.Conversation{}, &domain.Message{})
	c, _ := CreateConversation(context.Background(), db, "u1", "t")

	var ids []string
	for i := 0; i < 5; i++ {
		m, err := CreateMessage(db, c.ID, domain.SenderUser, "m")
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		ids = append(ids, m.ID)
		// Spread timestamps so ordering is not left to the ID tiebreak.
		db.Model(&domain.Message{}).Where("id = ?", m.ID).
			Update("timestamp", time.Now().UTC().Add(time.Duration(i)*time.Second))
	}

	out, err := ListMessages(db, c.ID, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("len = %d", len(out))
	}
	for i, m := range out {
		if m.ID != ids[i] {
			t.Fatalf("position %d: got %s want %s", i, m.ID, ids[i])
		}
	}
}

func TestLatestMessages_WindowInChronologicalOrder(t *testing.T) {
	db := newTestDB(t, &domain.Conversation{}, &domain.Message{})
	c, _ := CreateConversation(context.Background(), db, "u1", "t")

	base := time.Now().UTC()
	var ids []string
	for i := 0; i < 6; i++ {
		m, _ := CreateMessage(db, c.ID, domain.SenderUser, "m")
		ids = append(ids, m.ID)
		db.Model(&domain.Message{}).Where("id = ?", m.ID).
			Update("timestamp", base.Add(time.Duration(i)*time.Second))
	}

	out, err := LatestMessages(db, c.ID, 3)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("len = %d", len(out))
	}
	// Most recent three, oldest of them first.
	want := ids[3:]
	for i, m := range out {
		if m.ID != want[i] {
			t.Fatalf("position %d: got %s want %s", i, m.ID, want[i])
		}
	}
}

func TestCountMessages(t *testing.T) {
	db := newTestDB(t, &domain.Conversation{}, &domain.Message{})
	c, _ := CreateConversation(context.Background(), db, "u1", "t")

	n, err := CountMessages(db, c.ID)
	if err != nil || n != 0 {
		t.Fatalf("empty count = %d, %v", n, err)
	}
	_, _ = CreateMessage(db, c.ID, domain.SenderUser, "a")
	_, _ = CreateMessage(db, c.ID, domain.SenderAI, "b")

	n, err = CountMessages(db, c.ID)
	if err != nil || n != 2 {
		t.Fatalf("count = %d, %v", n, err)
	}
}

func TestListMessagesPage(t *testing.T) {
	db := newTestDB(t, &domain.Conversation{}, &domain.Message{})
	c, _ := CreateConversation(context.Background(), db, "u1", "t")

	base := time.Now().UTC()
	var ids []string
	for i := 0; i < 7; i++ {
		m, _ := CreateMessage(db, c.ID, domain.SenderUser, "m")
		ids = append(ids, m.ID)
		db.Model(&domain.Message{}).Where("id = ?", m.ID).
			Update("timestamp", base.Add(time.Duration(i)*time.Second))
	}

	page2, err := ListMessagesPage(db, c.ID, 3, 3)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page2) != 3 {
		t.Fatalf("len = %d", len(page2))
	}
	for i, m := range page2 {
		if m.ID != ids[3+i] {
			t.Fatalf("position %d: got %s want %s", i, m.ID, ids[3+i])
		}
	}

	tail, err := ListMessagesPage(db, c.ID, 6, 3)
	if err != nil || len(tail) != 1 {
		t.Fatalf("tail = %d items, %v", len(tail), err)
	}
}
