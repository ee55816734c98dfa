package repo

import (
	"context"
	"testing"

	"github.com/tbourn/go-ai-chat/internal/domain"
)

func TestCreateUser_AndGetByEmail(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	ctx := context.Background()

	u, err := CreateUser(ctx, db, "ada@example.com", "hash")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == "" || u.Email != "ada@example.com" {
		t.Fatalf("user = %+v", u)
	}

	got, err := GetUserByEmail(ctx, db, "ada@example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ID != u.ID {
		t.Fatalf("got = %+v", got)
	}
}

func TestGetUserByEmail_AbsentIsNilNil(t *testing.T) {
	db := newTestDB(t, &domain.User{})

	got, err := GetUserByEmail(context.Background(), db, "nobody@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("got = %+v; want nil", got)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	ctx := context.Background()

	if _, err := CreateUser(ctx, db, "dup@example.com", "h1"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := CreateUser(ctx, db, "dup@example.com", "h2"); err == nil {
		t.Fatal("unique index should reject duplicate email")
	}
}
