package auth

import (
	"testing"
	"time"
)

func TestSignParse_RoundTrip(t *testing.T) {
	token, err := Sign("secret", "user-1", "ada@example.com", time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	claims, err := Parse("secret", token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "ada@example.com" {
		t.Fatalf("claims = %+v", claims)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("subject = %q", claims.Subject)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	token, err := Sign("secret-a", "user-1", "a@b.com", time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := Parse("secret-b", token); err != ErrInvalidToken {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestParse_Expired(t *testing.T) {
	token, err := Sign("secret", "user-1", "a@b.com", -time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := Parse("secret", token); err != ErrInvalidToken {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestParse_Garbage(t *testing.T) {
	for _, in := range []string{"", "abc", "a.b.c", "Bearer xyz"} {
		if _, err := Parse("secret", in); err != ErrInvalidToken {
			t.Fatalf("Parse(%q) = %v; want ErrInvalidToken", in, err)
		}
	}
}
