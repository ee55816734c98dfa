// Package services implements the application layer: accounts and sessions.
//
// This file implements registration and login against the users table.
// Passwords are stored as bcrypt hashes; successful calls return a signed
// session token that the HTTP auth middleware verifies on every request.
package services

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tbourn/go-ai-chat/internal/auth"
	"github.com/tbourn/go-ai-chat/internal/domain"
	"github.com/tbourn/go-ai-chat/internal/repo"
)

const minPasswordLen = 8

// AuthService issues and validates account credentials.
type AuthService struct {
	DB        *gorm.DB
	JWTSecret string
	JWTExpiry time.Duration
}

// AuthResult carries the outcome of a successful register/login.
type AuthResult struct {
	Token string
	User  *domain.User
}

// NewAuthService constructs an AuthService.
func NewAuthService(db *gorm.DB, secret string, expiry time.Duration) *AuthService {
	return &AuthService{DB: db, JWTSecret: secret, JWTExpiry: expiry}
}

// Register creates an account and returns a fresh session token.
// Emails are lowercased and trimmed; passwords must be at least 8 characters.
func (s *AuthService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	password = strings.TrimSpace(password)
	if email == "" || !strings.Contains(email, "@") || len(password) < minPasswordLen {
		return nil, ErrInvalidInput
	}

	existing, err := repo.GetUserByEmail(ctx, s.DB, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := repo.CreateUser(ctx, s.DB, email, string(hash))
	if err != nil {
		return nil, err
	}
	return s.result(user)
}

// Login verifies credentials and returns a fresh session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := repo.GetUserByEmail(ctx, s.DB, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.result(user)
}

func (s *AuthService) result(user *domain.User) (*AuthResult, error) {
	token, err := auth.Sign(s.JWTSecret, user.ID, user.Email, s.JWTExpiry)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}
