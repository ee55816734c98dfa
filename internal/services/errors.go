// Package services defines the business logic for accounts, conversations,
// and messages. This file centralizes common service-level error values so
// that they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes is performed at
// the handler layer. Note that ErrConversationNotFound covers both a missing
// conversation and one owned by another user: the two cases must stay
// indistinguishable so endpoints cannot be used to probe for foreign
// conversation ids.
package services

import "errors"

var (
	// ErrConversationNotFound indicates that the requested conversation does
	// not exist or is not accessible to the current user.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrInvalidSender is returned when a message append names a sender
	// outside the allowed set ("user" or "ai").
	ErrInvalidSender = errors.New("sender must be 'user' or 'ai'")

	// ErrInvalidTopic is returned when a conversation create/rename carries
	// an unusable topic.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrEmailExists is returned when registering with an email that is
	// already taken.
	ErrEmailExists = errors.New("email already registered")

	// ErrInvalidCredentials is returned on login with an unknown email or a
	// wrong password; the two are deliberately not distinguished.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidInput is returned when registration input fails basic shape
	// checks (missing email, short password).
	ErrInvalidInput = errors.New("invalid input")
)
