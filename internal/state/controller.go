// Package state implements the conversation-view state controller for API
// consumers that render the chat screen. It is a pure reducer
// over explicit events: transport code translates server responses into
// events, Apply folds them into the view state, and the caller renders the
// result. The controller never performs I/O.
//
// Sequencing rules live here rather than in the server pipeline: at most one
// send may be in flight per conversation, older-page loads are ignored while
// a load is pending or when no more pages remain, and a failed send restores
// the draft so the user can edit and retry.
package state

import "github.com/tbourn/go-ai-chat/internal/domain"

// View is the renderable state of the conversation screen.
type View struct {
	// Conversations is the sidebar list, most recent first.
	Conversations []domain.Conversation

	// ActiveID is the selected conversation, "" when none.
	ActiveID string

	// Messages holds the loaded window in chronological order.
	Messages []domain.Message

	// Page is the highest (oldest) history page loaded so far; 0 before the
	// first load completes.
	Page int

	// Total and HasMore mirror the server's pagination metadata.
	Total   int64
	HasMore bool

	// Loading is set between requesting a page and its PageLoaded event.
	Loading bool

	// Typing indicates the assistant reply is pending.
	Typing bool

	// Sending guards against concurrent sends in the same conversation.
	Sending bool

	// Draft is the composer text, restored by SendFailed.
	Draft string

	// ScrollToBottom is a one-shot render hint set by MessageAppended and
	// cleared by the next event.
	ScrollToBottom bool
}

// Event mutates a View via Apply. Implementations are plain data.
type Event interface{ isEvent() }

// ConversationSelected switches the active conversation and resets the
// message window; the caller is expected to request page 1 next.
type ConversationSelected struct{ ID string }

// PageLoaded delivers one server page. Page 1 replaces the window; a later
// page prepends its (older) block ahead of what is already loaded.
type PageLoaded struct {
	Page     int
	Messages []domain.Message
	Total    int64
	HasMore  bool
}

// MessageAppended adds a message at the tail (own send echo or assistant
// reply).
type MessageAppended struct{ Message domain.Message }

// TypingToggled sets or clears the assistant-typing indicator.
type TypingToggled struct{ On bool }

// SendStarted marks a send in flight; the composer is cleared optimistically.
type SendStarted struct{}

// SendCompleted clears the in-flight send after the server confirmed it.
type SendCompleted struct{}

// SendFailed clears the in-flight send and restores the draft for editing.
type SendFailed struct{ Draft string }

// ConversationCreated inserts a new conversation at the head of the list and
// selects it.
type ConversationCreated struct{ Conversation domain.Conversation }

// ConversationDeleted removes a conversation; deleting the active one clears
// the message window.
type ConversationDeleted struct{ ID string }

func (ConversationSelected) isEvent() {}
func (PageLoaded) isEvent()           {}
func (MessageAppended) isEvent()      {}
func (TypingToggled) isEvent()        {}
func (SendStarted) isEvent()          {}
func (SendCompleted) isEvent()        {}
func (SendFailed) isEvent()           {}
func (ConversationCreated) isEvent()  {}
func (ConversationDeleted) isEvent()  {}

// Apply folds one event into the view and returns the updated view. The
// input is not mutated beyond slice reuse; callers treat the return value as
// the new state.
func Apply(v View, e Event) View {
	v.ScrollToBottom = false

	switch ev := e.(type) {
	case ConversationSelected:
		v.ActiveID = ev.ID
		v.Messages = nil
		v.Page = 0
		v.Total = 0
		// Assume more history until page 1 reports otherwise; Loading keeps
		// CanLoadOlder false in the meantime.
		v.HasMore = true
		v.Loading = true
		v.Typing = false
		v.Sending = false

	case PageLoaded:
		v.Loading = false
		v.Total = ev.Total
		v.HasMore = ev.HasMore
		if ev.Page <= 1 {
			v.Messages = append([]domain.Message(nil), ev.Messages...)
			v.Page = 1
		} else {
			// Older block goes in front, keeping chronological order.
			merged := make([]domain.Message, 0, len(ev.Messages)+len(v.Messages))
			merged = append(merged, ev.Messages...)
			merged = append(merged, v.Messages...)
			v.Messages = merged
			v.Page = ev.Page
		}

	case MessageAppended:
		v.Messages = append(v.Messages, ev.Message)
		v.Total++
		v.ScrollToBottom = true

	case TypingToggled:
		v.Typing = ev.On

	case SendStarted:
		v.Sending = true
		v.Draft = ""

	case SendCompleted:
		v.Sending = false
		v.Typing = false

	case SendFailed:
		v.Sending = false
		v.Typing = false
		v.Draft = ev.Draft

	case ConversationCreated:
		v.Conversations = append([]domain.Conversation{ev.Conversation}, v.Conversations...)
		v.ActiveID = ev.Conversation.ID
		v.Messages = nil
		v.Page = 0
		v.Total = 0
		v.HasMore = false

	case ConversationDeleted:
		kept := v.Conversations[:0]
		for _, c := range v.Conversations {
			if c.ID != ev.ID {
				kept = append(kept, c)
			}
		}
		v.Conversations = kept
		if v.ActiveID == ev.ID {
			v.ActiveID = ""
			v.Messages = nil
			v.Page = 0
			v.Total = 0
			v.HasMore = false
			v.Typing = false
			v.Sending = false
		}
	}

	return v
}

// CanLoadOlder reports whether a request for the next (older) page should be
// issued. Duplicate requests while one is pending, and requests past the
// last page, are suppressed.
func CanLoadOlder(v View) bool {
	return v.ActiveID != "" && !v.Loading && v.HasMore
}

// CanSend reports whether a new send may start in the active conversation.
func CanSend(v View) bool {
	return v.ActiveID != "" && !v.Sending
}
