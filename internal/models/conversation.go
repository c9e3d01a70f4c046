package models

import "time"

// ConversationEntry is one rendered chat bubble. Entries are derived and
// rebuilt on every change; they are never mutated in place.
type ConversationEntry struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsUser    bool   `json:"is_user"`
	Timestamp string `json:"timestamp"`
}

// PendingState tracks a submitted message through its lifecycle.
type PendingState string

const (
	PendingComposing  PendingState = "composing"
	PendingSubmitting PendingState = "submitting"
	PendingConfirmed  PendingState = "confirmed"
	PendingFailed     PendingState = "failed"
)

// PendingMessage is a client-local message awaiting or holding a system reply.
// It lives only until the next successful transaction refresh supersedes it.
type PendingMessage struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	SubmittedAt time.Time    `json:"submitted_at"`
	State       PendingState `json:"state"`
	Reply       string       `json:"reply,omitempty"`
	RepliedAt   time.Time    `json:"replied_at,omitempty"`
}

// HasReply reports whether a system reply should be shown for the message.
func (p PendingMessage) HasReply() bool {
	return (p.State == PendingConfirmed || p.State == PendingFailed) && p.Reply != ""
}
