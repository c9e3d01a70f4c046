package conversation

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/wmtb/internal/models"
)

// Fixed replies shown when a submission does not produce an acknowledgment.
const (
	ErrorReply        = "❌ Error adding transaction"
	NetworkErrorReply = "❌ Network error"
	RecordedReply     = "✅ Recorded"
)

// NewPending starts a submission for text. The message is already in the
// submitting state: the user entry is visible before any network round-trip.
func NewPending(text string, now time.Time) models.PendingMessage {
	return models.PendingMessage{
		ID:          "pending-" + uuid.NewString(),
		Text:        strings.TrimSpace(text),
		SubmittedAt: now,
		State:       models.PendingSubmitting,
	}
}

// Confirm records the server acknowledgment for a pending message.
func Confirm(p models.PendingMessage, reply string, now time.Time) models.PendingMessage {
	p.State = models.PendingConfirmed
	p.Reply = reply
	p.RepliedAt = now
	return p
}

// Fail records a failed submission with one of the fixed error replies.
// The user entry stays visible; failure is terminal for this message.
func Fail(p models.PendingMessage, reply string, now time.Time) models.PendingMessage {
	p.State = models.PendingFailed
	p.Reply = reply
	p.RepliedAt = now
	return p
}

// AppendOptimistic returns a new conversation with the pending user entry at
// the head and, once a reply exists, the reply entry above it. The input
// slice is not modified. Messages still being composed are not shown.
func AppendOptimistic(conversation []models.ConversationEntry, p models.PendingMessage, f Format) []models.ConversationEntry {
	if p.State == models.PendingComposing || p.State == "" {
		return append([]models.ConversationEntry(nil), conversation...)
	}

	head := make([]models.ConversationEntry, 0, 2)
	if p.HasReply() {
		head = append(head, models.ConversationEntry{
			ID:        p.ID + systemSuffix,
			Text:      p.Reply,
			IsUser:    false,
			Timestamp: f.stamp(p.RepliedAt),
		})
	}
	head = append(head, models.ConversationEntry{
		ID:        p.ID + userSuffix,
		Text:      p.Text,
		IsUser:    true,
		Timestamp: f.stamp(p.SubmittedAt),
	})

	out := make([]models.ConversationEntry, 0, len(head)+len(conversation))
	out = append(out, head...)
	return append(out, conversation...)
}

// Compose renders confirmed entries with the pending messages in front.
// pending is in submission order, so the newest submission ends up first.
func Compose(confirmed []models.ConversationEntry, pending []models.PendingMessage, f Format) []models.ConversationEntry {
	out := append([]models.ConversationEntry(nil), confirmed...)
	for _, p := range pending {
		out = AppendOptimistic(out, p, f)
	}
	return out
}
