// Package conversation turns the confirmed transaction list and locally
// pending messages into the chat-style log shown to the user.
package conversation

import (
	"time"

	"github.com/bobmcallan/wmtb/internal/common"
	"github.com/bobmcallan/wmtb/internal/models"
)

const (
	userSuffix   = "-user"
	systemSuffix = "-system"
)

// Format controls how amounts and timestamps are rendered into entries.
type Format struct {
	Currency string
	Location *time.Location
}

// DefaultFormat renders TZS amounts in the host timezone.
func DefaultFormat() Format {
	return Format{Currency: "TZS", Location: time.Local}
}

func (f Format) stamp(t time.Time) string {
	return common.FormatClock(t, f.Location)
}

// SystemText is the acknowledgment shown under a confirmed transaction.
func (f Format) SystemText(tx models.Transaction) string {
	return "✅ " + tx.Category + ": " + common.FormatMoney(f.Currency, tx.Amount)
}

// Reconcile rebuilds the conversation from confirmed transactions. Each
// transaction yields a user entry then a system entry; the whole sequence is
// then reversed so the last input transaction's pair comes first, system
// entry ahead of its user entry. Entry IDs are "{id}-user" and "{id}-system".
func Reconcile(transactions []models.Transaction, f Format) []models.ConversationEntry {
	entries := make([]models.ConversationEntry, 0, 2*len(transactions))
	for _, tx := range transactions {
		ts := f.stamp(tx.CreatedAt)
		entries = append(entries,
			models.ConversationEntry{
				ID:        tx.ID + userSuffix,
				Text:      tx.Text(),
				IsUser:    true,
				Timestamp: ts,
			},
			models.ConversationEntry{
				ID:        tx.ID + systemSuffix,
				Text:      f.SystemText(tx),
				IsUser:    false,
				Timestamp: ts,
			},
		)
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries
}
