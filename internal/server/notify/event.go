// Package notify delivers payment events to external sinks: an HTTP
// webhook and an S3 archive. Delivery is asynchronous and best effort.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/celar-labs/celar/internal/server/models"
	"github.com/google/uuid"
)

// EventPaymentSent is emitted after a payment is written to the ledger.
const EventPaymentSent = "payment_sent"

// Event is the JSON document sent to every sink.
type Event struct {
	ID          string      `json:"id"`
	Type        string      `json:"event"`
	OccurredAt  time.Time   `json:"occurredAt"`
	Transaction Transaction `json:"transaction"`
}

// Transaction is the wire view of a ledger entry. Amount is rendered as a
// JSON number with the exact decimal digits.
type Transaction struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"userId"`
	Recipient string      `json:"recipient"`
	Amount    json.Number `json:"amount"`
	Currency  string      `json:"currency"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewPaymentSent builds the event for a successful payment.
func NewPaymentSent(tx *models.Transaction) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       EventPaymentSent,
		OccurredAt: time.Now().UTC(),
		Transaction: Transaction{
			ID:        tx.ID,
			UserID:    tx.UserID,
			Recipient: tx.Recipient,
			Amount:    json.Number(tx.Amount.String()),
			Currency:  tx.Currency,
			Timestamp: tx.CreatedAt,
		},
	}
}

// Notifier sends a single event to one sink.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}
