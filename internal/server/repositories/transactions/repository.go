// Package transactions stores the payment ledger.
package transactions

import (
	"context"

	"github.com/celar-labs/celar/internal/server/models"
)

// Repository is an append-only store of transactions.
type Repository interface {
	// Create assigns the next id to tx and stores it.
	Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)

	// ListByUser returns the user's transactions in insertion order.
	// A user with no transactions gets an empty, non-nil slice.
	ListByUser(ctx context.Context, userID int64) ([]models.Transaction, error)
}
