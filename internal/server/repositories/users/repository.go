// Package users declares the credential store contract and its SQL and
// in-memory implementations.
package users

import (
	"context"

	"github.com/celar-labs/celar/internal/server/models"
)

// Repository persists user records.
type Repository interface {
	// Create inserts user and fills in its ID. A taken email yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail returns common.ErrorNotFound when no user has that email.
	// Emails are compared exactly as stored.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	GetByID(ctx context.Context, id int64) (*models.User, error)
}
