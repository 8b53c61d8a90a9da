// Package refreshtokens declares the repository contract for the opaque
// refresh tokens issued next to access tokens.
package refreshtokens

import (
	"context"
	"time"

	"github.com/celar-labs/celar/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID that expires at now+validity.
	Create(ctx context.Context, userID int64, token string, validity time.Duration) error

	// Find returns common.ErrorNotFound when the token is absent. Expired
	// tokens are still returned; the caller checks Expires.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a single token and returns common.ErrorNotFound when
	// nothing was removed, which lets rotation detect a token that was
	// consumed concurrently.
	Delete(ctx context.Context, token string) error
}
