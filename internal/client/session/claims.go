package session

import (
	"errors"
	"fmt"

	"github.com/celar-labs/celar/internal/client/models"
	"github.com/golang-jwt/jwt/v5"
)

var ErrMalformedToken = errors.New("malformed session token")

type tokenClaims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// DecodeProfile reads the claims of token without checking its signature.
// The result is for display only; the server remains the authority.
func DecodeProfile(token string) (*models.Profile, error) {
	var c tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if c.ExpiresAt == nil || c.UserID == 0 {
		return nil, ErrMalformedToken
	}

	p := &models.Profile{
		UserID:    c.UserID,
		Email:     c.Email,
		Role:      c.Role,
		ExpiresAt: c.ExpiresAt.Time,
	}
	if c.IssuedAt != nil {
		p.IssuedAt = c.IssuedAt.Time
	}
	return p, nil
}
