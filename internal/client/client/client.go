package client

import (
	"context"

	"github.com/celar-labs/celar/internal/client/models"
	"github.com/shopspring/decimal"
)

// Tokens is the pair returned by login and refresh.
type Tokens struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type Client interface {
	Signup(ctx context.Context, email, password, role string) (int64, error)
	Login(ctx context.Context, email, password string) (*Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)
	Logout(ctx context.Context, refreshToken string) error
	Transactions(ctx context.Context, accessToken string) ([]models.Transaction, error)
	Send(ctx context.Context, accessToken, recipient string, amount decimal.Decimal, currency string) (int64, error)
}
