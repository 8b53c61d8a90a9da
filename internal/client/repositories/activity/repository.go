// Package activity keeps the client's offline mirror of wallet balances and
// recent activity, per user.
package activity

import (
	"context"

	"github.com/celar-labs/celar/internal/client/models"
	"github.com/shopspring/decimal"
)

// RecentLimit is the number of activity rows shown by default.
const RecentLimit = 10

// DefaultBalances are seeded the first time a user signs in on this device.
var DefaultBalances = []models.Balance{
	{Currency: "USD", Amount: decimal.RequireFromString("5280.42")},
	{Currency: "EUR", Amount: decimal.RequireFromString("1250.00")},
	{Currency: "BTC", Amount: decimal.RequireFromString("0.0345")},
}

type Repository interface {
	Balances(ctx context.Context, userID int64) ([]models.Balance, error)
	// SeedDefaults stores DefaultBalances for userID unless it already has
	// balances. It reports whether anything was written.
	SeedDefaults(ctx context.Context, userID int64) (bool, error)
	Record(ctx context.Context, a *models.Activity) error
	// Recent returns the newest activity first.
	Recent(ctx context.Context, userID int64, limit int) ([]models.Activity, error)
}
