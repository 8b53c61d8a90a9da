package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a successful payment recorded in the ledger. Recipient and
// Currency are free text; Amount is always positive.
type Transaction struct {
	ID        int64           `db:"id"`
	UserID    int64           `db:"user_id"`
	Recipient string          `db:"recipient"`
	Amount    decimal.Decimal `db:"amount"`
	Currency  string          `db:"currency"`
	CreatedAt time.Time       `db:"created_at"`
}
