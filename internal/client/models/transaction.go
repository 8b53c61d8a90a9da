package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one ledger row as returned by GET /transactions.
type Transaction struct {
	Recipient string          `json:"recipient"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Timestamp time.Time       `json:"timestamp"`
}
