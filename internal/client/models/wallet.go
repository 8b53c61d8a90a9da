package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Balance struct {
	UserID   int64           `db:"user_id"`
	Currency string          `db:"currency"`
	Amount   decimal.Decimal `db:"amount"`
}

type ActivityStatus string

const (
	ActivityCompleted ActivityStatus = "completed"
	ActivityPending   ActivityStatus = "pending"
	ActivityFailed    ActivityStatus = "failed"
)

const ActivityTypeSend = "send"

// Activity is a locally recorded wallet action, successful or not.
type Activity struct {
	ID          int64           `db:"id"`
	UserID      int64           `db:"user_id"`
	Type        string          `db:"type"`
	Description string          `db:"description"`
	Amount      decimal.Decimal `db:"amount"`
	Currency    string          `db:"currency"`
	Status      ActivityStatus  `db:"status"`
	CreatedAt   time.Time       `db:"created_at"`
}
