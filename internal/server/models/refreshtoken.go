package models

import "time"

type RefreshToken struct {
	UserID  int64     `db:"user_id"`
	Token   string    `db:"token"`
	Expires time.Time `db:"expires_at"`
}
