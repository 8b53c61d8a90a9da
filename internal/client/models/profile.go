// Package models holds the client-side data types: the profile decoded from
// a session token, ledger rows returned by the server, and the local wallet
// mirror kept in SQLite.
package models

import "time"

// Profile is what the client reads from its session token for display. It is
// decoded without verifying the signature.
type Profile struct {
	UserID    int64
	Email     string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
