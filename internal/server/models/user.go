package models

import "time"

// Role is the kind of participant a user signed up as.
type Role string

const (
	RolePSP       Role = "psp"
	RoleDeveloper Role = "dev"
)

// ParseRole accepts only the enumerated roles.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RolePSP, RoleDeveloper:
		return r, true
	default:
		return "", false
	}
}

// User is a registered account. PasswordHash is a bcrypt hash, never the
// plaintext.
type User struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         Role      `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}
