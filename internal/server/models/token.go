package models

import "time"

// Token is an opaque bearer credential bound to one user. It is usable while
// it is not revoked and the current time is before ExpiresAt. Tokens are
// never deleted; logout only flips Revoked.
type Token struct {
	Token     string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// ValidAt reports whether the token may be used at instant now.
func (t *Token) ValidAt(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
