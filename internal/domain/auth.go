package domain

import "time"

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

// Token represents issued authentication token metadata.
type Token struct {
	ID        string
	Value     string
	UserID    string
	ExpiresAt time.Time
	IssuedAt  time.Time
}
