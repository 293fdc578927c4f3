package models

import (
	"time"

	"github.com/google/uuid"
)

// IssuedToken is a signed session token with its expiry
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Claims are the verified contents of a session token
type Claims struct {
	UserID    uuid.UUID
	Email     string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}
