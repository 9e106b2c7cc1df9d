package model

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the authenticated principal of a request. It is produced only
// by the authentication resolver and never persisted.
type Identity struct {
	ID    uuid.UUID
	Email string
}

// Claims is the signed payload of a bearer token. Immutable once issued.
type Claims struct {
	SubjectID uuid.UUID
	Email     string
	ExpiresAt time.Time
}

// Identity returns the principal described by the claims.
func (c Claims) Identity() Identity {
	return Identity{ID: c.SubjectID, Email: c.Email}
}
