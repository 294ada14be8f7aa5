package models

import "time"

// RefreshToken is a refresh-token session stored in PostgreSQL. Only the
// SHA-256 of the token is kept.
type RefreshToken struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	UserID    string     `json:"user_id" gorm:"size:24;index"`
	TokenHash string     `json:"-" gorm:"size:64;uniqueIndex"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"index"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Usable reports whether the session can still mint access tokens.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}
