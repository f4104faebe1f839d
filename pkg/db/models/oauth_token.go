package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OAuthToken holds the single active Bling credential set. The table is
// replaced wholesale on every refresh, so at most one row should exist.
type OAuthToken struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	AccessToken  string    `gorm:"column:access_token;not null"`
	RefreshToken string    `gorm:"column:refresh_token;not null"`
	ExpiresAt    time.Time `gorm:"column:expires_at;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (t *OAuthToken) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TableName overrides the default pluralization.
func (OAuthToken) TableName() string {
	return "bling_oauth_tokens"
}

// ExpiresWithin reports whether the token expires inside the given buffer.
func (t OAuthToken) ExpiresWithin(buffer time.Duration, now time.Time) bool {
	return !t.ExpiresAt.After(now.Add(buffer))
}
