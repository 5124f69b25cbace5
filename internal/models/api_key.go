package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApiKey grants access to an app's private releases. Only the bcrypt
// hash of the key is stored; the plaintext is shown once at creation.
// A nil ExpiresAt means the key never expires.
type ApiKey struct {
	ID        string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time

	AppID       string `gorm:"size:36;index;not null"`
	Name        string `gorm:"size:256;not null"`
	KeyHash     string `gorm:"size:128;not null"`
	ExpiresAt   *time.Time
	CreatedByID string `gorm:"size:36"`
}

func (k *ApiKey) BeforeCreate(*gorm.DB) error {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	return nil
}

// Live reports whether the key is usable at time now.
func (k *ApiKey) Live(now time.Time) bool {
	return k.ExpiresAt == nil || k.ExpiresAt.After(now)
}
