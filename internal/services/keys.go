package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/cdennis121/Shipyard/internal/models"
)

// VerifyKey reports whether any live key of the app matches the
// presented plaintext. Expired keys are excluded in the query so a
// matching hash on a dead key can never authorize. Comparison goes
// through bcrypt, which never short-circuits on prefix equality.
func VerifyKey(ctx context.Context, db *gorm.DB, appID, plaintext string) (bool, error) {
	var keys []models.ApiKey
	err := db.WithContext(ctx).
		Where("app_id = ? AND (expires_at IS NULL OR expires_at > ?)", appID, time.Now()).
		Find(&keys).Error
	if err != nil {
		return false, fmt.Errorf("load api keys: %w", err)
	}

	for _, k := range keys {
		if bcrypt.CompareHashAndPassword([]byte(k.KeyHash), []byte(plaintext)) == nil {
			return true, nil
		}
	}
	return false, nil
}

// MintKey creates an API key for an app and returns the plaintext
// exactly once; only the bcrypt hash is persisted. A nil expiresAt
// makes the key permanent.
func MintKey(ctx context.Context, db *gorm.DB, appID, name string, expiresAt *time.Time, createdByID string) (string, *models.ApiKey, error) {
	plaintext := "suk_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash api key: %w", err)
	}

	key := models.ApiKey{
		AppID:       appID,
		Name:        name,
		KeyHash:     string(hash),
		ExpiresAt:   expiresAt,
		CreatedByID: createdByID,
	}
	if err := db.WithContext(ctx).Create(&key).Error; err != nil {
		return "", nil, fmt.Errorf("create api key: %w", err)
	}
	return plaintext, &key, nil
}
