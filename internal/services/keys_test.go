package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cdennis121/Shipyard/internal/models"
)

func TestMintKeyReturnsPlaintextOnce(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	app := seedApp(t, db, "mint-app")

	plaintext, key, err := MintKey(ctx, db, app.ID, "ci key", nil, "")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(plaintext, "suk_"))
	require.NotContains(t, key.KeyHash, plaintext, "stored hash must not embed the plaintext")
	require.Nil(t, key.ExpiresAt)

	var stored models.ApiKey
	require.NoError(t, db.First(&stored, "id = ?", key.ID).Error)
	require.Equal(t, key.KeyHash, stored.KeyHash)
}

func TestVerifyKeyMatch(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	app := seedApp(t, db, "verify-app")

	plaintext, _, err := MintKey(ctx, db, app.ID, "release key", nil, "")
	require.NoError(t, err)

	ok, err := VerifyKey(ctx, db, app.ID, plaintext)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = VerifyKey(ctx, db, app.ID, "suk_definitelywrong")
	require.NoError(t, err)
	require.False(t, ok)
}

// TestVerifyKeyExpired checks that an expired key never authorizes,
// even though its hash would match.
func TestVerifyKeyExpired(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	app := seedApp(t, db, "expired-app")

	plaintext, key, err := MintKey(ctx, db, app.ID, "short-lived", nil, "")
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&models.ApiKey{}).
		Where("id = ?", key.ID).Update("expires_at", past).Error)

	ok, err := VerifyKey(ctx, db, app.ID, plaintext)
	require.NoError(t, err)
	require.False(t, ok)
}

// TestVerifyKeyScopedToApp ensures one app's key grants nothing on
// another app.
func TestVerifyKeyScopedToApp(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	first := seedApp(t, db, "first-app")
	second := seedApp(t, db, "second-app")

	plaintext, _, err := MintKey(ctx, db, first.ID, "first key", nil, "")
	require.NoError(t, err)

	ok, err := VerifyKey(ctx, db, second.ID, plaintext)
	require.NoError(t, err)
	require.False(t, ok)
}
