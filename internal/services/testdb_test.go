package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cdennis121/Shipyard/internal/models"
)

// newTestDB opens an isolated in-memory database with the full schema.
// The pool is pinned to one connection so every query sees the same
// in-memory store.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.App{},
		&models.Release{},
		&models.ReleaseFile{},
		&models.ApiKey{},
		&models.RolloutTracking{},
		&models.DownloadStat{},
	))
	return db
}

func seedApp(t *testing.T, db *gorm.DB, slug string) *models.App {
	t.Helper()
	app := models.App{Slug: slug, Name: slug}
	require.NoError(t, db.Create(&app).Error)
	return &app
}

// seedRelease creates a published public windows/latest release;
// mutate adjusts fields before insert.
func seedRelease(t *testing.T, db *gorm.DB, appID string, mutate func(*models.Release)) *models.Release {
	t.Helper()
	release := models.Release{
		AppID:             appID,
		Version:           "2.1.0",
		Channel:           "latest",
		Platform:          "windows",
		StagingPercentage: 100,
		IsPublic:          true,
		Published:         true,
	}
	if mutate != nil {
		mutate(&release)
	}
	// Create replaces zero-valued fields carrying a default tag
	// (IsPublic=false, StagingPercentage=0) with the column default,
	// in both the row and the struct; capture the seeded values first
	// and re-assert them with a map-based update.
	isPublic, staging, published := release.IsPublic, release.StagingPercentage, release.Published
	require.NoError(t, db.Create(&release).Error)
	require.NoError(t, db.Model(&release).Updates(map[string]any{
		"is_public":          isPublic,
		"staging_percentage": staging,
		"published":          published,
	}).Error)
	release.IsPublic, release.StagingPercentage, release.Published = isPublic, staging, published
	return &release
}

func seedFile(t *testing.T, db *gorm.DB, releaseID, filename, storageKey string, position int) *models.ReleaseFile {
	t.Helper()
	file := models.ReleaseFile{
		ReleaseID:  releaseID,
		Filename:   filename,
		StorageKey: storageKey,
		SHA512:     "abc123digest",
		Size:       10485760,
		Position:   position,
	}
	require.NoError(t, db.Create(&file).Error)
	return &file
}
