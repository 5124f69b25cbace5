package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cdennis121/Shipyard/internal/models"
)

func TestGetRolloutStats(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	app := seedApp(t, db, "stats-app")
	release := seedRelease(t, db, app.ID, func(r *models.Release) {
		r.StagingPercentage = 25
	})

	require.NoError(t, db.Create(&models.RolloutTracking{
		ReleaseID: release.ID, ClientID: "c1", Eligible: true, CheckedAt: time.Now(),
	}).Error)
	require.NoError(t, db.Create(&models.RolloutTracking{
		ReleaseID: release.ID, ClientID: "c2", Eligible: false, CheckedAt: time.Now(),
	}).Error)

	require.NoError(t, db.Create(&models.DownloadStat{
		AppID: app.ID, ReleaseID: release.ID, Type: models.EventDownload, Platform: "windows",
	}).Error)
	// Check events do not count as downloads.
	require.NoError(t, db.Create(&models.DownloadStat{
		AppID: app.ID, ReleaseID: release.ID, Type: models.EventCheck, Platform: "windows",
	}).Error)

	stats, err := GetRolloutStats(ctx, db, release.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.TotalChecks)
	require.EqualValues(t, 1, stats.EligibleCount)
	require.Equal(t, 25, stats.StagingPercentage)
	require.Len(t, stats.DownloadHistory, 30)

	var total int
	for _, day := range stats.DownloadHistory {
		total += day.Count
	}
	require.Equal(t, 1, total)

	_, err = GetRolloutStats(ctx, db, "missing-release")
	require.ErrorIs(t, err, ErrNotFound)
}
