package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cdennis121/Shipyard/internal/models"
)

// DayCount is one day of download activity.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// RolloutStats summarizes the persisted rollout decisions and recent
// download activity for a release.
type RolloutStats struct {
	TotalChecks       int64      `json:"totalChecks"`
	EligibleCount     int64      `json:"eligibleCount"`
	StagingPercentage int        `json:"stagingPercentage"`
	DownloadHistory   []DayCount `json:"downloadHistory"`
}

const historyDays = 30

// GetRolloutStats aggregates tracking rows and the last 30 days of
// download events for a release. Bucketing by day happens in Go so the
// query stays portable across backends.
func GetRolloutStats(ctx context.Context, db *gorm.DB, releaseID string) (*RolloutStats, error) {
	var release models.Release
	err := db.WithContext(ctx).First(&release, "id = ?", releaseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load release %s: %w", releaseID, err)
	}

	stats := &RolloutStats{StagingPercentage: release.StagingPercentage}

	if err := db.WithContext(ctx).Model(&models.RolloutTracking{}).
		Where("release_id = ?", releaseID).Count(&stats.TotalChecks).Error; err != nil {
		return nil, fmt.Errorf("count rollout checks for %s: %w", releaseID, err)
	}
	if err := db.WithContext(ctx).Model(&models.RolloutTracking{}).
		Where("release_id = ? AND eligible = ?", releaseID, true).
		Count(&stats.EligibleCount).Error; err != nil {
		return nil, fmt.Errorf("count eligible clients for %s: %w", releaseID, err)
	}

	since := time.Now().AddDate(0, 0, -historyDays+1).Truncate(24 * time.Hour)
	var events []models.DownloadStat
	if err := db.WithContext(ctx).
		Select("created_at").
		Where("release_id = ? AND type = ? AND created_at >= ?", releaseID, models.EventDownload, since).
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("load download events for %s: %w", releaseID, err)
	}

	perDay := make(map[string]int, historyDays)
	for _, e := range events {
		perDay[e.CreatedAt.UTC().Format("2006-01-02")]++
	}

	stats.DownloadHistory = make([]DayCount, 0, historyDays)
	for i := historyDays - 1; i >= 0; i-- {
		day := time.Now().UTC().AddDate(0, 0, -i).Format("2006-01-02")
		stats.DownloadHistory = append(stats.DownloadHistory, DayCount{Date: day, Count: perDay[day]})
	}
	return stats, nil
}
