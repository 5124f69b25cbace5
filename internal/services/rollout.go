package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cdennis121/Shipyard/internal/models"
)

// RolloutBucket maps a client identifier to a stable bucket in [0,100).
// FNV-1a is a fairness primitive here, not a security control: it only
// has to be deterministic and evenly spread.
func RolloutBucket(clientID string) int {
	h := fnv.New64a()
	h.Write([]byte(clientID))
	return int(h.Sum64() % 100)
}

// RolloutEligible reports whether a client falls inside the staged
// percentage. 0 admits nobody, 100 admits everybody.
func RolloutEligible(clientID string, stagingPercentage int) bool {
	return RolloutBucket(clientID) < stagingPercentage
}

// AssignRollout computes the client's eligibility against the release's
// current percentage and upserts the tracking row keyed on
// (releaseID, clientID). The upsert is atomic at the storage layer so a
// client racing its own retries cannot produce duplicate rows.
// Re-checks overwrite the stored decision: raising the percentage later
// flips previously-ineligible clients on their next check.
func AssignRollout(ctx context.Context, db *gorm.DB, releaseID, clientID string, stagingPercentage int) (bool, error) {
	eligible := RolloutEligible(clientID, stagingPercentage)

	row := models.RolloutTracking{
		ReleaseID: releaseID,
		ClientID:  clientID,
		Eligible:  eligible,
		CheckedAt: time.Now(),
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "release_id"}, {Name: "client_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"eligible":   eligible,
			"checked_at": row.CheckedAt,
		}),
	}).Create(&row).Error
	if err != nil {
		return false, fmt.Errorf("upsert rollout tracking: %w", err)
	}
	return eligible, nil
}
