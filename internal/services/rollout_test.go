package services

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cdennis121/Shipyard/internal/models"
)

// TestRolloutDeterminism verifies that eligibility is a pure function
// of (clientID, percentage) across repeated evaluations.
func TestRolloutDeterminism(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	percentages := []int{0, 1, 50, 99, 100}

	for i := 0; i < 1000; i++ {
		clientID := fmt.Sprintf("client-%d-%d", i, rng.Int63())
		for _, pct := range percentages {
			first := RolloutEligible(clientID, pct)
			for j := 0; j < 3; j++ {
				require.Equal(t, first, RolloutEligible(clientID, pct),
					"client %q flip-flopped at %d%%", clientID, pct)
			}
			switch pct {
			case 0:
				require.False(t, first, "0%% admitted client %q", clientID)
			case 100:
				require.True(t, first, "100%% rejected client %q", clientID)
			}
		}
	}
}

func TestRolloutBucketRange(t *testing.T) {
	t.Parallel()

	for i := 0; i < 1000; i++ {
		bucket := RolloutBucket(fmt.Sprintf("device-%d", i))
		require.GreaterOrEqual(t, bucket, 0)
		require.Less(t, bucket, 100)
	}
}

// TestAssignRolloutIdempotent checks that repeated checks by the same
// client against the same release keep a single tracking row with an
// unchanged decision.
func TestAssignRolloutIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	app := seedApp(t, db, "idempotent-app")
	release := seedRelease(t, db, app.ID, func(r *models.Release) {
		r.StagingPercentage = 50
	})

	clientID := "client-idempotent"
	first, err := AssignRollout(ctx, db, release.ID, clientID, release.StagingPercentage)
	require.NoError(t, err)
	second, err := AssignRollout(ctx, db, release.ID, clientID, release.StagingPercentage)
	require.NoError(t, err)
	require.Equal(t, first, second)

	var count int64
	require.NoError(t, db.Model(&models.RolloutTracking{}).
		Where("release_id = ? AND client_id = ?", release.ID, clientID).
		Count(&count).Error)
	require.EqualValues(t, 1, count)

	var row models.RolloutTracking
	require.NoError(t, db.Where("release_id = ? AND client_id = ?", release.ID, clientID).
		First(&row).Error)
	require.Equal(t, first, row.Eligible)
}

// TestAssignRolloutReevaluation verifies that a percentage change is
// picked up on the next check in both directions.
func TestAssignRolloutReevaluation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	app := seedApp(t, db, "reeval-app")
	release := seedRelease(t, db, app.ID, func(r *models.Release) {
		r.StagingPercentage = 10
	})

	// A client whose bucket sits between the two percentages flips in
	// both directions.
	clientID := clientWithBucketBetween(t, 10, 90)

	eligible, err := AssignRollout(ctx, db, release.ID, clientID, 10)
	require.NoError(t, err)
	require.False(t, eligible)

	eligible, err = AssignRollout(ctx, db, release.ID, clientID, 90)
	require.NoError(t, err)
	require.True(t, eligible)

	eligible, err = AssignRollout(ctx, db, release.ID, clientID, 10)
	require.NoError(t, err)
	require.False(t, eligible)

	var count int64
	require.NoError(t, db.Model(&models.RolloutTracking{}).
		Where("release_id = ?", release.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

// clientWithBucketBetween finds a client identifier whose rollout
// bucket falls in [lo, hi).
func clientWithBucketBetween(t *testing.T, lo, hi int) string {
	t.Helper()
	for i := 0; i < 10000; i++ {
		id := fmt.Sprintf("bucket-probe-%d", i)
		if b := RolloutBucket(id); b >= lo && b < hi {
			return id
		}
	}
	t.Fatalf("no client id found with bucket in [%d,%d)", lo, hi)
	return ""
}
