package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/cdennis121/Shipyard/internal/logger"
	"github.com/cdennis121/Shipyard/internal/models"
	"github.com/cdennis121/Shipyard/internal/storage"
)

// ErrCleanupRunning is returned when a reconciliation pass is already
// in flight; passes never overlap.
var ErrCleanupRunning = fmt.Errorf("cleanup already running")

// CleanupReport lists what a reconciliation pass found and did. The
// three lists are disjoint views: every orphan is reported, the ones
// actually removed land in DeletedFiles, per-key failures in Errors.
type CleanupReport struct {
	OrphanedFiles []string `json:"orphanedFiles"`
	DeletedFiles  []string `json:"deletedFiles"`
	Errors        []string `json:"errors"`
}

// Reconciler diffs stored objects against ReleaseFile rows and removes
// the unreferenced ones. Only the stored-but-not-referenced direction
// is cleanup; a referenced-but-missing object is a fault to alert on,
// never something this code touches.
type Reconciler struct {
	db     *gorm.DB
	store  storage.ObjectStore
	minAge time.Duration
	mu     sync.Mutex
}

// NewReconciler creates a reconciler. minAge is the safety margin:
// objects younger than it are never treated as orphans, because an
// in-flight upload may not have its database row yet.
func NewReconciler(db *gorm.DB, store storage.ObjectStore, minAge time.Duration) *Reconciler {
	return &Reconciler{db: db, store: store, minAge: minAge}
}

// Run performs one reconciliation pass. In dry-run mode it only
// reports the orphan set. In execute mode each orphan is deleted
// independently; one failed delete is recorded and skipped, not fatal
// to the batch. Concurrent calls beyond the first get
// ErrCleanupRunning.
func (r *Reconciler) Run(ctx context.Context, dryRun bool) (*CleanupReport, error) {
	if !r.mu.TryLock() {
		return nil, ErrCleanupRunning
	}
	defer r.mu.Unlock()

	report := &CleanupReport{
		OrphanedFiles: []string{},
		DeletedFiles:  []string{},
		Errors:        []string{},
	}

	objects, err := r.store.ListObjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stored objects: %w", err)
	}

	var dbKeys []string
	if err := r.db.WithContext(ctx).Model(&models.ReleaseFile{}).Pluck("storage_key", &dbKeys).Error; err != nil {
		return nil, fmt.Errorf("load referenced keys: %w", err)
	}
	referenced := make(map[string]struct{}, len(dbKeys))
	for _, k := range dbKeys {
		referenced[k] = struct{}{}
	}

	cutoff := time.Now().Add(-r.minAge)
	for _, obj := range objects {
		if _, ok := referenced[obj.Key]; ok {
			continue
		}
		// Recently written objects may be uploads whose row has not
		// been registered yet; leave them for the next pass.
		if obj.LastModified.After(cutoff) {
			continue
		}
		report.OrphanedFiles = append(report.OrphanedFiles, obj.Key)
	}

	if dryRun {
		return report, nil
	}

	for _, key := range report.OrphanedFiles {
		// The listing may be stale: re-check the database immediately
		// before each delete so a row registered mid-pass keeps its
		// object.
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.ReleaseFile{}).
			Where("storage_key = ?", key).Count(&count).Error; err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("recheck %s: %v", key, err))
			continue
		}
		if count > 0 {
			continue
		}

		if err := r.store.DeleteObject(ctx, key); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("delete %s: %v", key, err))
			continue
		}
		report.DeletedFiles = append(report.DeletedFiles, key)
	}

	return report, nil
}

// DeleteReleaseObjects best-effort deletes every stored object of a
// release, ahead of the rows being removed. Failures are logged and
// left for reconciliation to pick up.
func (r *Reconciler) DeleteReleaseObjects(ctx context.Context, releaseID string) {
	var files []models.ReleaseFile
	if err := r.db.WithContext(ctx).Where("release_id = ?", releaseID).Find(&files).Error; err != nil {
		logger.Errorf("load files for release %s: %v", releaseID, err)
		return
	}
	for _, f := range files {
		if err := r.store.DeleteObject(ctx, f.StorageKey); err != nil {
			logger.Errorf("delete object %s for release %s: %v", f.StorageKey, releaseID, err)
		}
	}
}

// StartCleanupScheduler launches the unattended reconciliation loop.
// It runs in execute mode every interval until ctx is cancelled.
func StartCleanupScheduler(ctx context.Context, r *Reconciler, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runScheduledCleanup(ctx, r)
			}
		}
	}()
}

func runScheduledCleanup(ctx context.Context, r *Reconciler) {
	report, err := r.Run(ctx, false)
	if err != nil {
		logger.Errorf("scheduled cleanup: %v", err)
		return
	}
	logger.Infof("scheduled cleanup: %d orphaned, %d deleted, %d errors",
		len(report.OrphanedFiles), len(report.DeletedFiles), len(report.Errors))
	for _, e := range report.Errors {
		logger.Warnf("scheduled cleanup: %s", e)
	}
}
