// Package storage talks to the object store holding release binaries.
// The service never streams binary bytes itself: clients are redirected
// to presigned URLs so large downloads bypass the process entirely.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ObjectInfo describes one stored object from a listing.
type ObjectInfo struct {
	Key          string
	LastModified time.Time
}

// ObjectStore is the minimal object-storage surface the engine needs:
// issue time-limited transfer URLs and enumerate/delete stored keys
// for reconciliation.
type ObjectStore interface {
	// PresignDownload returns a time-limited GET URL for key. A
	// non-empty filename sets the attachment name presented to the
	// end client.
	PresignDownload(ctx context.Context, key, filename string, expires time.Duration) (string, error)
	// PresignUpload returns a time-limited PUT URL for key.
	PresignUpload(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
	// ListObjects enumerates every object in the bucket, following
	// pagination to exhaustion.
	ListObjects(ctx context.Context) ([]ObjectInfo, error)
	DeleteObject(ctx context.Context, key string) error
}

// BuildObjectKey computes the storage key for an uploaded release file.
// The uuid segment keeps concurrent uploads of like-named files for
// different releases from colliding, and re-uploads of the same logical
// file from silently overwriting unrelated objects.
func BuildObjectKey(channel, platform, version, filename string) string {
	return fmt.Sprintf("%s/%s/%s/%s-%s", channel, platform, version, uuid.NewString(), filename)
}
