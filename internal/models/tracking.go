package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RolloutTracking is the persisted rollout decision for one client
// against one release. The (release, client) pair is unique; repeated
// checks overwrite eligibility using the release's current percentage.
type RolloutTracking struct {
	ID        string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time

	ReleaseID string    `gorm:"size:36;not null;uniqueIndex:uniq_release_client"`
	ClientID  string    `gorm:"size:256;not null;uniqueIndex:uniq_release_client"`
	Eligible  bool      `gorm:"not null"`
	CheckedAt time.Time `gorm:"not null"`
}

func (t *RolloutTracking) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Download stat event types.
const (
	EventCheck    = "check"
	EventDownload = "download"
)

// DownloadStat is an append-only telemetry row recorded when a client
// checks for or downloads an update. Rows are never updated; they go
// away only with their release.
type DownloadStat struct {
	ID        string    `gorm:"primaryKey;size:36"`
	CreatedAt time.Time `gorm:"index"`

	AppID     string `gorm:"size:36;index;not null"`
	ReleaseID string `gorm:"size:36;index;not null"`
	Type      string `gorm:"size:16;not null"`
	Platform  string `gorm:"size:64"`
	Arch      string `gorm:"size:32"`
	IP        string `gorm:"size:64"`
	UserAgent string `gorm:"size:512"`
}

func (s *DownloadStat) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
