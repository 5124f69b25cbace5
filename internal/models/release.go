package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Release is a single version of an app on one channel and platform.
// Version, channel and platform are opaque strings to the engine;
// ReleaseDate (not CreatedAt) is the ordering key for "latest".
type Release struct {
	ID        string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time

	AppID    string `gorm:"size:36;index;not null;uniqueIndex:uniq_app_ver_chan_plat"`
	Version  string `gorm:"size:128;not null;uniqueIndex:uniq_app_ver_chan_plat"`
	Channel  string `gorm:"size:64;not null;uniqueIndex:uniq_app_ver_chan_plat"`
	Platform string `gorm:"size:64;not null;uniqueIndex:uniq_app_ver_chan_plat"`

	Name  string `gorm:"size:256"`
	Notes string `gorm:"type:text"`

	// StagingPercentage gates staged rollout: a client is eligible iff
	// its rollout bucket falls below this value.
	StagingPercentage int  `gorm:"not null;default:100"`
	IsPublic          bool `gorm:"not null;default:true"`
	Published         bool `gorm:"not null;default:false"`

	ReleaseDate time.Time `gorm:"not null;index"`

	Files []ReleaseFile `gorm:"foreignKey:ReleaseID;constraint:OnDelete:CASCADE"`
}

func (r *Release) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.ReleaseDate.IsZero() {
		r.ReleaseDate = time.Now()
	}
	return nil
}

// ReleaseFile is one stored binary attached to a release. Position is
// the insertion counter; the file with the lowest position is the
// primary file used for the legacy single-file manifest fields.
// Filenames are unique within an app's download namespace, not
// globally, because updater clients request literal filenames.
type ReleaseFile struct {
	ID        string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time

	ReleaseID  string `gorm:"size:36;index;not null"`
	Filename   string `gorm:"size:512;not null;index"`
	StorageKey string `gorm:"size:1024;not null;uniqueIndex"`
	SHA512     string `gorm:"size:128;not null"`
	Size       int64  `gorm:"not null"`
	Arch       string `gorm:"size:32"`
	Position   int    `gorm:"not null;default:0"`
}

func (f *ReleaseFile) BeforeCreate(*gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
