package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// App is a distributable application owning releases and API keys.
// The slug is the public identifier used in update URLs and is
// immutable after creation.
type App struct {
	ID        string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Slug string `gorm:"uniqueIndex;size:128;not null"`
	Name string `gorm:"size:256;not null"`

	Releases []Release `gorm:"foreignKey:AppID;constraint:OnDelete:CASCADE"`
	ApiKeys  []ApiKey  `gorm:"foreignKey:AppID;constraint:OnDelete:CASCADE"`
}

func (a *App) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidSlug reports whether s is a usable app slug: lowercase
// alphanumerics and hyphens, no leading/trailing/double hyphens.
func ValidSlug(s string) bool {
	return s != "" && len(s) <= 128 && slugPattern.MatchString(s)
}
