package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/cdennis121/Shipyard/internal/logger"
	"github.com/cdennis121/Shipyard/internal/models"
	"github.com/cdennis121/Shipyard/internal/storage"
)

// downloadURLTTL is how long issued download URLs stay valid.
const downloadURLTTL = time.Hour

// UpdateQuery carries everything an update-check or download request
// supplies: routing parameters, the extracted credential (empty if none
// was presented), the rollout client identifier (empty disables rollout
// gating), and telemetry attributes.
type UpdateQuery struct {
	AppSlug   string
	Channel   string
	Platform  string
	ClientID  string
	Key       string
	IP        string
	UserAgent string
}

// Manifest is the wire document describing the current release.
// Optional fields carry omitempty so they vanish from the payload
// entirely when unset; updater clients treat key presence as a signal.
type Manifest struct {
	Version           string         `yaml:"version"`
	ReleaseDate       string         `yaml:"releaseDate"`
	ReleaseName       string         `yaml:"releaseName,omitempty"`
	ReleaseNotes      string         `yaml:"releaseNotes,omitempty"`
	Path              string         `yaml:"path"`
	SHA512            string         `yaml:"sha512"`
	StagingPercentage int            `yaml:"stagingPercentage"`
	Files             []ManifestFile `yaml:"files"`
}

type ManifestFile struct {
	URL    string `yaml:"url"`
	SHA512 string `yaml:"sha512"`
	Size   int64  `yaml:"size"`
	Arch   string `yaml:"arch,omitempty"`
}

// Encode renders the manifest in its wire format.
func (m *Manifest) Encode() ([]byte, error) {
	return yaml.Marshal(m)
}

// ResolveManifest selects the latest eligible published release for the
// query and assembles its manifest. Outcomes other than success are the
// sentinels in errors.go; anything else is an internal fault.
func ResolveManifest(ctx context.Context, db *gorm.DB, q UpdateQuery) (*Manifest, error) {
	app, err := findAppBySlug(ctx, db, q.AppSlug)
	if err != nil {
		return nil, err
	}

	// Latest published release for the triple, by release date. No
	// isPublic filter here: private releases are resolved too, then
	// gated by key verification.
	var release models.Release
	err = db.WithContext(ctx).
		Where("app_id = ? AND channel = ? AND platform = ? AND published = ?",
			app.ID, q.Channel, q.Platform, true).
		Order("release_date DESC").
		First(&release).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query release %s/%s/%s: %w", q.AppSlug, q.Channel, q.Platform, err)
	}

	files, err := loadReleaseFiles(ctx, db, release.ID)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNotFound
	}

	// Authorization runs before rollout assignment and telemetry: a
	// caller with no rights learns nothing about staging status.
	if err := authorizeRelease(ctx, db, app.ID, &release, q.Key); err != nil {
		return nil, err
	}

	if q.ClientID != "" {
		eligible, err := AssignRollout(ctx, db, release.ID, q.ClientID, release.StagingPercentage)
		if err != nil {
			return nil, err
		}
		if !eligible {
			return nil, ErrNotEligible
		}
	}

	recordStat(db, models.DownloadStat{
		AppID:     app.ID,
		ReleaseID: release.ID,
		Type:      models.EventCheck,
		Platform:  q.Platform,
		IP:        q.IP,
		UserAgent: q.UserAgent,
	})

	return buildManifest(&release, files), nil
}

// ResolveDownload maps a literal filename within an app's namespace to
// a time-limited retrieval URL. Authorization and telemetry follow the
// same rules as the manifest path with event type "download"; rollout
// gating does not apply to direct file fetches.
func ResolveDownload(ctx context.Context, db *gorm.DB, store storage.ObjectStore, q UpdateQuery, filename string) (string, error) {
	app, err := findAppBySlug(ctx, db, q.AppSlug)
	if err != nil {
		return "", err
	}

	// Filenames are unique per app, not globally: scope the lookup to
	// the app's releases.
	var file models.ReleaseFile
	err = db.WithContext(ctx).
		Where("filename = ? AND release_id IN (?)",
			filename,
			db.Model(&models.Release{}).Select("id").Where("app_id = ?", app.ID)).
		First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query release file %s/%s: %w", q.AppSlug, filename, err)
	}

	var release models.Release
	if err := db.WithContext(ctx).First(&release, "id = ?", file.ReleaseID).Error; err != nil {
		return "", fmt.Errorf("load release %s: %w", file.ReleaseID, err)
	}
	if !release.Published {
		return "", ErrNotFound
	}

	if err := authorizeRelease(ctx, db, app.ID, &release, q.Key); err != nil {
		return "", err
	}

	recordStat(db, models.DownloadStat{
		AppID:     app.ID,
		ReleaseID: release.ID,
		Type:      models.EventDownload,
		Platform:  release.Platform,
		Arch:      file.Arch,
		IP:        q.IP,
		UserAgent: q.UserAgent,
	})

	url, err := store.PresignDownload(ctx, file.StorageKey, file.Filename, downloadURLTTL)
	if err != nil {
		return "", fmt.Errorf("presign download %s: %w", file.StorageKey, err)
	}
	return url, nil
}

func findAppBySlug(ctx context.Context, db *gorm.DB, slug string) (*models.App, error) {
	var app models.App
	err := db.WithContext(ctx).Where("slug = ?", slug).First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query app %s: %w", slug, err)
	}
	return &app, nil
}

// loadReleaseFiles returns a release's files in insertion order; the
// first one is the primary file.
func loadReleaseFiles(ctx context.Context, db *gorm.DB, releaseID string) ([]models.ReleaseFile, error) {
	var files []models.ReleaseFile
	err := db.WithContext(ctx).
		Where("release_id = ?", releaseID).
		Order("position ASC, created_at ASC").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("load files for release %s: %w", releaseID, err)
	}
	return files, nil
}

// authorizeRelease gates access to private releases. Public releases
// pass unconditionally; private ones require a presented key matching a
// live ApiKey of the owning app.
func authorizeRelease(ctx context.Context, db *gorm.DB, appID string, release *models.Release, key string) error {
	if release.IsPublic {
		return nil
	}
	if key == "" {
		return ErrKeyRequired
	}
	ok, err := VerifyKey(ctx, db, appID, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrKeyInvalid
	}
	return nil
}

// recordStat appends a telemetry row. The write is fire-and-forget: it
// uses a fresh context so it completes even when the caller has
// disconnected, and a failure is logged rather than failing the
// request.
func recordStat(db *gorm.DB, stat models.DownloadStat) {
	if err := db.WithContext(context.Background()).Create(&stat).Error; err != nil {
		logger.Errorf("record %s stat for release %s: %v", stat.Type, stat.ReleaseID, err)
	}
}

func buildManifest(release *models.Release, files []models.ReleaseFile) *Manifest {
	primary := files[0]
	m := &Manifest{
		Version:           release.Version,
		ReleaseDate:       release.ReleaseDate.UTC().Format(time.RFC3339),
		ReleaseName:       release.Name,
		ReleaseNotes:      release.Notes,
		Path:              primary.Filename,
		SHA512:            primary.SHA512,
		StagingPercentage: release.StagingPercentage,
		Files:             make([]ManifestFile, 0, len(files)),
	}
	for _, f := range files {
		m.Files = append(m.Files, ManifestFile{
			URL:    f.Filename,
			SHA512: f.SHA512,
			Size:   f.Size,
			Arch:   f.Arch,
		})
	}
	return m
}
