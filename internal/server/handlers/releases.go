package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cdennis121/Shipyard/internal/database"
	"github.com/cdennis121/Shipyard/internal/logger"
	"github.com/cdennis121/Shipyard/internal/models"
	"github.com/cdennis121/Shipyard/internal/services"
)

// RegisterReleaseFile attaches an uploaded object to a release. The
// position counter fixes primary-file ordering explicitly instead of
// relying on row insertion order.
func RegisterReleaseFile(c *fiber.Ctx) error {
	releaseID := c.Params("id")

	var in struct {
		Filename   string `json:"filename"`
		StorageKey string `json:"storageKey"`
		SHA512     string `json:"sha512"`
		Size       int64  `json:"size"`
		Arch       string `json:"arch"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	if in.Filename == "" || in.StorageKey == "" || in.SHA512 == "" || in.Size <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}

	var release models.Release
	if err := database.DB.First(&release, "id = ?", releaseID).Error; err != nil {
		return fiber.ErrNotFound
	}

	var maxPos int
	database.DB.Model(&models.ReleaseFile{}).
		Where("release_id = ?", releaseID).
		Select("COALESCE(MAX(position), -1)").Scan(&maxPos)

	file := models.ReleaseFile{
		ReleaseID:  releaseID,
		Filename:   in.Filename,
		StorageKey: in.StorageKey,
		SHA512:     in.SHA512,
		Size:       in.Size,
		Arch:       in.Arch,
		Position:   maxPos + 1,
	}
	if err := database.DB.Create(&file).Error; err != nil {
		logger.Errorf("register file %s for release %s: %v", in.Filename, releaseID, err)
		return fiber.ErrInternalServerError
	}
	return c.Status(fiber.StatusCreated).JSON(file)
}

// CreateReleaseKey mints an API key for the release's app. The
// plaintext appears in this response and nowhere else, ever.
func CreateReleaseKey(c *fiber.Ctx) error {
	releaseID := c.Params("id")

	var in struct {
		Name          string `json:"name"`
		ExpiresInDays int    `json:"expiresInDays"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	if in.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}

	var release models.Release
	if err := database.DB.First(&release, "id = ?", releaseID).Error; err != nil {
		return fiber.ErrNotFound
	}

	var expiresAt *time.Time
	if in.ExpiresInDays > 0 {
		t := time.Now().AddDate(0, 0, in.ExpiresInDays)
		expiresAt = &t
	}

	var createdByID string
	if user, ok := c.Locals("user").(*models.User); ok {
		createdByID = user.ID
	}

	plaintext, key, err := services.MintKey(c.UserContext(), database.DB, release.AppID, in.Name, expiresAt, createdByID)
	if err != nil {
		logger.Errorf("mint key for app %s: %v", release.AppID, err)
		return fiber.ErrInternalServerError
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":        key.ID,
		"name":      key.Name,
		"key":       plaintext,
		"expiresAt": key.ExpiresAt,
	})
}

// ListReleaseKeys lists the release's app keys without their hashes.
func ListReleaseKeys(c *fiber.Ctx) error {
	releaseID := c.Params("id")

	var release models.Release
	if err := database.DB.First(&release, "id = ?", releaseID).Error; err != nil {
		return fiber.ErrNotFound
	}

	var keys []models.ApiKey
	if err := database.DB.
		Where("app_id = ?", release.AppID).
		Order("created_at DESC").
		Find(&keys).Error; err != nil {
		logger.Errorf("list keys for app %s: %v", release.AppID, err)
		return fiber.ErrInternalServerError
	}

	out := make([]fiber.Map, 0, len(keys))
	for _, k := range keys {
		out = append(out, fiber.Map{
			"id":        k.ID,
			"name":      k.Name,
			"expiresAt": k.ExpiresAt,
			"createdAt": k.CreatedAt,
		})
	}
	return c.JSON(out)
}

// DeleteRelease removes a release: stored objects first (best effort,
// reconciliation catches stragglers), then the rows cascade.
func DeleteRelease(c *fiber.Ctx) error {
	releaseID := c.Params("id")

	var release models.Release
	if err := database.DB.First(&release, "id = ?", releaseID).Error; err != nil {
		return fiber.ErrNotFound
	}

	Cleaner.DeleteReleaseObjects(c.UserContext(), releaseID)

	if err := database.DB.Where("release_id = ?", releaseID).Delete(&models.ReleaseFile{}).Error; err != nil {
		logger.Errorf("delete files for release %s: %v", releaseID, err)
		return fiber.ErrInternalServerError
	}
	if err := database.DB.Where("release_id = ?", releaseID).Delete(&models.RolloutTracking{}).Error; err != nil {
		logger.Errorf("delete tracking for release %s: %v", releaseID, err)
		return fiber.ErrInternalServerError
	}
	if err := database.DB.Where("release_id = ?", releaseID).Delete(&models.DownloadStat{}).Error; err != nil {
		logger.Errorf("delete stats for release %s: %v", releaseID, err)
		return fiber.ErrInternalServerError
	}
	if err := database.DB.Delete(&release).Error; err != nil {
		logger.Errorf("delete release %s: %v", releaseID, err)
		return fiber.ErrInternalServerError
	}
	return c.SendStatus(fiber.StatusNoContent)
}
