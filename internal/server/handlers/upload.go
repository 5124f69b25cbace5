package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cdennis121/Shipyard/internal/logger"
	"github.com/cdennis121/Shipyard/internal/storage"
)

const uploadURLTTL = time.Hour

// CreateUploadURL hands out a presigned PUT URL for a release artifact.
// The caller pushes the bytes directly against the returned URL and
// then registers the file record separately; the service never relays
// binary payloads.
func CreateUploadURL(c *fiber.Ctx) error {
	var in struct {
		Filename    string `json:"filename"`
		ContentType string `json:"contentType"`
		Channel     string `json:"channel"`
		Platform    string `json:"platform"`
		Version     string `json:"version"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	if in.Filename == "" || in.ContentType == "" || in.Channel == "" || in.Platform == "" || in.Version == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}

	key := storage.BuildObjectKey(in.Channel, in.Platform, in.Version, in.Filename)
	url, err := Store.PresignUpload(c.UserContext(), key, in.ContentType, uploadURLTTL)
	if err != nil {
		logger.Errorf("presign upload %s: %v", key, err)
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{
		"uploadUrl":  url,
		"storageKey": key,
		"filename":   in.Filename,
	})
}
