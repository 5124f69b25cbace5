package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/cdennis121/Shipyard/internal/logger"
	"github.com/cdennis121/Shipyard/internal/services"
)

// RunCleanup triggers a reconciliation pass. Body {"dryRun": true}
// previews without deleting.
func RunCleanup(c *fiber.Ctx) error {
	var in struct {
		DryRun bool `json:"dryRun"`
	}
	// An empty body means a real run.
	_ = c.BodyParser(&in)

	report, err := Cleaner.Run(c.UserContext(), in.DryRun)
	if err != nil {
		if errors.Is(err, services.ErrCleanupRunning) {
			return fiber.NewError(fiber.StatusConflict, "cleanup already running")
		}
		logger.Errorf("cleanup: %v", err)
		return fiber.ErrInternalServerError
	}

	message := "Cleanup completed"
	if in.DryRun {
		message = "Dry run completed"
	}
	return c.JSON(fiber.Map{
		"message":       message,
		"orphanedFiles": report.OrphanedFiles,
		"deletedFiles":  report.DeletedFiles,
		"errors":        report.Errors,
	})
}

// PreviewCleanup is the read-only variant: it reports the orphan set
// and its size, never deleting anything.
func PreviewCleanup(c *fiber.Ctx) error {
	report, err := Cleaner.Run(c.UserContext(), true)
	if err != nil {
		if errors.Is(err, services.ErrCleanupRunning) {
			return fiber.NewError(fiber.StatusConflict, "cleanup already running")
		}
		logger.Errorf("cleanup preview: %v", err)
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{
		"orphanedFiles": report.OrphanedFiles,
		"count":         len(report.OrphanedFiles),
	})
}
