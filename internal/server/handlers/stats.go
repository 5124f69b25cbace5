package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/cdennis121/Shipyard/internal/database"
	"github.com/cdennis121/Shipyard/internal/logger"
	"github.com/cdennis121/Shipyard/internal/services"
)

// RolloutStats reports staged-rollout assignment counts and recent
// download activity for one release.
func RolloutStats(c *fiber.Ctx) error {
	releaseID := c.Params("releaseId")

	stats, err := services.GetRolloutStats(c.UserContext(), database.DB, releaseID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return fiber.ErrNotFound
		}
		logger.Errorf("rollout stats for %s: %v", releaseID, err)
		return fiber.ErrInternalServerError
	}
	return c.JSON(stats)
}
