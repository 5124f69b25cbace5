package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cdennis121/Shipyard/internal/database"
	"github.com/cdennis121/Shipyard/internal/models"
	"github.com/cdennis121/Shipyard/internal/services"
)

const tokenTTL = 24 * time.Hour

// Login exchanges operator credentials for a bearer token used by the
// management API.
func Login(c *fiber.Ctx) error {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}

	var user models.User
	if err := database.DB.Where("username = ?", in.Username).First(&user).Error; err != nil {
		return fiber.ErrUnauthorized
	}
	if !user.CheckPassword(in.Password) {
		return fiber.ErrUnauthorized
	}

	token, err := services.GenerateUserToken(user.ID, user.Role, tokenTTL)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"token": token})
}
