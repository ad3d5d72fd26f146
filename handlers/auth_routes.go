package handlers

import (
	"errors"

	"quest-progression-system/middleware"
	"quest-progression-system/services"
	"quest-progression-system/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App, authService *services.AuthService) {
	auth := app.Group("/auth")

	// 🔓 Public routes
	auth.Post("/register", func(c *fiber.Ctx) error {
		var req services.RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		tokens, err := authService.Register(req)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "User created successfully",
			"tokens":  tokens,
		})
	})

	auth.Post("/login", func(c *fiber.Ctx) error {
		var req services.LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		tokens, err := authService.Login(req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"tokens": tokens})
	})

	// 🔐 Refresh flow uses the refresh secret, not the access secret
	auth.Post("/refresh-tokens", middleware.RefreshAuthMiddleware(), func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		refreshToken := c.Locals("refresh_token").(string)
		tokens, err := authService.RefreshTokens(userID, refreshToken)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"tokens": tokens})
	})

	// 🔐 Secured routes
	secured := auth.Group("/", middleware.AccessAuthMiddleware())

	secured.Post("/logout", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		if err := authService.Logout(userID); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Logged out successfully"})
	})

	secured.Get("/get-user", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		user, err := authService.GetUser(userID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(user)
	})

	secured.Put("/update-stats", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var req services.UpdateStatsRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		user, err := authService.UpdateStats(req, userID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"message": "Stat points updated successfully",
			"user":    user,
		})
	})

	secured.Put("/avatar", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		fileHeader, err := c.FormFile("avatar")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file is required"})
		}

		url, err := utils.UploadAvatar(fileHeader)
		if err != nil {
			if errors.Is(err, utils.ErrInvalidAvatar) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "avatar upload failed"})
		}

		if err := authService.SetAvatarURL(userID, url); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"message":    "Avatar updated successfully",
			"avatar_url": url,
		})
	})
}
