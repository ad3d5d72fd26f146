package middleware

import (
	"log"
	"os"
	"strings"

	"quest-progression-system/services"

	"github.com/gofiber/fiber/v2"
)

// bearerToken pulls the token out of "Authorization: Bearer <token>".
func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader {
		// no "Bearer " prefix — accept the raw value
		token = authHeader
	}
	return strings.TrimSpace(token)
}

// AccessAuthMiddleware verifies the access token and attaches the caller's
// user id for handlers. Everything behind it trusts c.Locals("user_id").
func AccessAuthMiddleware() fiber.Handler {
	secret := os.Getenv("AT_SECRET")
	if secret == "" {
		log.Fatal("❌ AT_SECRET is not set — service cannot verify access tokens")
	}

	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authorization token missing",
			})
		}

		userID, err := services.ParseToken(token, secret)
		if err != nil {
			log.Printf("[AUTH] invalid access token for %s: %v", c.Path(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired token",
			})
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}

// RefreshAuthMiddleware verifies the refresh token and forwards both the
// user id and the raw token so the service can match it against the stored
// hash before rotating.
func RefreshAuthMiddleware() fiber.Handler {
	secret := os.Getenv("RT_SECRET")
	if secret == "" {
		log.Fatal("❌ RT_SECRET is not set — service cannot verify refresh tokens")
	}

	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "refresh token missing",
			})
		}

		userID, err := services.ParseToken(token, secret)
		if err != nil {
			log.Printf("[AUTH] invalid refresh token for %s: %v", c.Path(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired refresh token",
			})
		}

		c.Locals("user_id", userID)
		c.Locals("refresh_token", token)
		return c.Next()
	}
}
