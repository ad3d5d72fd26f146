package handlers

import (
	"errors"

	"quest-progression-system/services"

	"github.com/gofiber/fiber/v2"
)

// respondError maps domain error kinds onto HTTP statuses. Anything outside
// the taxonomy is a 500 with a generic body.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrOutOfRange):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrNotOwner):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrAlreadyCompleted), errors.Is(err, services.ErrConflict):
		status = fiber.StatusConflict
	}

	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "internal server error"
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
