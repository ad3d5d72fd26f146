package handlers

import (
	"strconv"

	"quest-progression-system/middleware"
	"quest-progression-system/models"
	"quest-progression-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupQuestRoutes(app *fiber.App, questService *services.QuestService, sweepService *services.SweepService) {
	quest := app.Group("/quest")

	// 🔓 Public routes
	quest.Get("/get-quests", func(c *fiber.Ctx) error {
		page, err := strconv.Atoi(c.Query("page", "1"))
		if err != nil {
			page = 1
		}
		result, err := questService.AllQuests(page)
		if err != nil {
			return respondError(c, err)
		}
		if result.Total == 0 {
			return c.JSON(fiber.Map{
				"message":     "No quests available",
				"total":       result.Total,
				"totalPages":  result.TotalPages,
				"currentPage": result.CurrentPage,
				"next":        result.Next,
				"previous":    result.Previous,
				"results":     result.Results,
			})
		}
		return c.JSON(result)
	})

	quest.Get("/get-quest/:id", func(c *fiber.Ctx) error {
		found, err := questService.QuestByID(c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"quest": found})
	})

	// Manual sweep trigger. The per-cycle marker makes a repeat call
	// within the same day a no-op.
	quest.Get("/refresh-quest", func(c *fiber.Ctx) error {
		sweepService.RunDailySweep()
		return c.JSON(fiber.Map{"message": "Daily quest refresh triggered"})
	})

	// 🔐 Secured routes — caller identity comes from the access token
	secured := quest.Group("/", middleware.AccessAuthMiddleware())

	secured.Post("/create", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req services.CreateQuestRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}

		created, err := questService.CreateQuest(req, userID)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":     "Quest created successfully",
			"createQuest": created,
		})
	})

	secured.Get("/user-quests", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		quests, err := questService.UserQuests(userID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"results": quests})
	})

	secured.Put("/update/:id", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req services.UpdateQuestRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}

		updated, err := questService.UpdateQuest(c.Params("id"), req, userID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"message":      "Quest updated successfully",
			"updatedQuest": updated,
		})
	})

	secured.Put("/update-status/:id", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Status models.QuestStatus `json:"status"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}

		result, err := questService.UpdateQuestStatus(c.Params("id"), req.Status, userID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"message":      result.Message,
			"updatedQuest": result.Quest,
			"updatedUser":  result.User,
		})
	})

	secured.Delete("/delete/:id", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		if err := questService.DeleteQuest(c.Params("id"), userID); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Quest deleted successfully"})
	})
}
