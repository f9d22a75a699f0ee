// handlers/duel_routes.go
package handlers

import (
	"errors"
	"log"
	"strconv"

	"dino-duel-service/middleware"
	"dino-duel-service/models"
	"dino-duel-service/services"

	"github.com/gofiber/fiber/v2"
)

type moveSetRequest struct {
	Attacks  []models.Zone `json:"attacks"`
	Defenses []models.Zone `json:"defenses"`
}

type challengeRequest struct {
	OpponentID uint          `json:"opponentId"`
	Attacks    []models.Zone `json:"attacks"`
	Defenses   []models.Zone `json:"defenses"`
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrOwnership),
		errors.Is(err, services.ErrNotYourDuel),
		errors.Is(err, services.ErrInvalidTarget):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrInvalidMoveSet):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrRateLimitExceeded):
		return fiber.StatusTooManyRequests
	case errors.Is(err, services.ErrInvalidTransition):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

func fail(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	if status == fiber.StatusInternalServerError {
		log.Printf("[DUEL] internal error on %s: %v", c.Path(), err)
		return c.Status(status).JSON(fiber.Map{"error": "internal error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func paramUint(c *fiber.Ctx, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}

// SetupDuelRoutes registers the duel workflow. Every route is secured: the
// gateway must have established the caller's user id.
func SetupDuelRoutes(app *fiber.App, duelService *services.DuelService) {
	secured := app.Group("/duels/:dinoId", middleware.UserContextMiddleware())

	secured.Post("/challenge", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(uint)
		dinoID, ok := paramUint(c, "dinoId")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid dino id"})
		}

		var req challengeRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		moves := models.MoveSet{Attacks: req.Attacks, Defenses: req.Defenses}
		duel, err := duelService.CreateDuel(dinoID, req.OpponentID, moves, userID)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(duel)
	})

	secured.Post("/duels/:duelId/accept", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(uint)
		dinoID, ok := paramUint(c, "dinoId")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid dino id"})
		}
		duelID, ok := paramUint(c, "duelId")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid duel id"})
		}

		var req moveSetRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		moves := models.MoveSet{Attacks: req.Attacks, Defenses: req.Defenses}
		duel, err := duelService.AcceptDuel(duelID, dinoID, moves, userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(duel)
	})

	secured.Post("/duels/:duelId/reject", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(uint)
		dinoID, ok := paramUint(c, "dinoId")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid dino id"})
		}
		duelID, ok := paramUint(c, "duelId")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid duel id"})
		}

		duel, err := duelService.RejectDuel(duelID, dinoID, userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(duel)
	})

	secured.Post("/duels/:duelId/cancel", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(uint)
		dinoID, ok := paramUint(c, "dinoId")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid dino id"})
		}
		duelID, ok := paramUint(c, "duelId")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid duel id"})
		}

		duel, err := duelService.CancelDuel(duelID, dinoID, userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(duel)
	})

	secured.Get("/sent", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(uint)
		dinoID, ok := paramUint(c, "dinoId")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid dino id"})
		}

		duels, err := duelService.PendingSent(dinoID, userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(duels)
	})

	secured.Get("/received", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(uint)
		dinoID, ok := paramUint(c, "dinoId")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid dino id"})
		}

		duels, err := duelService.PendingReceived(dinoID, userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(duels)
	})

	secured.Get("/history", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(uint)
		dinoID, ok := paramUint(c, "dinoId")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid dino id"})
		}

		duels, err := duelService.History(dinoID, userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(duels)
	})

	secured.Get("/unseen", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(uint)
		dinoID, ok := paramUint(c, "dinoId")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid dino id"})
		}

		counts, err := duelService.UnseenCounts(dinoID, userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(counts)
	})

	secured.Post("/mark-seen", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(uint)
		dinoID, ok := paramUint(c, "dinoId")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid dino id"})
		}

		if err := duelService.MarkSeen(dinoID, userID); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	secured.Get("/daily-counters", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(uint)
		dinoID, ok := paramUint(c, "dinoId")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid dino id"})
		}

		counters, err := duelService.DailyCounters(dinoID, userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(counters)
	})
}
