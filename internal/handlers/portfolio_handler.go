package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// Portfolio returns the user's current valuation: every non-zero holding
// priced at the live quote, plus cash and the combined total.
func (h *Handler) Portfolio(c *fiber.Ctx) error {
	userID, ok := userIDFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}

	valuation, err := h.reporter.Valuation(c.Context(), userID)
	if err != nil {
		log.Printf("Error computing valuation for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute portfolio valuation"})
	}
	return c.Status(fiber.StatusOK).JSON(valuation)
}
