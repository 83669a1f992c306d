package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/user/stocksim/internal/quotes"
)

// Quote looks up the current price and display name for a symbol.
func (h *Handler) Quote(c *fiber.Ctx) error {
	symbol := quotes.Normalize(c.Params("symbol"))
	if symbol == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Symbol is required"})
	}

	quote, err := h.quotes.Lookup(c.Context(), symbol)
	if err != nil {
		if !errors.Is(err, quotes.ErrNotFound) {
			log.Printf("Quote lookup failed for %s: %v", symbol, err)
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown stock symbol"})
	}
	return c.Status(fiber.StatusOK).JSON(quote)
}
