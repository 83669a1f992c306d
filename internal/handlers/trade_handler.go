package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/user/stocksim/internal/ledger"
)

// TradeRequest is the JSON body for buy and sell. Quantity arrives as a
// string, form-style; the ledger's parser owns the numeric validation.
type TradeRequest struct {
	Symbol   string `json:"symbol"`
	Quantity string `json:"quantity"`
}

// DepositRequest is the JSON body for a cash deposit.
type DepositRequest struct {
	Amount string `json:"amount"`
}

// Buy purchases shares at the current quote price.
func (h *Handler) Buy(c *fiber.Ctx) error {
	userID, ok := userIDFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}

	req := new(TradeRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}

	quantity, err := ledger.ParseQuantity(req.Quantity)
	if err != nil {
		return ledgerError(c, err)
	}

	result, err := h.engine.Buy(c.Context(), userID, req.Symbol, quantity)
	if err != nil {
		log.Printf("Buy failed for user %s (%s x%s): %v", userID, req.Symbol, req.Quantity, err)
		return ledgerError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// Sell sells shares at the current quote price.
func (h *Handler) Sell(c *fiber.Ctx) error {
	userID, ok := userIDFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}

	req := new(TradeRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}

	quantity, err := ledger.ParseQuantity(req.Quantity)
	if err != nil {
		return ledgerError(c, err)
	}

	result, err := h.engine.Sell(c.Context(), userID, req.Symbol, quantity)
	if err != nil {
		log.Printf("Sell failed for user %s (%s x%s): %v", userID, req.Symbol, req.Quantity, err)
		return ledgerError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// Deposit adds cash to the account and returns the new balance.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	userID, ok := userIDFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}

	req := new(DepositRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}

	amount, err := ledger.ParseAmount(req.Amount)
	if err != nil {
		return ledgerError(c, err)
	}

	newCash, err := h.engine.Deposit(c.Context(), userID, amount)
	if err != nil {
		log.Printf("Deposit failed for user %s: %v", userID, err)
		return ledgerError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"cash": newCash})
}

// History returns the user's full transaction log, oldest first.
func (h *Handler) History(c *fiber.Ctx) error {
	userID, ok := userIDFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token"})
	}

	history, err := h.engine.History(c.Context(), userID)
	if err != nil {
		log.Printf("Error fetching history for user %s: %v", userID, err)
		return ledgerError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(history)
}
