package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/user/stocksim/internal/ledger"
	"github.com/user/stocksim/internal/portfolio"
	"github.com/user/stocksim/internal/quotes"
	"github.com/user/stocksim/internal/storage"
	ws "github.com/user/stocksim/internal/websocket"
)

// Handler carries the dependencies shared by all HTTP handlers.
type Handler struct {
	store    storage.Store
	engine   *ledger.Engine
	reporter *portfolio.Reporter
	quotes   quotes.Source
	hub      *ws.Hub
}

func New(store storage.Store, engine *ledger.Engine, reporter *portfolio.Reporter, source quotes.Source, hub *ws.Hub) *Handler {
	return &Handler{
		store:    store,
		engine:   engine,
		reporter: reporter,
		quotes:   source,
		hub:      hub,
	}
}

func userIDFromCtx(c *fiber.Ctx) (uuid.UUID, bool) {
	userID, ok := c.Locals("userID").(uuid.UUID)
	return userID, ok
}

// ledgerError maps each ledger failure to a status code and its own
// specific message, so the client always knows what to correct.
func ledgerError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidQuantity),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrNoSuchHolding),
		errors.Is(err, ledger.ErrInsufficientShares):
		status = fiber.StatusBadRequest
	case errors.Is(err, ledger.ErrUnknownSymbol):
		status = fiber.StatusNotFound
	case errors.Is(err, ledger.ErrStorageFailure):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to complete the operation, no changes were made"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
