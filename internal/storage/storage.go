// Package storage defines the durable-state contract the ledger runs on:
// one cash balance per user, a (user, symbol) -> shares mapping, and an
// append-only transaction log. Implementations must make ExecuteTrade
// atomic; everything else is a plain read or a single-row write.
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/user/stocksim/internal/models"
)

var (
	// ErrAccountNotFound means no cash balance row exists for the user.
	ErrAccountNotFound = errors.New("storage: account not found")
	// ErrHoldingNotFound means the user has never traded the symbol.
	ErrHoldingNotFound = errors.New("storage: holding not found")
	// ErrInsufficientFunds is returned when a debit would take cash below zero.
	ErrInsufficientFunds = errors.New("storage: insufficient funds")
	// ErrInsufficientShares is returned when a sell would take shares below zero.
	ErrInsufficientShares = errors.New("storage: insufficient shares")
	// ErrUsernameTaken is returned by CreateUser on a duplicate username.
	ErrUsernameTaken = errors.New("storage: username already taken")
)

type Store interface {
	// CreateUser registers a user and their account with the given starting
	// cash as one atomic unit. Returns ErrUsernameTaken on duplicates.
	CreateUser(ctx context.Context, username, passwordHash string, startingCash decimal.Decimal) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error

	GetAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error)
	// Deposit atomically credits the account and returns the new balance.
	// The amount must already be validated as positive by the caller.
	Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)

	// GetHolding returns ErrHoldingNotFound when the user has no row for
	// the symbol. A zero-share row is a valid result, not an error.
	GetHolding(ctx context.Context, userID uuid.UUID, symbol string) (*models.Holding, error)
	ListHoldings(ctx context.Context, userID uuid.UUID) ([]*models.Holding, error)

	// ExecuteTrade applies one trade as a single atomic unit: adjust cash by
	// t.CashDelta(), adjust the symbol's holding by t.Quantity (creating it
	// from zero on a first buy), and append t to the transaction log. On any
	// failure no partial effect remains. Guard violations surface as
	// ErrInsufficientFunds / ErrInsufficientShares / ErrAccountNotFound.
	// The store fills in t.ID and t.CreatedAt on success.
	ExecuteTrade(ctx context.Context, t *models.Transaction) error

	// ListTransactions returns the user's full trade history in insertion
	// order (oldest first).
	ListTransactions(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error)
}
