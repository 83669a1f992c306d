// Package ledger is the account ledger engine: it applies deposit, buy and
// sell operations to a user's cash balance, holdings and transaction log
// with per-user serialization and an all-or-nothing commit step.
package ledger

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/user/stocksim/internal/events"
	"github.com/user/stocksim/internal/models"
	"github.com/user/stocksim/internal/quotes"
	"github.com/user/stocksim/internal/storage"
)

// Engine coordinates the quote source and the store. Operations on the same
// user serialize on a per-user mutex; operations on different users run
// independently. The quote is always resolved before the lock is taken, so
// a slow feed never blocks other operations on the account.
type Engine struct {
	store     storage.Store
	quotes    quotes.Source
	publisher events.Publisher

	locks   map[uuid.UUID]*sync.Mutex
	locksMu sync.Mutex
}

func NewEngine(store storage.Store, source quotes.Source, publisher events.Publisher) *Engine {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Engine{
		store:     store,
		quotes:    source,
		publisher: publisher,
		locks:     make(map[uuid.UUID]*sync.Mutex),
	}
}

// accountLock returns the mutex for a user, creating it on first use.
// Entries are never evicted: the map holds one mutex per user ever seen,
// which stays small next to the user rows themselves.
func (e *Engine) accountLock(userID uuid.UUID) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()

	if _, exists := e.locks[userID]; !exists {
		e.locks[userID] = &sync.Mutex{}
	}
	return e.locks[userID]
}

// TradeResult confirms an executed trade. Price is the single quote value
// used for both the precondition check and the logged transaction.
type TradeResult struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	Symbol        string          `json:"symbol"`
	CompanyName   string          `json:"company_name"`
	Quantity      int64           `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	Total         decimal.Decimal `json:"total"`
}

// Deposit credits cash by a strictly positive amount and returns the new
// balance. Deposits are not trades and produce no transaction-log entry.
func (e *Engine) Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	mu := e.accountLock(userID)
	mu.Lock()
	defer mu.Unlock()

	newCash, err := e.store.Deposit(ctx, userID, amount)
	if err != nil {
		return decimal.Zero, storageFailure("deposit", err)
	}
	return newCash, nil
}

// Buy purchases quantity shares of symbol at the current quote price.
func (e *Engine) Buy(ctx context.Context, userID uuid.UUID, symbol string, quantity int64) (*TradeResult, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	quote, err := e.resolveQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	cost := quote.Price.Mul(decimal.NewFromInt(quantity))

	mu := e.accountLock(userID)
	mu.Lock()
	defer mu.Unlock()

	account, err := e.store.GetAccount(ctx, userID)
	if err != nil {
		return nil, storageFailure("read account", err)
	}
	if cost.GreaterThan(account.Cash) {
		return nil, ErrInsufficientFunds
	}

	t := &models.Transaction{
		UserID:      userID,
		Symbol:      quote.Symbol,
		CompanyName: quote.Name,
		Price:       quote.Price,
		Quantity:    quantity,
	}
	if err := e.commitTrade(ctx, t); err != nil {
		return nil, err
	}
	return tradeResult(t, cost), nil
}

// Sell sells quantity shares of symbol at the current quote price.
func (e *Engine) Sell(ctx context.Context, userID uuid.UUID, symbol string, quantity int64) (*TradeResult, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	quote, err := e.resolveQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	mu := e.accountLock(userID)
	mu.Lock()
	defer mu.Unlock()

	holding, err := e.store.GetHolding(ctx, userID, quote.Symbol)
	if err != nil {
		if errors.Is(err, storage.ErrHoldingNotFound) {
			return nil, ErrNoSuchHolding
		}
		return nil, storageFailure("read holding", err)
	}
	if holding.Shares == 0 {
		return nil, ErrNoSuchHolding
	}
	if quantity > holding.Shares {
		return nil, ErrInsufficientShares
	}

	t := &models.Transaction{
		UserID:      userID,
		Symbol:      quote.Symbol,
		CompanyName: quote.Name,
		Price:       quote.Price,
		Quantity:    -quantity,
	}
	if err := e.commitTrade(ctx, t); err != nil {
		return nil, err
	}
	proceeds := quote.Price.Mul(decimal.NewFromInt(quantity))
	return tradeResult(t, proceeds), nil
}

// History returns the user's full transaction log, oldest first.
func (e *Engine) History(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error) {
	history, err := e.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, storageFailure("read history", err)
	}
	return history, nil
}

// resolveQuote pins the price for the whole operation. A miss and any
// adapter failure are deliberately indistinguishable to the caller.
func (e *Engine) resolveQuote(ctx context.Context, symbol string) (*quotes.Quote, error) {
	symbol = quotes.Normalize(symbol)
	if symbol == "" {
		return nil, ErrUnknownSymbol
	}
	quote, err := e.quotes.Lookup(ctx, symbol)
	if err != nil {
		return nil, ErrUnknownSymbol
	}
	return quote, nil
}

func (e *Engine) commitTrade(ctx context.Context, t *models.Transaction) error {
	err := e.store.ExecuteTrade(ctx, t)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrInsufficientFunds):
		return ErrInsufficientFunds
	case errors.Is(err, storage.ErrInsufficientShares):
		return ErrInsufficientShares
	default:
		return storageFailure("execute trade", err)
	}

	event := events.TradeCompleted{
		TransactionID: t.ID,
		UserID:        t.UserID,
		Symbol:        t.Symbol,
		Quantity:      t.Quantity,
		Price:         t.Price,
		OccurredAt:    time.Now(),
	}
	if err := e.publisher.Publish(events.TopicTradeCompleted, event); err != nil {
		// The trade is committed; event delivery is best-effort.
		log.Printf("Failed to publish trade event for transaction %s: %v", t.ID, err)
	}
	return nil
}

func tradeResult(t *models.Transaction, total decimal.Decimal) *TradeResult {
	quantity := t.Quantity
	if quantity < 0 {
		quantity = -quantity
	}
	return &TradeResult{
		TransactionID: t.ID,
		Symbol:        t.Symbol,
		CompanyName:   t.CompanyName,
		Quantity:      quantity,
		Price:         t.Price,
		Total:         total,
	}
}
