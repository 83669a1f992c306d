package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents a registered account holder.
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"` // Store hash, exclude from JSON responses
	CreatedAt time.Time `json:"created_at"`
}

// Account holds a user's cash balance. Cash never goes negative; the
// storage layer enforces this on every debit.
type Account struct {
	UserID    uuid.UUID       `json:"user_id"`
	Cash      decimal.Decimal `json:"cash"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Holding is a user's current share count for one symbol.
// Keyed by (user_id, symbol); shares never go negative. A zero-share
// holding is equivalent to no holding at all.
type Holding struct {
	UserID    uuid.UUID `json:"user_id"`
	Symbol    string    `json:"symbol"`
	Shares    int64     `json:"shares"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transaction is one completed trade, append-only. Quantity is signed:
// positive for a buy, negative for a sell. Price and CompanyName are
// captured at execution time and never re-derived.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Symbol      string          `json:"symbol"`
	CompanyName string          `json:"company_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int64           `json:"quantity"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CashDelta returns the signed cash effect of the transaction:
// negative for a buy (cash leaves the account), positive for a sell.
func (t *Transaction) CashDelta() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Quantity)).Neg()
}
