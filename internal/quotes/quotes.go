// Package quotes supplies current prices and display names for stock
// symbols. The ledger and the portfolio reporter only depend on the Source
// contract; where the numbers come from is a provider concern.
package quotes

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by a Source when the symbol is unknown.
var ErrNotFound = errors.New("quotes: symbol not found")

// Quote is a symbol's current price and display name.
type Quote struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

// Source resolves a symbol to a quote. Implementations own any caching,
// timeout or retry behavior; callers see a single synchronous lookup.
type Source interface {
	Lookup(ctx context.Context, symbol string) (*Quote, error)
}

// Normalize upper-cases and trims a symbol for lookup and storage keys.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
