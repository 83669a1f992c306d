// Package portfolio is the read-only valuation path over the account store
// and the quote source. It never mutates ledger state.
package portfolio

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/user/stocksim/internal/quotes"
	"github.com/user/stocksim/internal/storage"
)

// Position is one priced holding.
type Position struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Shares int64           `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Value  decimal.Decimal `json:"value"`
}

// Valuation is a snapshot of everything the user owns. Unpriced lists
// symbols whose quote could not be resolved (a previously traded symbol
// may have been delisted); their book value is unknown and excluded from
// TotalAssets.
type Valuation struct {
	Cash        decimal.Decimal `json:"cash"`
	Positions   []Position      `json:"positions"`
	Unpriced    []string        `json:"unpriced,omitempty"`
	TotalAssets decimal.Decimal `json:"total_assets"`
}

type Reporter struct {
	store  storage.Store
	quotes quotes.Source
}

func NewReporter(store storage.Store, source quotes.Source) *Reporter {
	return &Reporter{store: store, quotes: source}
}

// Valuation prices every non-zero holding at the current quote and sums
// with cash. A failed lookup skips that symbol and prices the rest.
func (r *Reporter) Valuation(ctx context.Context, userID uuid.UUID) (*Valuation, error) {
	account, err := r.store.GetAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error reading account for valuation: %w", err)
	}
	holdings, err := r.store.ListHoldings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error reading holdings for valuation: %w", err)
	}

	valuation := &Valuation{
		Cash:        account.Cash,
		Positions:   make([]Position, 0, len(holdings)),
		TotalAssets: account.Cash,
	}

	for _, holding := range holdings {
		if holding.Shares <= 0 {
			continue
		}
		quote, err := r.quotes.Lookup(ctx, holding.Symbol)
		if err != nil {
			log.Printf("Valuation: no quote for %s (user %s): %v", holding.Symbol, userID, err)
			valuation.Unpriced = append(valuation.Unpriced, holding.Symbol)
			continue
		}
		value := quote.Price.Mul(decimal.NewFromInt(holding.Shares))
		valuation.Positions = append(valuation.Positions, Position{
			Symbol: holding.Symbol,
			Name:   quote.Name,
			Shares: holding.Shares,
			Price:  quote.Price,
			Value:  value,
		})
		valuation.TotalAssets = valuation.TotalAssets.Add(value)
	}
	return valuation, nil
}
