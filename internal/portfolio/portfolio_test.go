package portfolio

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/user/stocksim/internal/models"
	"github.com/user/stocksim/internal/quotes"
	"github.com/user/stocksim/internal/storage/memory"
)

type stubSource struct {
	table map[string]quotes.Quote
}

func (s stubSource) Lookup(ctx context.Context, symbol string) (*quotes.Quote, error) {
	q, ok := s.table[symbol]
	if !ok {
		return nil, quotes.ErrNotFound
	}
	return &q, nil
}

func seedAccount(t *testing.T, store *memory.Store, cash string, holdings map[string]int64) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	user, err := store.CreateUser(ctx, "alice", "hash", decimal.RequireFromString(cash))
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	for symbol, shares := range holdings {
		err := store.ExecuteTrade(ctx, &models.Transaction{
			UserID:      user.ID,
			Symbol:      symbol,
			CompanyName: symbol,
			Price:       decimal.Zero,
			Quantity:    shares,
		})
		if err != nil {
			t.Fatalf("seed holding %s: %v", symbol, err)
		}
	}
	return user.ID
}

func TestValuationBareCash(t *testing.T) {
	store := memory.NewStore()
	userID := seedAccount(t, store, "1234.56", nil)
	reporter := NewReporter(store, stubSource{})

	valuation, err := reporter.Valuation(context.Background(), userID)
	if err != nil {
		t.Fatalf("Valuation: %v", err)
	}
	if len(valuation.Positions) != 0 {
		t.Errorf("positions = %+v, want none", valuation.Positions)
	}
	if !valuation.TotalAssets.Equal(decimal.RequireFromString("1234.56")) {
		t.Errorf("total assets = %s, want bare cash 1234.56", valuation.TotalAssets)
	}
}

func TestValuationPricesHoldings(t *testing.T) {
	store := memory.NewStore()
	userID := seedAccount(t, store, "100.00", map[string]int64{"AAPL": 3, "MSFT": 2})
	reporter := NewReporter(store, stubSource{table: map[string]quotes.Quote{
		"AAPL": {Symbol: "AAPL", Name: "Apple Inc.", Price: decimal.RequireFromString("10.00")},
		"MSFT": {Symbol: "MSFT", Name: "Microsoft Corporation", Price: decimal.RequireFromString("5.00")},
	}})

	valuation, err := reporter.Valuation(context.Background(), userID)
	if err != nil {
		t.Fatalf("Valuation: %v", err)
	}
	if len(valuation.Positions) != 2 {
		t.Fatalf("positions = %+v, want 2", valuation.Positions)
	}
	byName := make(map[string]Position)
	for _, p := range valuation.Positions {
		byName[p.Symbol] = p
	}
	if p := byName["AAPL"]; !p.Value.Equal(decimal.RequireFromString("30.00")) {
		t.Errorf("AAPL value = %s, want 30.00", p.Value)
	}
	if p := byName["MSFT"]; !p.Value.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("MSFT value = %s, want 10.00", p.Value)
	}
	// 100 cash + 30 + 10.
	if !valuation.TotalAssets.Equal(decimal.RequireFromString("140.00")) {
		t.Errorf("total assets = %s, want 140.00", valuation.TotalAssets)
	}
}

// A symbol the quote source no longer knows must not abort valuation of
// the remaining holdings.
func TestValuationBestEffort(t *testing.T) {
	store := memory.NewStore()
	userID := seedAccount(t, store, "50.00", map[string]int64{"AAPL": 1, "GONE": 4})
	reporter := NewReporter(store, stubSource{table: map[string]quotes.Quote{
		"AAPL": {Symbol: "AAPL", Name: "Apple Inc.", Price: decimal.RequireFromString("10.00")},
	}})

	valuation, err := reporter.Valuation(context.Background(), userID)
	if err != nil {
		t.Fatalf("Valuation: %v", err)
	}
	if len(valuation.Positions) != 1 || valuation.Positions[0].Symbol != "AAPL" {
		t.Errorf("positions = %+v, want only AAPL", valuation.Positions)
	}
	if len(valuation.Unpriced) != 1 || valuation.Unpriced[0] != "GONE" {
		t.Errorf("unpriced = %v, want [GONE]", valuation.Unpriced)
	}
	if !valuation.TotalAssets.Equal(decimal.RequireFromString("60.00")) {
		t.Errorf("total assets = %s, want 60.00 (cash + AAPL only)", valuation.TotalAssets)
	}
}

func TestValuationSkipsZeroHoldings(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	userID := seedAccount(t, store, "10.00", map[string]int64{"AAPL": 2})
	// Sell everything back so the holding row sits at zero.
	err := store.ExecuteTrade(ctx, &models.Transaction{
		UserID: userID, Symbol: "AAPL", CompanyName: "AAPL",
		Price: decimal.Zero, Quantity: -2,
	})
	if err != nil {
		t.Fatalf("zero out holding: %v", err)
	}

	reporter := NewReporter(store, stubSource{table: map[string]quotes.Quote{
		"AAPL": {Symbol: "AAPL", Name: "Apple Inc.", Price: decimal.RequireFromString("10.00")},
	}})
	valuation, err := reporter.Valuation(ctx, userID)
	if err != nil {
		t.Fatalf("Valuation: %v", err)
	}
	if len(valuation.Positions) != 0 {
		t.Errorf("zero-share holding priced: %+v", valuation.Positions)
	}
	if !valuation.TotalAssets.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("total assets = %s, want 10.00", valuation.TotalAssets)
	}
}
