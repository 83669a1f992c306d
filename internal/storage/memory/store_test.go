package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/user/stocksim/internal/models"
	"github.com/user/stocksim/internal/storage"
)

func seedUser(t *testing.T, s *Store, cash string) *models.User {
	t.Helper()
	user, err := s.CreateUser(context.Background(), "alice", "hash", decimal.RequireFromString(cash))
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

func TestCreateUserDuplicate(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "100")

	_, err := s.CreateUser(context.Background(), "alice", "otherhash", decimal.NewFromInt(100))
	if !errors.Is(err, storage.ErrUsernameTaken) {
		t.Fatalf("duplicate CreateUser error = %v, want ErrUsernameTaken", err)
	}
}

func TestCreateUserOpensAccount(t *testing.T) {
	s := NewStore()
	user := seedUser(t, s, "10000")

	account, err := s.GetAccount(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !account.Cash.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("starting cash = %s, want 10000", account.Cash)
	}
}

func TestDepositUnknownAccount(t *testing.T) {
	s := NewStore()
	_, err := s.Deposit(context.Background(), uuid.New(), decimal.NewFromInt(5))
	if !errors.Is(err, storage.ErrAccountNotFound) {
		t.Fatalf("Deposit on missing account error = %v, want ErrAccountNotFound", err)
	}
}

func TestGetHoldingNotFound(t *testing.T) {
	s := NewStore()
	user := seedUser(t, s, "100")

	_, err := s.GetHolding(context.Background(), user.ID, "AAPL")
	if !errors.Is(err, storage.ErrHoldingNotFound) {
		t.Fatalf("GetHolding error = %v, want ErrHoldingNotFound", err)
	}
}

func trade(userID uuid.UUID, symbol string, price string, quantity int64) *models.Transaction {
	return &models.Transaction{
		UserID:      userID,
		Symbol:      symbol,
		CompanyName: symbol + " Corp",
		Price:       decimal.RequireFromString(price),
		Quantity:    quantity,
	}
}

func TestExecuteTradeBuyCreatesHolding(t *testing.T) {
	s := NewStore()
	user := seedUser(t, s, "100.00")
	ctx := context.Background()

	tx := trade(user.ID, "X", "25.00", 2)
	if err := s.ExecuteTrade(ctx, tx); err != nil {
		t.Fatalf("ExecuteTrade: %v", err)
	}
	if tx.ID == uuid.Nil || tx.CreatedAt.IsZero() {
		t.Error("ExecuteTrade did not assign id and timestamp")
	}

	account, _ := s.GetAccount(ctx, user.ID)
	if !account.Cash.Equal(decimal.RequireFromString("50.00")) {
		t.Errorf("cash = %s, want 50.00", account.Cash)
	}
	holding, err := s.GetHolding(ctx, user.ID, "X")
	if err != nil || holding.Shares != 2 {
		t.Errorf("holding = %+v, %v, want 2 shares", holding, err)
	}
}

// A guard failure must leave cash, holdings and the log untouched.
func TestExecuteTradeAtomicOnFailure(t *testing.T) {
	s := NewStore()
	user := seedUser(t, s, "100.00")
	ctx := context.Background()

	if err := s.ExecuteTrade(ctx, trade(user.ID, "X", "50.00", 3)); !errors.Is(err, storage.ErrInsufficientFunds) {
		t.Fatalf("overdraft buy error = %v, want ErrInsufficientFunds", err)
	}
	account, _ := s.GetAccount(ctx, user.ID)
	if !account.Cash.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("cash = %s after failed buy, want 100.00", account.Cash)
	}
	if _, err := s.GetHolding(ctx, user.ID, "X"); !errors.Is(err, storage.ErrHoldingNotFound) {
		t.Errorf("holding exists after failed buy: %v", err)
	}

	// Oversell: seed 2 shares, try to sell 5.
	if err := s.ExecuteTrade(ctx, trade(user.ID, "X", "10.00", 2)); err != nil {
		t.Fatalf("seed buy: %v", err)
	}
	if err := s.ExecuteTrade(ctx, trade(user.ID, "X", "10.00", -5)); !errors.Is(err, storage.ErrInsufficientShares) {
		t.Fatalf("oversell error = %v, want ErrInsufficientShares", err)
	}
	holding, _ := s.GetHolding(ctx, user.ID, "X")
	if holding.Shares != 2 {
		t.Errorf("shares = %d after failed sell, want 2", holding.Shares)
	}
	account, _ = s.GetAccount(ctx, user.ID)
	if !account.Cash.Equal(decimal.RequireFromString("80.00")) {
		t.Errorf("cash = %s after failed sell, want 80.00", account.Cash)
	}

	history, _ := s.ListTransactions(ctx, user.ID)
	if len(history) != 1 {
		t.Errorf("log has %d entries, want only the seed buy", len(history))
	}
}

func TestExecuteTradeUnknownAccount(t *testing.T) {
	s := NewStore()
	err := s.ExecuteTrade(context.Background(), trade(uuid.New(), "X", "1.00", 1))
	if !errors.Is(err, storage.ErrAccountNotFound) {
		t.Fatalf("trade on missing account error = %v, want ErrAccountNotFound", err)
	}
}

func TestListTransactionsInsertionOrder(t *testing.T) {
	s := NewStore()
	user := seedUser(t, s, "1000.00")
	ctx := context.Background()

	quantities := []int64{3, -1, 5, -2}
	for _, q := range quantities {
		if err := s.ExecuteTrade(ctx, trade(user.ID, "X", "1.00", q)); err != nil {
			t.Fatalf("ExecuteTrade(%d): %v", q, err)
		}
	}

	history, err := s.ListTransactions(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(history) != len(quantities) {
		t.Fatalf("history has %d entries, want %d", len(history), len(quantities))
	}
	for i, tx := range history {
		if tx.Quantity != quantities[i] {
			t.Errorf("entry %d quantity = %d, want %d", i, tx.Quantity, quantities[i])
		}
	}
}

func TestListHoldingsCopies(t *testing.T) {
	s := NewStore()
	user := seedUser(t, s, "1000.00")
	ctx := context.Background()

	if err := s.ExecuteTrade(ctx, trade(user.ID, "X", "1.00", 4)); err != nil {
		t.Fatalf("ExecuteTrade: %v", err)
	}
	holdings, err := s.ListHoldings(ctx, user.ID)
	if err != nil || len(holdings) != 1 {
		t.Fatalf("ListHoldings = %v, %v", holdings, err)
	}

	// Mutating the returned slice must not touch store state.
	holdings[0].Shares = 999
	holding, _ := s.GetHolding(ctx, user.ID, "X")
	if holding.Shares != 4 {
		t.Errorf("store state mutated through ListHoldings result: %d", holding.Shares)
	}
}
