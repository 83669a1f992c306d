// Package memory is an in-memory storage.Store used by STORE=memory dev
// mode and by the test suites. A single mutex guards all state, which makes
// every operation (ExecuteTrade included) trivially atomic.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/user/stocksim/internal/models"
	"github.com/user/stocksim/internal/storage"
)

type holdingKey struct {
	userID uuid.UUID
	symbol string
}

type Store struct {
	mu           sync.Mutex
	users        map[uuid.UUID]*models.User
	usersByName  map[string]uuid.UUID
	accounts     map[uuid.UUID]*models.Account
	holdings     map[holdingKey]*models.Holding
	transactions map[uuid.UUID][]*models.Transaction
}

func NewStore() *Store {
	return &Store{
		users:        make(map[uuid.UUID]*models.User),
		usersByName:  make(map[string]uuid.UUID),
		accounts:     make(map[uuid.UUID]*models.Account),
		holdings:     make(map[holdingKey]*models.Holding),
		transactions: make(map[uuid.UUID][]*models.Transaction),
	}
}

var _ storage.Store = (*Store)(nil)

func (s *Store) CreateUser(ctx context.Context, username, passwordHash string, startingCash decimal.Decimal) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByName[username]; exists {
		return nil, storage.ErrUsernameTaken
	}

	now := time.Now()
	user := &models.User{
		ID:        uuid.New(),
		Username:  username,
		Password:  passwordHash,
		CreatedAt: now,
	}
	s.users[user.ID] = user
	s.usersByName[username] = user.ID
	s.accounts[user.ID] = &models.Account{
		UserID:    user.ID,
		Cash:      startingCash,
		UpdatedAt: now,
	}

	u := *user
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.usersByName[username]
	if !ok {
		return nil, nil
	}
	u := *s.users[id]
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	u := *user
	return &u, nil
}

func (s *Store) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return storage.ErrAccountNotFound
	}
	user.Password = passwordHash
	return nil
}

func (s *Store) GetAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[userID]
	if !ok {
		return nil, storage.ErrAccountNotFound
	}
	a := *account
	return &a, nil
}

func (s *Store) Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[userID]
	if !ok {
		return decimal.Zero, storage.ErrAccountNotFound
	}
	account.Cash = account.Cash.Add(amount)
	account.UpdatedAt = time.Now()
	return account.Cash, nil
}

func (s *Store) GetHolding(ctx context.Context, userID uuid.UUID, symbol string) (*models.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	holding, ok := s.holdings[holdingKey{userID, symbol}]
	if !ok {
		return nil, storage.ErrHoldingNotFound
	}
	h := *holding
	return &h, nil
}

func (s *Store) ListHoldings(ctx context.Context, userID uuid.UUID) ([]*models.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	holdings := make([]*models.Holding, 0)
	for key, holding := range s.holdings {
		if key.userID == userID {
			h := *holding
			holdings = append(holdings, &h)
		}
	}
	return holdings, nil
}

// ExecuteTrade checks every precondition before touching any state, so a
// failed trade leaves the store exactly as it was.
func (s *Store) ExecuteTrade(ctx context.Context, t *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[t.UserID]
	if !ok {
		return storage.ErrAccountNotFound
	}

	newCash := account.Cash.Add(t.CashDelta())
	if newCash.IsNegative() {
		return storage.ErrInsufficientFunds
	}

	key := holdingKey{t.UserID, t.Symbol}
	holding, haveHolding := s.holdings[key]
	var newShares int64
	if haveHolding {
		newShares = holding.Shares + t.Quantity
	} else {
		newShares = t.Quantity // first trade starts the count at zero
	}
	if newShares < 0 {
		return storage.ErrInsufficientShares
	}

	now := time.Now()
	account.Cash = newCash
	account.UpdatedAt = now
	if haveHolding {
		holding.Shares = newShares
		holding.UpdatedAt = now
	} else {
		s.holdings[key] = &models.Holding{
			UserID:    t.UserID,
			Symbol:    t.Symbol,
			Shares:    newShares,
			UpdatedAt: now,
		}
	}

	t.ID = uuid.New()
	t.CreatedAt = now
	logged := *t
	s.transactions[t.UserID] = append(s.transactions[t.UserID], &logged)
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.transactions[userID]
	copied := make([]*models.Transaction, len(history))
	for i, t := range history {
		c := *t
		copied[i] = &c
	}
	return copied, nil
}
