// Package postgres implements storage.Store on a pgx connection pool.
// The trade commit step runs inside a single database transaction with
// conditional updates guarding the non-negative cash/shares invariants.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/user/stocksim/internal/models"
	"github.com/user/stocksim/internal/storage"
)

const uniqueViolation = "23505"

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ storage.Store = (*Store)(nil)

// Connect opens a pgx pool against the given URL and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

// CreateUser inserts the user row and their account row in one transaction,
// so no user ever exists without a cash balance.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string, startingCash decimal.Decimal) (*models.User, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("error beginning create-user transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	user := &models.User{Username: username, Password: passwordHash}
	err = tx.QueryRow(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2)
		 RETURNING id, created_at`,
		username, passwordHash,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, storage.ErrUsernameTaken
		}
		return nil, fmt.Errorf("error creating user %s: %w", username, err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO accounts (user_id, cash) VALUES ($1, $2)`,
		user.ID, startingCash,
	)
	if err != nil {
		return nil, fmt.Errorf("error creating account for user %s: %w", username, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("error committing create-user transaction: %w", err)
	}
	return user, nil
}

// GetUserByUsername returns nil, nil when the user does not exist.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&user.ID, &user.Username, &user.Password, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting user %s: %w", username, err)
	}
	return user, nil
}

func (s *Store) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id = $1`,
		userID,
	).Scan(&user.ID, &user.Username, &user.Password, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting user %s: %w", userID, err)
	}
	return user, nil
}

func (s *Store) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	cmdTag, err := s.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1 WHERE id = $2`,
		passwordHash, userID,
	)
	if err != nil {
		return fmt.Errorf("error updating password for user %s: %w", userID, err)
	}
	if cmdTag.RowsAffected() != 1 {
		return storage.ErrAccountNotFound
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	account := &models.Account{}
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, cash, updated_at FROM accounts WHERE user_id = $1`,
		userID,
	).Scan(&account.UserID, &account.Cash, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrAccountNotFound
		}
		return nil, fmt.Errorf("error getting account for user %s: %w", userID, err)
	}
	return account, nil
}

func (s *Store) Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	var newCash decimal.Decimal
	err := s.pool.QueryRow(ctx,
		`UPDATE accounts SET cash = cash + $1, updated_at = NOW()
		 WHERE user_id = $2
		 RETURNING cash`,
		amount, userID,
	).Scan(&newCash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, storage.ErrAccountNotFound
		}
		return decimal.Zero, fmt.Errorf("error depositing for user %s: %w", userID, err)
	}
	return newCash, nil
}

func (s *Store) GetHolding(ctx context.Context, userID uuid.UUID, symbol string) (*models.Holding, error) {
	holding := &models.Holding{}
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, symbol, shares, updated_at FROM holdings
		 WHERE user_id = $1 AND symbol = $2`,
		userID, symbol,
	).Scan(&holding.UserID, &holding.Symbol, &holding.Shares, &holding.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrHoldingNotFound
		}
		return nil, fmt.Errorf("error getting holding %s for user %s: %w", symbol, userID, err)
	}
	return holding, nil
}

func (s *Store) ListHoldings(ctx context.Context, userID uuid.UUID) ([]*models.Holding, error) {
	holdings := make([]*models.Holding, 0)
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, symbol, shares, updated_at FROM holdings
		 WHERE user_id = $1 ORDER BY symbol`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("error querying holdings for user %s: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		holding := &models.Holding{}
		if err := rows.Scan(&holding.UserID, &holding.Symbol, &holding.Shares, &holding.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning holding row for user %s: %w", userID, err)
		}
		holdings = append(holdings, holding)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating holding rows for user %s: %w", userID, rows.Err())
	}
	return holdings, nil
}

// ExecuteTrade applies cash delta, holding delta and log append in one
// database transaction. The conditional updates double as invariant guards:
// zero rows affected means the balance or the share count would have gone
// negative, and the whole transaction rolls back.
func (s *Store) ExecuteTrade(ctx context.Context, t *models.Transaction) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error beginning trade transaction for user %s: %w", t.UserID, err)
	}
	defer tx.Rollback(ctx)

	delta := t.CashDelta()
	cmdTag, err := tx.Exec(ctx,
		`UPDATE accounts SET cash = cash + $1, updated_at = NOW()
		 WHERE user_id = $2 AND cash + $1 >= 0`,
		delta, t.UserID,
	)
	if err != nil {
		return fmt.Errorf("error adjusting cash for user %s: %w", t.UserID, err)
	}
	if cmdTag.RowsAffected() != 1 {
		// Distinguish a missing account from a blocked debit.
		var exists int
		err := tx.QueryRow(ctx, `SELECT 1 FROM accounts WHERE user_id = $1`, t.UserID).Scan(&exists)
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.ErrAccountNotFound
		}
		if err != nil {
			return fmt.Errorf("error checking account for user %s: %w", t.UserID, err)
		}
		return storage.ErrInsufficientFunds
	}

	if t.Quantity > 0 {
		// A first buy creates the mapping entry starting from zero.
		_, err = tx.Exec(ctx,
			`INSERT INTO holdings (user_id, symbol, shares) VALUES ($1, $2, $3)
			 ON CONFLICT (user_id, symbol)
			 DO UPDATE SET shares = holdings.shares + EXCLUDED.shares, updated_at = NOW()`,
			t.UserID, t.Symbol, t.Quantity,
		)
		if err != nil {
			return fmt.Errorf("error incrementing holding %s for user %s: %w", t.Symbol, t.UserID, err)
		}
	} else {
		cmdTag, err := tx.Exec(ctx,
			`UPDATE holdings SET shares = shares + $1, updated_at = NOW()
			 WHERE user_id = $2 AND symbol = $3 AND shares + $1 >= 0`,
			t.Quantity, t.UserID, t.Symbol,
		)
		if err != nil {
			return fmt.Errorf("error decrementing holding %s for user %s: %w", t.Symbol, t.UserID, err)
		}
		if cmdTag.RowsAffected() != 1 {
			return storage.ErrInsufficientShares
		}
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO transactions (user_id, symbol, company_name, price, quantity)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		t.UserID, t.Symbol, t.CompanyName, t.Price, t.Quantity,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("error appending transaction for user %s: %w", t.UserID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing trade for user %s: %w", t.UserID, err)
	}
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error) {
	transactions := make([]*models.Transaction, 0)
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, symbol, company_name, price, quantity, created_at
		 FROM transactions WHERE user_id = $1 ORDER BY seq`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions for user %s: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		t := &models.Transaction{}
		err := rows.Scan(&t.ID, &t.UserID, &t.Symbol, &t.CompanyName, &t.Price, &t.Quantity, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning transaction row for user %s: %w", userID, err)
		}
		transactions = append(transactions, t)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating transaction rows for user %s: %w", userID, rows.Err())
	}
	return transactions, nil
}
