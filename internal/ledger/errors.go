package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Every failure an operation can produce maps to exactly one of these
// sentinels, so callers can match with errors.Is and show a specific
// message instead of a generic one.
var (
	ErrInvalidAmount      = errors.New("amount must be a positive number")
	ErrInvalidQuantity    = errors.New("quantity must be a positive whole number")
	ErrUnknownSymbol      = errors.New("unknown stock symbol")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrNoSuchHolding      = errors.New("no shares held for this symbol")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrStorageFailure     = errors.New("storage failure")
)

// ParseAmount parses a currency amount from form-style input. Anything that
// is not a strictly positive finite decimal fails with ErrInvalidAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

// ParseQuantity parses a share count from form-style input. Anything that
// is not a strictly positive integer fails with ErrInvalidQuantity.
func ParseQuantity(s string) (int64, error) {
	quantity, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || quantity <= 0 {
		return 0, ErrInvalidQuantity
	}
	return quantity, nil
}

func storageFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorageFailure, op, err)
}
