// Package ledger persists one authoritative balance per user and an
// append-only transaction log. Every balance change goes through Adjust,
// which reads, checks and writes under a lock on the user's balance row.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mikiasyonas/casino-rounds/internal/models"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrDuplicateReference = errors.New("reference already recorded")
	ErrInvalidAdjustment  = errors.New("invalid adjustment")
)

const DefaultTransactionLimit = 50

// Adjustment is one atomic balance change plus the row that records it.
//
// Require is the balance that must already be present before Delta is
// applied; a round debits its net result but needs its whole stake covered.
// A Pending adjustment records the row without moving the balance.
type Adjustment struct {
	UserID      int64
	Delta       decimal.Decimal
	Require     decimal.Decimal
	Kind        models.TransactionKind
	Status      models.TransactionStatus
	Method      models.PaymentMethod
	Reference   string
	Description string
}

type Store interface {
	// Open creates a zero balance for the user if none exists.
	Open(ctx context.Context, userID int64) error
	Balance(ctx context.Context, userID int64) (decimal.Decimal, error)
	Adjust(ctx context.Context, adj Adjustment) (*models.Transaction, error)
	// Transactions lists the newest rows first. An empty kind matches all.
	Transactions(ctx context.Context, userID int64, kind models.TransactionKind, limit int) ([]models.Transaction, error)
	Close() error
}

func (a Adjustment) validate() error {
	if a.UserID == 0 {
		return fmt.Errorf("%w: missing user", ErrInvalidAdjustment)
	}
	if a.Kind == "" || a.Method == "" {
		return fmt.Errorf("%w: kind and method are required", ErrInvalidAdjustment)
	}
	if a.Require.IsNegative() {
		return fmt.Errorf("%w: negative requirement", ErrInvalidAdjustment)
	}
	if !a.Delta.Equal(a.Delta.Round(2)) {
		return fmt.Errorf("%w: delta %s has sub-cent precision", ErrInvalidAdjustment, a.Delta)
	}
	return nil
}

func (a Adjustment) status() models.TransactionStatus {
	if a.Status == "" {
		return models.TransactionStatusCompleted
	}
	return a.Status
}

// apply returns the balance after the adjustment, or ErrInsufficientFunds
// when the requirement is not met or the result would go negative.
func (a Adjustment) apply(balance decimal.Decimal) (decimal.Decimal, error) {
	if a.status() == models.TransactionStatusPending {
		return balance, nil
	}
	next := balance.Add(a.Delta)
	if balance.LessThan(a.Require) || next.IsNegative() {
		return balance, ErrInsufficientFunds
	}
	return next, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return DefaultTransactionLimit
	}
	return limit
}
