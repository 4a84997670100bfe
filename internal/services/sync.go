package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mikiasyonas/casino-rounds/internal/ledger"
	"github.com/mikiasyonas/casino-rounds/internal/logger"
	"github.com/mikiasyonas/casino-rounds/internal/metrics"
	"github.com/mikiasyonas/casino-rounds/internal/models"
)

// BalanceSynchronizer couples in-memory rounds to the ledger. Every action
// refreshes from the ledger first and commits its bank change as one atomic
// adjustment; nothing is retried.
type BalanceSynchronizer struct {
	store ledger.Store
}

func NewBalanceSynchronizer(store ledger.Store) *BalanceSynchronizer {
	return &BalanceSynchronizer{store: store}
}

// Refresh returns the persisted balance, opening a zero balance for a user
// seen for the first time.
func (s *BalanceSynchronizer) Refresh(ctx context.Context, userID int64) (decimal.Decimal, error) {
	started := time.Now()
	bal, err := s.store.Balance(ctx, userID)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		if err = s.store.Open(ctx, userID); err == nil {
			logger.InfoCtx(ctx, "opened ledger balance", zap.Int64("user_id", userID))
			bal, err = s.store.Balance(ctx, userID)
		}
	}
	if err != nil {
		metrics.RecordLedger("refresh", "fail", started)
		logger.ErrorCtx(ctx, "ledger refresh failed", zap.Int64("user_id", userID), zap.Error(err))
		return decimal.Zero, &PersistenceError{Op: "refresh", UserID: userID, Err: err}
	}
	metrics.RecordLedger("refresh", "success", started)
	return bal, nil
}

// Commit applies one adjustment. A failed requirement comes back as
// ErrInsufficientFunds; anything else is a *PersistenceError.
func (s *BalanceSynchronizer) Commit(ctx context.Context, adj ledger.Adjustment) (*models.Transaction, error) {
	started := time.Now()
	tx, err := s.store.Adjust(ctx, adj)
	if err != nil {
		metrics.RecordLedger("commit", "fail", started)
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			return nil, ErrInsufficientFunds
		}
		logger.ErrorCtx(ctx, "ledger commit failed",
			zap.Int64("user_id", adj.UserID),
			zap.String("reference", adj.Reference),
			zap.String("delta", adj.Delta.String()),
			zap.Error(err))
		return nil, &PersistenceError{Op: "commit", UserID: adj.UserID, Err: err}
	}
	metrics.RecordLedger("commit", "success", started)
	return tx, nil
}

func (s *BalanceSynchronizer) Transactions(ctx context.Context, userID int64, kind models.TransactionKind, limit int) ([]models.Transaction, error) {
	txs, err := s.store.Transactions(ctx, userID, kind, limit)
	if err != nil {
		return nil, &PersistenceError{Op: "transactions", UserID: userID, Err: err}
	}
	return txs, nil
}
