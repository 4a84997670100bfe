package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mikiasyonas/casino-rounds/internal/ledger"
	"github.com/mikiasyonas/casino-rounds/internal/logger"
	"github.com/mikiasyonas/casino-rounds/internal/models"
)

const depositReferenceAttempts = 3

// WalletService moves money in and out of the ledger. Deposits are
// simulated: card payments complete at once, bank transfers wait as
// pending rows until a reference is matched elsewhere.
type WalletService struct {
	balances *BalanceSynchronizer
	locks    *UserLocks
	exposure Exposure
	opts     options
}

func NewWalletService(balances *BalanceSynchronizer, locks *UserLocks, exposure Exposure, opts ...Option) *WalletService {
	return &WalletService{
		balances: balances,
		locks:    locks,
		exposure: exposure,
		opts:     buildOptions(opts),
	}
}

func (s *WalletService) Balance(ctx context.Context, userID int64) (*models.BalanceResponse, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	bal, err := s.balances.Refresh(ctx, userID)
	if err != nil {
		return nil, err
	}
	stake := decimal.NewFromInt(openStake(s.exposure, userID))
	return &models.BalanceResponse{
		Balance:   bal,
		AtStake:   stake,
		Available: decimal.Max(bal.Sub(stake), decimal.Zero),
	}, nil
}

func (s *WalletService) Deposit(ctx context.Context, userID int64, req models.DepositRequest) (*models.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	if _, err := s.balances.Refresh(ctx, userID); err != nil {
		return nil, err
	}

	adj := ledger.Adjustment{
		UserID: userID,
		Delta:  req.Amount,
		Kind:   models.TransactionKindDeposit,
		Method: req.Method,
	}
	if req.Method == models.MethodBankTransfer {
		adj.Status = models.TransactionStatusPending
	} else {
		adj.Status = models.TransactionStatusCompleted
		adj.Description = "card deposit"
	}

	var tx *models.Transaction
	var err error
	for attempt := 1; ; attempt++ {
		if adj.Status == models.TransactionStatusPending {
			adj.Reference = s.opts.newRef(userID)
			adj.Description = "bank transfer deposit, quote reference " + adj.Reference
		}
		tx, err = s.balances.Commit(ctx, adj)
		// A fresh reference is drawn when the last one was already taken.
		if adj.Reference == "" || attempt == depositReferenceAttempts || !errors.Is(err, ledger.ErrDuplicateReference) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "deposit recorded",
		zap.Int64("user_id", userID),
		zap.String("method", string(req.Method)),
		zap.String("status", string(tx.Status)),
		zap.String("amount", req.Amount.String()))
	if tx.Status == models.TransactionStatusCompleted {
		s.opts.notify.BroadcastBalance(userID, tx.BalanceAfter)
	}
	return tx, nil
}

// Withdraw debits under the ledger lock and never touches the stake of a
// hand still in play.
func (s *WalletService) Withdraw(ctx context.Context, userID int64, req models.WithdrawRequest) (*models.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	bal, err := s.balances.Refresh(ctx, userID)
	if err != nil {
		return nil, err
	}
	required := req.Amount.Add(decimal.NewFromInt(openStake(s.exposure, userID)))
	if bal.LessThan(required) {
		return nil, ErrInsufficientFunds
	}

	tx, err := s.balances.Commit(ctx, ledger.Adjustment{
		UserID:      userID,
		Delta:       req.Amount.Neg(),
		Require:     required,
		Kind:        models.TransactionKindWithdrawal,
		Status:      models.TransactionStatusCompleted,
		Method:      req.Method,
		Description: fmt.Sprintf("withdrawal via %s", req.Method),
	})
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "withdrawal completed",
		zap.Int64("user_id", userID),
		zap.String("amount", req.Amount.String()))
	s.opts.notify.BroadcastBalance(userID, tx.BalanceAfter)
	return tx, nil
}

func (s *WalletService) Transactions(ctx context.Context, userID int64, limit int) ([]models.Transaction, error) {
	if _, err := s.balances.Refresh(ctx, userID); err != nil {
		return nil, err
	}
	txs, err := s.balances.Transactions(ctx, userID, "", limit)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs, nil
}

// History lists settled game rounds, read back from the ledger's
// adjustment rows.
func (s *WalletService) History(ctx context.Context, userID int64, limit int) ([]models.GameHistoryEntry, error) {
	if _, err := s.balances.Refresh(ctx, userID); err != nil {
		return nil, err
	}
	txs, err := s.balances.Transactions(ctx, userID, models.TransactionKindAdjustment, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]models.GameHistoryEntry, 0, len(txs))
	for _, tx := range txs {
		game, roundID, ok := strings.Cut(tx.Reference, ":")
		if !ok {
			continue
		}
		entries = append(entries, models.GameHistoryEntry{
			RoundID:      roundID,
			Game:         models.GameType(game),
			Net:          tx.Amount,
			BalanceAfter: tx.BalanceAfter,
			Description:  tx.Description,
			SettledAt:    tx.CreatedAt,
		})
	}
	return entries, nil
}
