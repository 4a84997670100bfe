package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mikiasyonas/casino-rounds/internal/ledger"
	"github.com/mikiasyonas/casino-rounds/internal/logger"
	"github.com/mikiasyonas/casino-rounds/internal/metrics"
	"github.com/mikiasyonas/casino-rounds/internal/models"
	"github.com/mikiasyonas/casino-rounds/internal/payout"
)

type SlotService struct {
	balances *BalanceSynchronizer
	locks    *UserLocks
	exposure Exposure
	paytable payout.Paytable
	opts     options
}

func NewSlotService(balances *BalanceSynchronizer, locks *UserLocks, exposure Exposure, opts ...Option) *SlotService {
	return &SlotService{
		balances: balances,
		locks:    locks,
		exposure: exposure,
		paytable: payout.DefaultPaytable,
		opts:     buildOptions(opts),
	}
}

func spinGrid(rng RNG) models.SlotGrid {
	var grid models.SlotGrid
	for r := range grid {
		for c := range grid[r] {
			grid[r][c] = models.SlotSymbols[rng.IntN(len(models.SlotSymbols))]
		}
	}
	return grid
}

// Spin debits the bet and credits the line wins in one ledger adjustment.
func (s *SlotService) Spin(ctx context.Context, userID int64, bet int64) (*models.SlotOutcome, error) {
	req := models.SlotSpinRequest{Bet: bet}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBet, err)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	bank, err := s.balances.Refresh(ctx, userID)
	if err != nil {
		return nil, err
	}
	required := decimal.NewFromInt(bet + openStake(s.exposure, userID))
	if bank.LessThan(required) {
		return nil, ErrInsufficientFunds
	}

	grid := spinGrid(s.opts.rng)
	lines := s.paytable.Lines(grid, bet)
	var won int64
	for _, l := range lines {
		won += l.Payout
	}
	net := won - bet
	spinID := models.GenerateRoundID()

	tx, err := s.balances.Commit(ctx, ledger.Adjustment{
		UserID:      userID,
		Delta:       decimal.NewFromInt(net),
		Require:     required,
		Kind:        models.TransactionKindAdjustment,
		Method:      models.MethodSlots,
		Reference:   models.RoundReference(models.GameTypeSlots, spinID),
		Description: fmt.Sprintf("slots: bet %d, %d lines, won %d", bet, len(lines), won),
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordRound(string(models.GameTypeSlots), bet, won, net)
	logger.InfoCtx(ctx, "slot spin settled",
		zap.Int64("user_id", userID),
		zap.String("spin_id", spinID),
		zap.Int64("net", net))

	if lines == nil {
		lines = []models.SlotLine{}
	}
	outcome := &models.SlotOutcome{
		SpinID:  spinID,
		Grid:    grid,
		Bet:     bet,
		Lines:   lines,
		Payout:  won,
		Net:     net,
		Balance: tx.BalanceAfter,
	}
	s.opts.notify.BroadcastRound(userID, models.GameTypeSlots, outcome)
	s.opts.notify.BroadcastBalance(userID, tx.BalanceAfter)
	return outcome, nil
}
