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

type RouletteService struct {
	balances *BalanceSynchronizer
	locks    *UserLocks
	exposure Exposure
	opts     options
}

func NewRouletteService(balances *BalanceSynchronizer, locks *UserLocks, exposure Exposure, opts ...Option) *RouletteService {
	return &RouletteService{
		balances: balances,
		locks:    locks,
		exposure: exposure,
		opts:     buildOptions(opts),
	}
}

// checkBets validates the bet list. When numbers is non-empty every bet must
// stay inside it.
func checkBets(bets []models.RouletteBet, numbers []int) (int64, error) {
	req := models.RouletteSpinRequest{Bets: bets, NumbersBet: numbers}
	if err := req.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidBet, err)
	}

	allowed := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		allowed[n] = true
	}

	var wagered int64
	for i, b := range bets {
		nums, err := payout.ParseNumbers(b.Numbers)
		if err != nil {
			return 0, fmt.Errorf("%w: bet %d: %v", ErrInvalidBet, i, err)
		}
		if len(allowed) > 0 {
			for _, n := range nums {
				if !allowed[n] {
					return 0, fmt.Errorf("%w: bet %d covers %d outside numbers_bet", ErrInvalidBet, i, n)
				}
			}
		}
		wagered += b.Amount
	}
	return wagered, nil
}

// Spin settles one roulette spin as a single ledger adjustment of
// winnings - wagered. Winning bets pay amount*odds as profit; every stake,
// winning or not, stays on the table.
func (s *RouletteService) Spin(ctx context.Context, userID int64, bets []models.RouletteBet, numbers []int) (*models.RouletteOutcome, error) {
	wagered, err := checkBets(bets, numbers)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	bank, err := s.balances.Refresh(ctx, userID)
	if err != nil {
		return nil, err
	}
	required := decimal.NewFromInt(wagered + openStake(s.exposure, userID))
	if bank.LessThan(required) {
		return nil, ErrInsufficientFunds
	}

	winning := s.opts.rng.IntN(payout.WheelSize)
	winnings := payout.ResolveRoulette(bets, winning)
	net := winnings - wagered
	color := payout.Color(winning)
	spinID := models.GenerateRoundID()

	tx, err := s.balances.Commit(ctx, ledger.Adjustment{
		UserID:      userID,
		Delta:       decimal.NewFromInt(net),
		Require:     required,
		Kind:        models.TransactionKindAdjustment,
		Method:      models.MethodRoulette,
		Reference:   models.RoundReference(models.GameTypeRoulette, spinID),
		Description: fmt.Sprintf("roulette %d %s: wagered %d, won %d", winning, color, wagered, winnings),
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordRound(string(models.GameTypeRoulette), wagered, winnings, net)
	logger.InfoCtx(ctx, "roulette spin settled",
		zap.Int64("user_id", userID),
		zap.String("spin_id", spinID),
		zap.Int("winning_number", winning),
		zap.Int64("net", net))

	outcome := &models.RouletteOutcome{
		SpinID:        spinID,
		WinningNumber: winning,
		Color:         color,
		Wagered:       wagered,
		Winnings:      winnings,
		Net:           net,
		Balance:       tx.BalanceAfter,
	}
	s.opts.notify.BroadcastRound(userID, models.GameTypeRoulette, outcome)
	s.opts.notify.BroadcastBalance(userID, tx.BalanceAfter)
	return outcome, nil
}
