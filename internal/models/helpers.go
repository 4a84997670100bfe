package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MaxBetAmount    = 100000
	MaxRouletteBets = 50
)

var maxMoveAmount = decimal.NewFromInt(1_000_000)

func GenerateRoundID() string {
	return uuid.NewString()
}

// GenerateDepositReference builds the code a bank transfer must quote.
func GenerateDepositReference(userID int64) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("RC-%d%s", userID, suffix)
}

// RoundReference is the ledger reference of a settled round.
func RoundReference(game GameType, roundID string) string {
	return string(game) + ":" + roundID
}

func (br *BetRequest) Validate() error {
	if br.Amount < 1 {
		return fmt.Errorf("bet amount must be at least 1")
	}
	if br.Amount > MaxBetAmount {
		return fmt.Errorf("maximum bet amount is %d", MaxBetAmount)
	}
	return nil
}

func (sr *SlotSpinRequest) Validate() error {
	if sr.Bet < 1 {
		return fmt.Errorf("bet must be at least 1")
	}
	if sr.Bet > MaxBetAmount {
		return fmt.Errorf("maximum bet amount is %d", MaxBetAmount)
	}
	return nil
}

func (rr *RouletteSpinRequest) Validate() error {
	if len(rr.Bets) == 0 {
		return fmt.Errorf("at least one bet is required")
	}
	if len(rr.Bets) > MaxRouletteBets {
		return fmt.Errorf("at most %d bets per spin", MaxRouletteBets)
	}
	for i, b := range rr.Bets {
		if b.Amount < 1 || b.Amount > MaxBetAmount {
			return fmt.Errorf("bet %d: amount must be between 1 and %d", i, MaxBetAmount)
		}
		if b.Odds < 1 || b.Odds > 35 {
			return fmt.Errorf("bet %d: odds must be between 1 and 35", i)
		}
		if strings.TrimSpace(b.Numbers) == "" {
			return fmt.Errorf("bet %d: numbers are required", i)
		}
	}
	for _, n := range rr.NumbersBet {
		if n < 0 || n > 36 {
			return fmt.Errorf("numbers_bet: %d is not on the wheel", n)
		}
	}
	return nil
}

func (dr *DepositRequest) Validate() error {
	if err := validateMoney(dr.Amount); err != nil {
		return err
	}
	switch dr.Method {
	case MethodCard, MethodBankTransfer:
	default:
		return fmt.Errorf("invalid deposit method: %s", dr.Method)
	}
	return nil
}

func (wr *WithdrawRequest) Validate() error {
	if err := validateMoney(wr.Amount); err != nil {
		return err
	}
	switch wr.Method {
	case MethodCard, MethodBankTransfer:
	default:
		return fmt.Errorf("invalid withdrawal method: %s", wr.Method)
	}
	return nil
}

func validateMoney(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}
	if amount.GreaterThan(maxMoveAmount) {
		return fmt.Errorf("amount exceeds %s", maxMoveAmount)
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("amount has more than two decimal places")
	}
	return nil
}
