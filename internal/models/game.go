package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type GameType string

const (
	GameTypeBlackjack GameType = "blackjack"
	GameTypeRoulette  GameType = "roulette"
	GameTypeSlots     GameType = "slots"
)

// GameHistoryEntry is one settled round as read back from the ledger.
type GameHistoryEntry struct {
	RoundID      string          `json:"round_id"`
	Game         GameType        `json:"game"`
	Net          decimal.Decimal `json:"net"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Description  string          `json:"description"`
	SettledAt    time.Time       `json:"settled_at"`
}
