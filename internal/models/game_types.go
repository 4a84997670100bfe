package models

import "github.com/shopspring/decimal"

// RouletteBet uses the field names the table client sends.
type RouletteBet struct {
	Amount  int64  `json:"amt"`
	Type    string `json:"type"`
	Odds    int64  `json:"odds"`
	Numbers string `json:"numbers"`
}

type RouletteSpinRequest struct {
	Bets       []RouletteBet `json:"bets"`
	NumbersBet []int         `json:"numbers_bet"`
}

type RouletteOutcome struct {
	SpinID        string          `json:"spin_id"`
	WinningNumber int             `json:"winning_number"`
	Color         string          `json:"color"`
	Wagered       int64           `json:"wagered"`
	Winnings      int64           `json:"winnings"` // profit only
	Net           int64           `json:"net"`      // Winnings - Wagered
	Balance       decimal.Decimal `json:"balance"`
}

const (
	SymbolCherry = "🍒"
	SymbolLemon  = "🍋"
	SymbolGrape  = "🍇"
	SymbolBell   = "🔔"
	SymbolStar   = "⭐"
	SymbolSeven  = "7️⃣"
)

var SlotSymbols = []string{SymbolCherry, SymbolLemon, SymbolGrape, SymbolBell, SymbolStar, SymbolSeven}

type SlotGrid [3][3]string

type SlotSpinRequest struct {
	Bet int64 `json:"bet"`
}

type SlotLine struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Payout int64  `json:"payout"`
}

type SlotOutcome struct {
	SpinID  string          `json:"spin_id"`
	Grid    SlotGrid        `json:"grid"`
	Bet     int64           `json:"bet"`
	Lines   []SlotLine      `json:"lines"`
	Payout  int64           `json:"payout"`
	Net     int64           `json:"net"`
	Balance decimal.Decimal `json:"balance"`
}
