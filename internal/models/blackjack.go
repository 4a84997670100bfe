package models

import "github.com/shopspring/decimal"

type Phase string

const (
	PhaseBetting Phase = "BETTING"
	PhasePlayer  Phase = "PLAYER"
	PhaseEnd     Phase = "END"
)

type Action string

const (
	ActionBet      Action = "bet"
	ActionClearBet Action = "clear_bet"
	ActionDeal     Action = "deal"
	ActionHit      Action = "hit"
	ActionStand    Action = "stand"
	ActionDouble   Action = "double"
	ActionNewRound Action = "new_round"
)

type BlackjackSnapshot struct {
	RoundID        string          `json:"round_id,omitempty"`
	Player         []CardView      `json:"player"`
	Dealer         []CardView      `json:"dealer"`
	PlayerValue    int             `json:"player_value"`
	DealerValue    int             `json:"dealer_value"`
	Bet            int64           `json:"bet"`
	Bank           decimal.Decimal `json:"bank"`
	Phase          Phase           `json:"phase"`
	Message        string          `json:"message"`
	AllowedActions []Action        `json:"allowed_actions"`
	DealerHidden   bool            `json:"dealer_hidden"`
}

// Allows reports whether the snapshot lists the action as legal.
func (s *BlackjackSnapshot) Allows(action Action) bool {
	for _, a := range s.AllowedActions {
		if a == action {
			return true
		}
	}
	return false
}

type BetRequest struct {
	Amount int64 `json:"amount"`
}
