package models

type UserProfile struct {
	ID        int64              `json:"id"`
	Wallet    BalanceResponse    `json:"wallet"`
	Blackjack *BlackjackSnapshot `json:"blackjack,omitempty"`
}
