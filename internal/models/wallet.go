package models

import "github.com/shopspring/decimal"

type BalanceResponse struct {
	Balance   decimal.Decimal `json:"balance"`
	AtStake   decimal.Decimal `json:"at_stake"`
	Available decimal.Decimal `json:"available"` // Balance - AtStake
}

type DepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method PaymentMethod   `json:"method"`
}

type WithdrawRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method PaymentMethod   `json:"method"`
}
