package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionKind string

const (
	TransactionKindDeposit    TransactionKind = "Deposit"
	TransactionKindWithdrawal TransactionKind = "Withdrawal"
	TransactionKindAdjustment TransactionKind = "Adjustment"
	TransactionKindBonus      TransactionKind = "Bonus"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "Pending"
	TransactionStatusCompleted TransactionStatus = "Completed"
)

type PaymentMethod string

const (
	MethodCard         PaymentMethod = "card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodBlackjack    PaymentMethod = "blackjack"
	MethodRoulette     PaymentMethod = "roulette"
	MethodSlots        PaymentMethod = "slots"
)

// Transaction is an append-only ledger row. Amount is the signed delta; a
// pending row does not move the balance.
type Transaction struct {
	ID           string            `json:"id"`
	UserID       int64             `json:"user_id"`
	Kind         TransactionKind   `json:"kind"`
	Amount       decimal.Decimal   `json:"amount"`
	BalanceAfter decimal.Decimal   `json:"balance_after"`
	Status       TransactionStatus `json:"status"`
	Method       PaymentMethod     `json:"method"`
	Reference    string            `json:"reference,omitempty"`
	Description  string            `json:"description"`
	CreatedAt    time.Time         `json:"created_at"`
}
