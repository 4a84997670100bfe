package services

import (
	"github.com/shopspring/decimal"

	"github.com/mikiasyonas/casino-rounds/internal/models"
)

// Broadcaster pushes settled state to a user's open connections. Calls must
// not block the round that triggered them.
type Broadcaster interface {
	BroadcastRound(userID int64, game models.GameType, payload any)
	BroadcastBalance(userID int64, balance decimal.Decimal)
}

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastRound(int64, models.GameType, any) {}
func (nopBroadcaster) BroadcastBalance(int64, decimal.Decimal)    {}
