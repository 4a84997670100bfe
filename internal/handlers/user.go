package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mikiasyonas/casino-rounds/internal/models"
	"github.com/mikiasyonas/casino-rounds/internal/services"
)

type UserHandler struct {
	wallet    *services.WalletService
	blackjack *services.BlackjackEngine
}

func NewUserHandler(wallet *services.WalletService, blackjack *services.BlackjackEngine) *UserHandler {
	return &UserHandler{
		wallet:    wallet,
		blackjack: blackjack,
	}
}

// GetCurrentUser returns the wallet and the blackjack table. The first call
// for a user opens their zero balance.
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	userID := c.GetInt64("user_id")
	ctx := c.Request.Context()

	bal, err := h.wallet.Balance(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	snap, err := h.blackjack.State(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": models.UserProfile{
			ID:        userID,
			Wallet:    *bal,
			Blackjack: snap,
		},
		"session": gin.H{
			"session_id": c.GetString("session_id"),
		},
	})
}
