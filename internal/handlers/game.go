package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mikiasyonas/casino-rounds/internal/models"
	"github.com/mikiasyonas/casino-rounds/internal/services"
)

type GameHandler struct {
	roulette *services.RouletteService
	slots    *services.SlotService
	wallet   *services.WalletService
}

func NewGameHandler(roulette *services.RouletteService, slots *services.SlotService, wallet *services.WalletService) *GameHandler {
	return &GameHandler{
		roulette: roulette,
		slots:    slots,
		wallet:   wallet,
	}
}

func (h *GameHandler) SpinRoulette(c *gin.Context) {
	var req models.RouletteSpinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	outcome, err := h.roulette.Spin(c.Request.Context(), c.GetInt64("user_id"), req.Bets, req.NumbersBet)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "result": outcome})
}

func (h *GameHandler) SpinSlots(c *gin.Context) {
	var req models.SlotSpinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	outcome, err := h.slots.Spin(c.Request.Context(), c.GetInt64("user_id"), req.Bet)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "result": outcome})
}

func (h *GameHandler) GetGameHistory(c *gin.Context) {
	history, err := h.wallet.History(c.Request.Context(), c.GetInt64("user_id"), limitParam(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"games":   history,
		"count":   len(history),
	})
}
