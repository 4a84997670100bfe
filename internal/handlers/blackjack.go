package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mikiasyonas/casino-rounds/internal/models"
	"github.com/mikiasyonas/casino-rounds/internal/services"
)

type BlackjackHandler struct {
	engine *services.BlackjackEngine
}

func NewBlackjackHandler(engine *services.BlackjackEngine) *BlackjackHandler {
	return &BlackjackHandler{engine: engine}
}

func (h *BlackjackHandler) GetState(c *gin.Context) {
	snap, err := h.engine.State(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "state": snap})
}

func (h *BlackjackHandler) PlaceBet(c *gin.Context) {
	var req models.BetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		badRequest(c, err)
		return
	}
	h.apply(c, models.ActionBet, req.Amount)
}

// Action serves the blackjack actions that take no body.
func (h *BlackjackHandler) Action(action models.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.apply(c, action, 0)
	}
}

func (h *BlackjackHandler) apply(c *gin.Context, action models.Action, amount int64) {
	snap, err := h.engine.Apply(c.Request.Context(), c.GetInt64("user_id"), action, amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "state": snap})
}
