package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/promptgate/promptgate/internal/services"
	"github.com/promptgate/promptgate/pkg/response"
)

// HistoryHandler exposes the request ledger for dashboard review.
type HistoryHandler struct {
	ledger *services.Ledger
}

func NewHistoryHandler(ledger *services.Ledger) *HistoryHandler {
	return &HistoryHandler{ledger: ledger}
}

// List returns recent requests for a guild, newest first
// GET /api/guilds/:guild_id/requests
func (h *HistoryHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	records, err := h.ledger.History(c.Param("guild_id"), limit, c.Query("status"), c.Query("kind"))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, records)
}

// GetByID returns a single request record
// GET /api/requests/:id
func (h *HistoryHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid request id")
		return
	}

	rec, err := h.ledger.GetRequest(uint(id))
	if err != nil {
		response.NotFound(c, "request not found")
		return
	}

	response.Success(c, rec)
}

// Analytics returns per-status counts and token/cost totals for a guild
// GET /api/guilds/:guild_id/analytics
func (h *HistoryHandler) Analytics(c *gin.Context) {
	stats, err := h.ledger.Analytics(c.Param("guild_id"))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, stats)
}

// Usage returns today's token usage for a user within a guild
// GET /api/guilds/:guild_id/usage/:user_id
func (h *HistoryHandler) Usage(c *gin.Context) {
	snap, err := h.ledger.GetUsage(c.Param("guild_id"), c.Param("user_id"))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, snap)
}

// GuildUsage returns today's token usage for the guild as a whole
// GET /api/guilds/:guild_id/usage
func (h *HistoryHandler) GuildUsage(c *gin.Context) {
	snap, err := h.ledger.GetUsage(c.Param("guild_id"), "")
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, snap)
}
