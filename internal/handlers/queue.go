package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/promptgate/promptgate/internal/middleware"
	"github.com/promptgate/promptgate/internal/models"
	"github.com/promptgate/promptgate/internal/services"
	"github.com/promptgate/promptgate/pkg/response"
)

// QueueHandler exposes the moderation queue to dashboard operators.
type QueueHandler struct {
	ledger     *services.Ledger
	moderation *services.Moderation
}

func NewQueueHandler(ledger *services.Ledger, moderation *services.Moderation) *QueueHandler {
	return &QueueHandler{ledger: ledger, moderation: moderation}
}

// Pending returns requests awaiting approval for a guild
// GET /api/guilds/:guild_id/queue
func (h *QueueHandler) Pending(c *gin.Context) {
	records, err := h.ledger.Pending(c.Param("guild_id"))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, records)
}

type resolvePayload struct {
	Decision    string `json:"decision" binding:"required"`
	ManualReply string `json:"manual_reply_content"`
	Reason      string `json:"reason"`
}

// Resolve applies an operator decision to a pending request
// POST /api/approvals/:id
func (h *QueueHandler) Resolve(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid request id")
		return
	}

	var req resolvePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	approver := middleware.GetUsername(c)
	ctx := c.Request.Context()

	var res *services.Resolution
	switch req.Decision {
	case models.DecisionGrok:
		res, err = h.moderation.ApproveViaAI(ctx, uint(id), approver)
	case models.DecisionManual:
		res, err = h.moderation.ApproveManually(ctx, uint(id), approver, req.ManualReply)
	case models.DecisionReject:
		res, err = h.moderation.Reject(ctx, uint(id), approver, req.Reason)
	default:
		response.BadRequest(c, "decision must be one of grok, manual, reject")
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, res)
}
