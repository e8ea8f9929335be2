package handlers

import (
	"gorm.io/gorm"

	"github.com/gin-gonic/gin"
	"github.com/promptgate/promptgate/internal/services"
	"github.com/promptgate/promptgate/pkg/logger"
	"github.com/promptgate/promptgate/pkg/response"
)

// AskHandler is the ingress for chat requests relayed by the bot shim.
type AskHandler struct {
	pipeline *services.Pipeline
	admins   *services.AdminSet
}

func NewAskHandler(db *gorm.DB, pipeline *services.Pipeline) *AskHandler {
	return &AskHandler{
		pipeline: pipeline,
		admins:   services.NewAdminSet(db),
	}
}

type askPayload struct {
	GuildID   string `json:"guild_id" binding:"required"`
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id" binding:"required"`
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
}

// Ask runs a chat request through the admission pipeline
// POST /api/ask
func (h *AskHandler) Ask(c *gin.Context) {
	var req askPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	isAdmin, err := h.admins.IsAdmin(req.UserID, req.GuildID)
	if err != nil {
		logger.Error().Err(err).Str("user_id", req.UserID).Msg("admin lookup failed")
		isAdmin = false
	}

	result, err := h.pipeline.Process(c.Request.Context(), &services.AskRequest{
		GuildID:           req.GuildID,
		ChannelID:         req.ChannelID,
		UserID:            req.UserID,
		ExternalMessageID: req.MessageID,
		Content:           req.Content,
		IsAdmin:           isAdmin,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
