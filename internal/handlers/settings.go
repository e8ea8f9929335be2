package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/promptgate/promptgate/internal/config"
	"github.com/promptgate/promptgate/pkg/logger"
	"github.com/promptgate/promptgate/pkg/response"
)

// SettingsHandler exposes the canned-message catalog for editing.
type SettingsHandler struct {
	cfg *config.Config
}

func NewSettingsHandler(cfg *config.Config) *SettingsHandler {
	return &SettingsHandler{cfg: cfg}
}

// GetMessages returns the effective canned-message catalog
// GET /api/settings/messages
func (h *SettingsHandler) GetMessages(c *gin.Context) {
	response.Success(c, h.cfg.AllMessages())
}

// UpdateMessages overrides catalog entries and persists the config file
// PUT /api/settings/messages
func (h *SettingsHandler) UpdateMessages(c *gin.Context) {
	var updates map[string]string
	if err := c.ShouldBindJSON(&updates); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	h.cfg.SetMessages(updates)

	if err := h.cfg.Save(); err != nil {
		logger.Error().Err(err).Msg("failed to persist config")
		response.ServerError(c, "failed to persist config")
		return
	}

	response.Success(c, h.cfg.AllMessages())
}
