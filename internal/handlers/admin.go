package handlers

import (
	"gorm.io/gorm"

	"github.com/gin-gonic/gin"
	"github.com/promptgate/promptgate/internal/services"
	"github.com/promptgate/promptgate/pkg/response"
)

// AdminHandler manages the per-guild admin roster.
type AdminHandler struct {
	admins *services.AdminSet
}

func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{admins: services.NewAdminSet(db)}
}

// List returns the admin roster for a guild
// GET /api/guilds/:guild_id/admins
func (h *AdminHandler) List(c *gin.Context) {
	users, err := h.admins.List(c.Param("guild_id"))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, users)
}

type adminPayload struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role"`
}

// Add registers a guild admin; adding an existing admin is a no-op
// POST /api/guilds/:guild_id/admins
func (h *AdminHandler) Add(c *gin.Context) {
	var req adminPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.admins.Add(req.UserID, c.Param("guild_id"), req.Role); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"message": "admin added"})
}

// Remove deletes a guild admin
// DELETE /api/guilds/:guild_id/admins/:user_id
func (h *AdminHandler) Remove(c *gin.Context) {
	if err := h.admins.Remove(c.Param("user_id"), c.Param("guild_id")); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"message": "admin removed"})
}
