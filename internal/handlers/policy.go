package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/promptgate/promptgate/internal/services"
	"github.com/promptgate/promptgate/pkg/response"
)

type PolicyHandler struct {
	policies *services.PolicyStore
}

func NewPolicyHandler(policies *services.PolicyStore) *PolicyHandler {
	return &PolicyHandler{policies: policies}
}

// ListGuilds returns guild IDs with a stored policy
// GET /api/guilds
func (h *PolicyHandler) ListGuilds(c *gin.Context) {
	guilds, err := h.policies.ListGuilds()
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, guilds)
}

// Get returns the effective policy for a guild
// GET /api/guilds/:guild_id/policy
func (h *PolicyHandler) Get(c *gin.Context) {
	policy, err := h.policies.Get(c.Param("guild_id"))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, policy)
}

// Update applies a partial policy update for a guild
// PUT /api/guilds/:guild_id/policy
func (h *PolicyHandler) Update(c *gin.Context) {
	var upd services.PolicyUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	policy, err := h.policies.Update(c.Param("guild_id"), &upd)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, policy)
}
