package handlers

import (
	"gorm.io/gorm"

	"github.com/gin-gonic/gin"
	"github.com/promptgate/promptgate/internal/models"
)

// HealthHandler provides the health check endpoint.
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	var pendingCount int64
	h.db.Model(&models.RequestRecord{}).
		Where("status = ?", models.StatusPendingApproval).
		Count(&pendingCount)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "promptgate",
		"components": gin.H{
			"database":         dbStatus,
			"pending_requests": pendingCount,
		},
	})
}
