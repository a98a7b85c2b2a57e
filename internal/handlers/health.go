package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/openkanban/taskboard/internal/models"
	"github.com/openkanban/taskboard/internal/services"
)

// HealthHandler reports the status of the service's subsystems.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of the database and mail queue.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	mailQueue := services.GetMailQueue()
	queueMode := "sync"
	if mailQueue != nil && mailQueue.IsAsync() {
		queueMode = "async (Redis)"
	}

	var userCount int64
	models.GetDB().Model(&models.User{}).Count(&userCount)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "taskboard",
		"components": gin.H{
			"database":   dbStatus,
			"queue_mode": queueMode,
			"users":      userCount,
		},
	})
}
