package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/openkanban/taskboard/internal/middleware"
	"github.com/openkanban/taskboard/internal/services"
	"github.com/openkanban/taskboard/pkg/response"
	"gorm.io/gorm"
)

type ActivityHandler struct {
	activityService *services.ActivityService
}

func NewActivityHandler(db *gorm.DB) *ActivityHandler {
	return &ActivityHandler{activityService: services.NewActivityService(db)}
}

// ListByTask returns a task's activity log, newest first
// GET /api/activity/task/:taskId
func (h *ActivityHandler) ListByTask(c *gin.Context) {
	id, err := parseID(c, "taskId", "invalid task id")
	if err != nil {
		return
	}

	activities, err := h.activityService.ListByTask(middleware.GetUserID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, activities)
}
