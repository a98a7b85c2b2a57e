package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/openkanban/taskboard/internal/middleware"
	"github.com/openkanban/taskboard/internal/services"
	"github.com/openkanban/taskboard/pkg/response"
	"gorm.io/gorm"
)

type SectionHandler struct {
	sectionService *services.SectionService
	taskService    *services.TaskService
}

func NewSectionHandler(db *gorm.DB, uploads *services.UploadService) *SectionHandler {
	return &SectionHandler{
		sectionService: services.NewSectionService(db),
		taskService:    services.NewTaskService(db, uploads),
	}
}

// List returns a project's sections in board order
// GET /api/section?projectId=N
func (h *SectionHandler) List(c *gin.Context) {
	projectID, _ := strconv.ParseUint(c.Query("projectId"), 10, 32)

	sections, err := h.sectionService.List(uint(projectID), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sections)
}

// Create adds a section, optionally right after a sibling
// POST /api/section
func (h *SectionHandler) Create(c *gin.Context) {
	var req services.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	section, err := h.sectionService.Create(&req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

// Update renames a section. Task statuses are not re-derived.
// PUT /api/section/:id
func (h *SectionHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id", "invalid section id")
	if err != nil {
		return
	}

	var req services.UpdateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	section, err := h.sectionService.Update(id, middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, section)
}

// Delete removes a section and its tasks
// DELETE /api/section/:id
func (h *SectionHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id", "invalid section id")
	if err != nil {
		return
	}

	attachments, err := h.sectionService.Delete(id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.taskService.RemoveStoredFiles(attachments)
	response.Success(c, gin.H{"deleted": true})
}
