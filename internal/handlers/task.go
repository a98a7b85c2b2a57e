package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/openkanban/taskboard/internal/middleware"
	"github.com/openkanban/taskboard/internal/services"
	"github.com/openkanban/taskboard/pkg/response"
	"gorm.io/gorm"
)

type TaskHandler struct {
	taskService   *services.TaskService
	uploadService *services.UploadService
}

func NewTaskHandler(db *gorm.DB, uploads *services.UploadService) *TaskHandler {
	return &TaskHandler{
		taskService:   services.NewTaskService(db, uploads),
		uploadService: uploads,
	}
}

// ListBySection returns a section's tasks in board order
// GET /api/task/:id (id is the section id)
func (h *TaskHandler) ListBySection(c *gin.Context) {
	id, err := parseID(c, "id", "invalid section id")
	if err != nil {
		return
	}

	tasks, err := h.taskService.ListBySection(id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tasks)
}

// Create adds a task to a section
// POST /api/task
func (h *TaskHandler) Create(c *gin.Context) {
	var req services.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Create(&req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// Update applies a partial edit to a task
// PUT /api/task/:id
func (h *TaskHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id", "invalid task id")
	if err != nil {
		return
	}

	var req services.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Update(id, middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, task)
}

// Move relocates a task between sections of one project
// PATCH /api/task/move
func (h *TaskHandler) Move(c *gin.Context) {
	var req services.MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Move(&req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, task)
}

// Delete removes a task with its comments and attachments
// DELETE /api/task/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id", "invalid task id")
	if err != nil {
		return
	}

	if err := h.taskService.Delete(id, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// ListAttachments returns a task's attachments
// GET /api/task/:id/attachments
func (h *TaskHandler) ListAttachments(c *gin.Context) {
	id, err := parseID(c, "id", "invalid task id")
	if err != nil {
		return
	}

	attachments, err := h.taskService.ListAttachments(id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, attachments)
}

// AddAttachment stores an uploaded file and records it on the task
// POST /api/task/:id/attachments (multipart field "file")
func (h *TaskHandler) AddAttachment(c *gin.Context) {
	id, err := parseID(c, "id", "invalid task id")
	if err != nil {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.ServerError(c, "failed to read upload")
		return
	}
	defer f.Close()

	stored, err := h.uploadService.Save(f, fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		response.Error(c, err)
		return
	}

	attachment, err := h.taskService.AddAttachment(id, middleware.GetUserID(c), stored)
	if err != nil {
		// membership failed after the file was written; don't leak it
		h.uploadService.Remove(stored.StoredName)
		response.Error(c, err)
		return
	}
	response.Created(c, attachment)
}

// DeleteAttachment removes an attachment and its stored file
// DELETE /api/task/:id/attachments/:attachmentId
func (h *TaskHandler) DeleteAttachment(c *gin.Context) {
	id, err := parseID(c, "id", "invalid task id")
	if err != nil {
		return
	}
	attachmentID, err := parseID(c, "attachmentId", "invalid attachment id")
	if err != nil {
		return
	}

	if err := h.taskService.DeleteAttachment(id, attachmentID, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
