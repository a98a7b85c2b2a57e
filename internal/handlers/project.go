package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/openkanban/taskboard/internal/config"
	"github.com/openkanban/taskboard/internal/middleware"
	"github.com/openkanban/taskboard/internal/services"
	"github.com/openkanban/taskboard/pkg/response"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	projectService *services.ProjectService
	taskService    *services.TaskService
}

func NewProjectHandler(db *gorm.DB, serverCfg *config.ServerConfig, uploads *services.UploadService) *ProjectHandler {
	return &ProjectHandler{
		projectService: services.NewProjectService(db, serverCfg),
		taskService:    services.NewTaskService(db, uploads),
	}
}

// List returns the caller's projects
// GET /api/project
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projectService.ListForUser(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, projects)
}

// Get returns one project with members and board
// GET /api/project/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id", "invalid project id")
	if err != nil {
		return
	}

	project, err := h.projectService.Get(id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// Create creates a project with its default sections
// POST /api/project
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Create(&req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// Update edits project name or description
// PUT /api/project/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id", "invalid project id")
	if err != nil {
		return
	}

	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Update(id, middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// Delete removes a project and everything under it
// DELETE /api/project/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id", "invalid project id")
	if err != nil {
		return
	}

	attachments, err := h.projectService.Delete(id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.taskService.RemoveStoredFiles(attachments)
	response.Success(c, gin.H{"deleted": true})
}

// AddMember adds an existing user to the project
// POST /api/project/:id/members
func (h *ProjectHandler) AddMember(c *gin.Context) {
	id, err := parseID(c, "id", "invalid project id")
	if err != nil {
		return
	}

	var req services.MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.AddMember(id, middleware.GetUserID(c), req.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// RemoveMember removes a user from the project
// DELETE /api/project/:id/members
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	id, err := parseID(c, "id", "invalid project id")
	if err != nil {
		return
	}

	var req services.MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.RemoveMember(id, middleware.GetUserID(c), req.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// Invite adds a user by email or mails a signup invitation
// POST /api/project/:id/invite
func (h *ProjectHandler) Invite(c *gin.Context) {
	id, err := parseID(c, "id", "invalid project id")
	if err != nil {
		return
	}

	var req services.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.projectService.Invite(id, middleware.GetUserID(c), req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.InviteSent {
		response.Accepted(c, result)
		return
	}
	response.Success(c, result)
}

// parseID reads a numeric path parameter, writing a 400 itself on failure.
func parseID(c *gin.Context, name, msg string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		response.BadRequest(c, msg)
		return 0, err
	}
	return uint(id), nil
}
