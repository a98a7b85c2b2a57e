package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/openkanban/taskboard/internal/middleware"
	"github.com/openkanban/taskboard/internal/services"
	"github.com/openkanban/taskboard/pkg/response"
	"gorm.io/gorm"
)

type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(db *gorm.DB) *CommentHandler {
	return &CommentHandler{commentService: services.NewCommentService(db)}
}

// List returns a task's comments oldest first
// GET /api/task/:id/comments
func (h *CommentHandler) List(c *gin.Context) {
	id, err := parseID(c, "id", "invalid task id")
	if err != nil {
		return
	}

	comments, err := h.commentService.List(id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, comments)
}

// Add posts a comment on a task
// POST /api/task/:id/comments
func (h *CommentHandler) Add(c *gin.Context) {
	id, err := parseID(c, "id", "invalid task id")
	if err != nil {
		return
	}

	var req services.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	comment, err := h.commentService.Add(id, middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

// Delete removes a comment, author-only
// DELETE /api/comments/:commentId
func (h *CommentHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "commentId", "invalid comment id")
	if err != nil {
		return
	}

	if err := h.commentService.Delete(id, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
