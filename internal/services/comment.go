package services

import (
	"errors"
	"strings"

	"github.com/openkanban/taskboard/internal/models"
	"github.com/openkanban/taskboard/pkg/response"
	"gorm.io/gorm"
)

type CommentService struct {
	db         *gorm.DB
	membership *MembershipService
	activity   *ActivityService
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{
		db:         db,
		membership: NewMembershipService(db),
		activity:   NewActivityService(db),
	}
}

type AddCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// Add creates a comment on a task. Text is trimmed and must not be blank.
func (s *CommentService) Add(taskID, actorID uint, req *AddCommentRequest) (*models.Comment, error) {
	task, _, err := s.membership.RequireMemberByTask(actorID, taskID)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, response.NewBadRequest("comment text is required")
	}

	comment := models.Comment{
		TaskID:   task.ID,
		AuthorID: actorID,
		Text:     text,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}

	s.db.Preload("Author").First(&comment, comment.ID)

	s.activity.Record("task", task.ID, "commented", actorID, nil)

	return &comment, nil
}

// List returns a task's comments oldest first, with authors resolved.
func (s *CommentService) List(taskID, actorID uint) ([]models.Comment, error) {
	task, _, err := s.membership.RequireMemberByTask(actorID, taskID)
	if err != nil {
		return nil, err
	}

	var comments []models.Comment
	err = s.db.
		Where("task_id = ?", task.ID).
		Preload("Author").
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

// Delete removes a comment. Only its author may do so, even when the
// caller is otherwise a member of the project.
func (s *CommentService) Delete(commentID, actorID uint) error {
	var comment models.Comment
	if err := s.db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("comment not found")
		}
		return err
	}

	task, _, err := s.membership.RequireMemberByTask(actorID, comment.TaskID)
	if err != nil {
		return err
	}

	if comment.AuthorID != actorID {
		return response.NewForbidden("only the comment author can delete it")
	}

	if err := s.db.Delete(&models.Comment{}, comment.ID).Error; err != nil {
		return err
	}

	s.activity.Record("task", task.ID, "comment_deleted", actorID, nil)
	return nil
}
