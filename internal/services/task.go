package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openkanban/taskboard/internal/models"
	"github.com/openkanban/taskboard/pkg/logger"
	"github.com/openkanban/taskboard/pkg/response"
	"gorm.io/gorm"
)

type TaskService struct {
	db         *gorm.DB
	membership *MembershipService
	activity   *ActivityService
	uploads    *UploadService
}

func NewTaskService(db *gorm.DB, uploads *UploadService) *TaskService {
	return &TaskService{
		db:         db,
		membership: NewMembershipService(db),
		activity:   NewActivityService(db),
		uploads:    uploads,
	}
}

type CreateTaskRequest struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Assignee    string     `json:"assignee"`
	SectionID   uint       `json:"section_id" binding:"required"`
	Status      string     `json:"status"`
}

type UpdateTaskRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Assignee    *string    `json:"assignee"`
	Status      *string    `json:"status"`
}

type MoveTaskRequest struct {
	TaskID               uint `json:"task_id" binding:"required"`
	SourceSectionID      uint `json:"source_section_id" binding:"required"`
	DestinationSectionID uint `json:"destination_section_id" binding:"required"`
}

// ListBySection returns a section's tasks in board order, for members.
func (s *TaskService) ListBySection(sectionID, actorID uint) ([]models.Task, error) {
	section, _, err := s.membership.RequireMemberBySection(actorID, sectionID)
	if err != nil {
		return nil, err
	}

	var tasks []models.Task
	if err := s.db.
		Where("section_id = ?", section.ID).
		Preload("Attachments").
		Find(&tasks).Error; err != nil {
		return nil, err
	}

	return orderTasks(section.TaskIDs, tasks), nil
}

// Create adds a task to a section. Status is derived from the section name
// unless the caller supplies one explicitly. The task id is appended to the
// section's ordered list in the same transaction.
func (s *TaskService) Create(req *CreateTaskRequest, actorID uint) (*models.Task, error) {
	section, _, err := s.membership.RequireMemberBySection(actorID, req.SectionID)
	if err != nil {
		return nil, err
	}
	if section.ProjectID == 0 {
		return nil, response.NewBadRequest("section must belong to a project")
	}

	status := req.Status
	if status == "" {
		status = models.DeriveStatus(section.Name)
	}

	task := models.Task{
		Name:        req.Name,
		Description: req.Description,
		DueDate:     req.DueDate,
		Assignee:    strings.TrimSpace(req.Assignee),
		Status:      status,
		ProjectID:   section.ProjectID,
		SectionID:   section.ID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&task).Error; err != nil {
			return err
		}
		section.TaskIDs = append(section.TaskIDs, task.ID)
		return tx.Model(&models.Section{}).
			Where("id = ?", section.ID).
			Update("task_ids", section.TaskIDs).Error
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record("task", task.ID, "created", actorID, map[string]interface{}{
		"name": task.Name, "section_id": section.ID,
	})
	s.notifyAssignee(&task)

	return &task, nil
}

// Update applies a partial update. Unlike Move, status set here is taken
// as-is and not re-derived.
func (s *TaskService) Update(taskID, actorID uint, req *UpdateTaskRequest) (*models.Task, error) {
	task, _, err := s.membership.RequireMemberByTask(actorID, taskID)
	if err != nil {
		return nil, err
	}

	prevAssignee := task.Assignee

	if req.Name != nil {
		task.Name = *req.Name
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.Assignee != nil {
		task.Assignee = strings.TrimSpace(*req.Assignee)
	}
	if req.Status != nil {
		task.Status = *req.Status
	}

	if err := s.db.Save(task).Error; err != nil {
		return nil, err
	}

	s.activity.Record("task", task.ID, "updated", actorID, nil)

	if task.Assignee != "" && task.Assignee != prevAssignee {
		s.notifyAssignee(task)
	}

	return task, nil
}

// Move relocates a task between two sections of the same project and
// re-derives its status from the destination's name, ignoring whatever was
// set before. The three writes (drop from the source list, re-point the
// task, append to the destination list) run inside one transaction so a
// failure cannot leave the task referenced by neither or both sections.
func (s *TaskService) Move(req *MoveTaskRequest, actorID uint) (*models.Task, error) {
	var source, destination models.Section
	if err := s.db.First(&source, req.SourceSectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("source or destination section not found")
		}
		return nil, err
	}
	if err := s.db.First(&destination, req.DestinationSectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("source or destination section not found")
		}
		return nil, err
	}

	if source.ProjectID != destination.ProjectID {
		return nil, response.NewBadRequest("cannot move task between different projects")
	}

	if _, err := s.membership.CheckMembership(actorID, source.ProjectID); err != nil {
		return nil, err
	}

	var task models.Task
	if err := s.db.First(&task, req.TaskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("task not found")
		}
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		source.TaskIDs = source.TaskIDs.Remove(task.ID)
		if err := tx.Model(&models.Section{}).
			Where("id = ?", source.ID).
			Update("task_ids", source.TaskIDs).Error; err != nil {
			return err
		}

		task.SectionID = destination.ID
		task.Status = models.DeriveStatus(destination.Name)
		if err := tx.Save(&task).Error; err != nil {
			return err
		}

		if !destination.TaskIDs.Contains(task.ID) {
			destination.TaskIDs = append(destination.TaskIDs, task.ID)
		}
		return tx.Model(&models.Section{}).
			Where("id = ?", destination.ID).
			Update("task_ids", destination.TaskIDs).Error
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record("task", task.ID, "moved", actorID, map[string]interface{}{
		"from_section": source.ID, "to_section": destination.ID, "status": task.Status,
	})

	return &task, nil
}

// Delete removes a task, its comments and attachments, and drops its id
// from the owning section's list. Stored files are removed best-effort
// after the rows are gone.
func (s *TaskService) Delete(taskID, actorID uint) error {
	task, _, err := s.membership.RequireMemberByTask(actorID, taskID)
	if err != nil {
		return err
	}

	var attachments []models.Attachment
	if err := s.db.Where("task_id = ?", task.ID).Find(&attachments).Error; err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var section models.Section
		if err := tx.First(&section, task.SectionID).Error; err == nil {
			section.TaskIDs = section.TaskIDs.Remove(task.ID)
			if err := tx.Model(&models.Section{}).
				Where("id = ?", section.ID).
				Update("task_ids", section.TaskIDs).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("task_id = ?", task.ID).Delete(&models.Attachment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", task.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Task{}, task.ID).Error
	})
	if err != nil {
		return err
	}

	s.removeStoredFiles(attachments)
	s.activity.Record("task", task.ID, "deleted", actorID, nil)
	return nil
}

// ListAttachments returns a task's attachments. Membership is re-checked
// here; attachment operations never inherit a cached permission check.
func (s *TaskService) ListAttachments(taskID, actorID uint) ([]models.Attachment, error) {
	task, _, err := s.membership.RequireMemberByTask(actorID, taskID)
	if err != nil {
		return nil, err
	}

	var attachments []models.Attachment
	err = s.db.Where("task_id = ?", task.ID).Order("created_at ASC").Find(&attachments).Error
	return attachments, err
}

// AddAttachment records metadata for an already-stored file.
func (s *TaskService) AddAttachment(taskID, actorID uint, stored *StoredFile) (*models.Attachment, error) {
	task, _, err := s.membership.RequireMemberByTask(actorID, taskID)
	if err != nil {
		return nil, err
	}

	attachment := models.Attachment{
		TaskID:       task.ID,
		OriginalName: stored.OriginalName,
		StoredName:   stored.StoredName,
		URL:          stored.URL,
		Size:         stored.Size,
		MimeType:     stored.MimeType,
		UploadedBy:   actorID,
	}
	if err := s.db.Create(&attachment).Error; err != nil {
		return nil, err
	}

	s.activity.Record("task", task.ID, "attachment_added", actorID, map[string]interface{}{
		"name": stored.OriginalName,
	})

	return &attachment, nil
}

// DeleteAttachment removes the metadata row and, best-effort, the stored
// file. The row goes away even when the file removal fails.
func (s *TaskService) DeleteAttachment(taskID, attachmentID, actorID uint) error {
	task, _, err := s.membership.RequireMemberByTask(actorID, taskID)
	if err != nil {
		return err
	}

	var attachment models.Attachment
	if err := s.db.
		Where("id = ? AND task_id = ?", attachmentID, task.ID).
		First(&attachment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("attachment not found")
		}
		return err
	}

	if err := s.uploads.Remove(attachment.StoredName); err != nil {
		logger.Warn().Err(err).Str("file", attachment.StoredName).Msg("failed to remove stored file")
	}

	if err := s.db.Delete(&models.Attachment{}, attachment.ID).Error; err != nil {
		return err
	}

	s.activity.Record("task", task.ID, "attachment_deleted", actorID, map[string]interface{}{
		"name": attachment.OriginalName,
	})

	return nil
}

// RemoveStoredFiles deletes the files behind the given attachments
// best-effort. Used after cascading deletes.
func (s *TaskService) RemoveStoredFiles(attachments []models.Attachment) {
	s.removeStoredFiles(attachments)
}

func (s *TaskService) removeStoredFiles(attachments []models.Attachment) {
	for _, att := range attachments {
		if err := s.uploads.Remove(att.StoredName); err != nil {
			logger.Warn().Err(err).Str("file", att.StoredName).Msg("failed to remove stored file")
		}
	}
}

// notifyAssignee sends a best-effort assignment mail when the assignee
// resolves to an address: the string itself when email-shaped, otherwise a
// known user's email looked up by name.
func (s *TaskService) notifyAssignee(task *models.Task) {
	to := s.resolveAssigneeEmail(task.Assignee)
	if to == "" {
		return
	}

	queue := GetMailQueue()
	if queue == nil {
		return
	}

	due := "-"
	if task.DueDate != nil {
		due = task.DueDate.Format("2006-01-02")
	}
	desc := task.Description
	if desc == "" {
		desc = "-"
	}

	queue.Enqueue(&MailMessage{
		To:      to,
		Subject: fmt.Sprintf("You have been assigned a task: %s", task.Name),
		Text:    fmt.Sprintf("You have been assigned to the task %q.\nDescription: %s\nDue: %s\n", task.Name, desc, due),
		HTML: fmt.Sprintf("<p>You have been assigned to the task <strong>%s</strong>.</p><p>Description: %s<br/>Due: %s</p>",
			task.Name, desc, due),
	})
}

func (s *TaskService) resolveAssigneeEmail(assignee string) string {
	if assignee == "" {
		return ""
	}
	if IsEmailShaped(assignee) {
		return assignee
	}

	var user models.User
	if err := s.db.Where("name = ?", assignee).First(&user).Error; err != nil {
		return ""
	}
	return user.Email
}
