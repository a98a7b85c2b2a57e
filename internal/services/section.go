package services

import (
	"errors"
	"time"

	"github.com/openkanban/taskboard/internal/models"
	"github.com/openkanban/taskboard/pkg/response"
	"gorm.io/gorm"
)

type SectionService struct {
	db         *gorm.DB
	membership *MembershipService
}

func NewSectionService(db *gorm.DB) *SectionService {
	return &SectionService{
		db:         db,
		membership: NewMembershipService(db),
	}
}

type CreateSectionRequest struct {
	Name           string `json:"name" binding:"required"`
	ProjectID      uint   `json:"project_id"`
	AfterSectionID uint   `json:"after_section_id"`
}

type UpdateSectionRequest struct {
	Name string `json:"name" binding:"required"`
}

// List returns a project's sections in board order with tasks populated.
func (s *SectionService) List(projectID, actorID uint) ([]models.Section, error) {
	if projectID == 0 {
		return nil, response.NewBadRequest("project id is required")
	}
	if _, err := s.membership.CheckMembership(actorID, projectID); err != nil {
		return nil, err
	}
	return loadSectionsWithTasks(s.db, projectID)
}

// Create adds a section. Section order is creation-time order, so placing
// the new section right after a sibling means synthesizing a created_at
// between the sibling's and its successor's.
func (s *SectionService) Create(req *CreateSectionRequest, actorID uint) (*models.Section, error) {
	if req.ProjectID == 0 {
		return nil, response.NewBadRequest("project id is required")
	}
	if _, err := s.membership.CheckMembership(actorID, req.ProjectID); err != nil {
		return nil, err
	}

	createdAt := time.Now()
	placed := false
	if req.AfterSectionID != 0 {
		var sibling models.Section
		err := s.db.First(&sibling, req.AfterSectionID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// A missing or cross-project sibling falls through to a plain append.
		if err == nil && sibling.ProjectID == req.ProjectID {
			createdAt = sibling.CreatedAt.Add(time.Millisecond)
			var next models.Section
			err := s.db.
				Where("project_id = ? AND created_at > ?", sibling.ProjectID, sibling.CreatedAt).
				Order("created_at ASC").
				First(&next).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			if err == nil {
				createdAt = sibling.CreatedAt.Add(next.CreatedAt.Sub(sibling.CreatedAt) / 2)
			}
			placed = true
		}
	}
	if !placed {
		// Existing siblings may carry synthesized timestamps at or past
		// "now", so clamp to keep the new section last on the board.
		var last models.Section
		err := s.db.
			Where("project_id = ?", req.ProjectID).
			Order("created_at DESC").
			First(&last).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if err == nil && !last.CreatedAt.Before(createdAt) {
			createdAt = last.CreatedAt.Add(time.Millisecond)
		}
	}

	section := models.Section{
		Name:      req.Name,
		ProjectID: req.ProjectID,
		TaskIDs:   models.IDList{},
		CreatedAt: createdAt,
	}
	if err := s.db.Create(&section).Error; err != nil {
		return nil, err
	}

	section.Tasks = []models.Task{}
	return &section, nil
}

// Update renames a section; any project member may.
func (s *SectionService) Update(sectionID, actorID uint, req *UpdateSectionRequest) (*models.Section, error) {
	section, _, err := s.membership.RequireMemberBySection(actorID, sectionID)
	if err != nil {
		return nil, err
	}

	section.Name = req.Name
	if err := s.db.Save(section).Error; err != nil {
		return nil, err
	}
	return section, nil
}

// Delete removes a section and cascades to its tasks, their attachments and
// comments. Returns the removed attachments so the caller can clean up the
// stored files best-effort.
func (s *SectionService) Delete(sectionID, actorID uint) ([]models.Attachment, error) {
	section, _, err := s.membership.RequireMemberBySection(actorID, sectionID)
	if err != nil {
		return nil, err
	}

	var taskIDs []uint
	if err := s.db.Model(&models.Task{}).
		Where("section_id = ?", section.ID).
		Pluck("id", &taskIDs).Error; err != nil {
		return nil, err
	}

	var attachments []models.Attachment
	if len(taskIDs) > 0 {
		if err := s.db.Where("task_id IN ?", taskIDs).Find(&attachments).Error; err != nil {
			return nil, err
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(taskIDs) > 0 {
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.Attachment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("section_id = ?", section.ID).Delete(&models.Task{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Section{}, section.ID).Error
	})
	if err != nil {
		return nil, err
	}

	return attachments, nil
}

// loadSectionsWithTasks reads a project's sections in board order, each
// with its tasks arranged per the section's ordered id list. Tasks missing
// from the list (a consistency gap) are appended at the end rather than
// dropped.
func loadSectionsWithTasks(db *gorm.DB, projectID uint) ([]models.Section, error) {
	var sections []models.Section
	if err := db.
		Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Find(&sections).Error; err != nil {
		return nil, err
	}

	for i := range sections {
		var tasks []models.Task
		if err := db.
			Where("section_id = ?", sections[i].ID).
			Preload("Attachments").
			Find(&tasks).Error; err != nil {
			return nil, err
		}
		sections[i].Tasks = orderTasks(sections[i].TaskIDs, tasks)
	}

	return sections, nil
}

func orderTasks(order models.IDList, tasks []models.Task) []models.Task {
	byID := make(map[uint]models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	out := make([]models.Task, 0, len(tasks))
	for _, id := range order {
		if t, ok := byID[id]; ok {
			out = append(out, t)
			delete(byID, id)
		}
	}
	for _, t := range tasks {
		if _, ok := byID[t.ID]; ok {
			out = append(out, t)
		}
	}
	return out
}
