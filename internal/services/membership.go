package services

import (
	"errors"

	"github.com/openkanban/taskboard/internal/models"
	"github.com/openkanban/taskboard/pkg/response"
	"gorm.io/gorm"
)

// MembershipService is the guard every project-scoped read and write goes
// through. It fails closed: a missing task, section or project resolves to
// not found, a resolvable project without the actor among its members to
// forbidden. Callers rely on that 404 vs 403 distinction.
type MembershipService struct {
	db *gorm.DB
}

func NewMembershipService(db *gorm.DB) *MembershipService {
	return &MembershipService{db: db}
}

// CheckMembership loads the project and verifies the actor is a member.
func (s *MembershipService) CheckMembership(actorID, projectID uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, actorID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, response.NewForbidden("access denied: you are not a member of this project")
	}

	return &project, nil
}

// IsMember reports membership without loading the project.
func (s *MembershipService) IsMember(userID, projectID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}

// ResolveProjectForTask walks task -> (section ->) project. The section hop
// only happens when the task's denormalized project id is absent.
func (s *MembershipService) ResolveProjectForTask(taskID uint) (*models.Task, uint, error) {
	var task models.Task
	if err := s.db.First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, response.NewNotFound("task not found")
		}
		return nil, 0, err
	}

	projectID := task.ProjectID
	if projectID == 0 {
		var section models.Section
		if err := s.db.First(&section, task.SectionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, response.NewNotFound("project not found for task")
			}
			return nil, 0, err
		}
		projectID = section.ProjectID
	}
	if projectID == 0 {
		return nil, 0, response.NewNotFound("project not found for task")
	}

	return &task, projectID, nil
}

// RequireMemberByTask resolves the task's project and checks membership in
// one step. Attachment, comment and activity reads all start here.
func (s *MembershipService) RequireMemberByTask(actorID, taskID uint) (*models.Task, *models.Project, error) {
	task, projectID, err := s.ResolveProjectForTask(taskID)
	if err != nil {
		return nil, nil, err
	}

	project, err := s.CheckMembership(actorID, projectID)
	if err != nil {
		return nil, nil, err
	}

	return task, project, nil
}

// RequireMemberBySection resolves the section's project and checks
// membership.
func (s *MembershipService) RequireMemberBySection(actorID, sectionID uint) (*models.Section, *models.Project, error) {
	var section models.Section
	if err := s.db.First(&section, sectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, response.NewNotFound("section not found")
		}
		return nil, nil, err
	}

	project, err := s.CheckMembership(actorID, section.ProjectID)
	if err != nil {
		return nil, nil, err
	}

	return &section, project, nil
}
