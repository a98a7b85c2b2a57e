package services

import (
	"fmt"
	"net/url"
	"time"

	"github.com/openkanban/taskboard/internal/config"
	"github.com/openkanban/taskboard/internal/models"
	"github.com/openkanban/taskboard/pkg/response"
	"gorm.io/gorm"
)

// defaultSectionNames are provisioned, in order, for every new project.
var defaultSectionNames = []string{"To Do", "In Progress", "Done"}

type ProjectService struct {
	db         *gorm.DB
	membership *MembershipService
	serverCfg  *config.ServerConfig
}

func NewProjectService(db *gorm.DB, serverCfg *config.ServerConfig) *ProjectService {
	return &ProjectService{
		db:         db,
		membership: NewMembershipService(db),
		serverCfg:  serverCfg,
	}
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Members     []uint `json:"members"`
}

type UpdateProjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type MemberRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

type InviteRequest struct {
	Email string `json:"email" binding:"required"`
}

// Create provisions a project with the creator among its members and the
// three default sections in board order. Section created_at values are
// staggered by a second because section order is creation-time order.
func (s *ProjectService) Create(req *CreateProjectRequest, creatorID uint) (*models.Project, error) {
	memberIDs := dedupeMembers(creatorID, req.Members)

	project := models.Project{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   creatorID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		for _, userID := range memberIDs {
			member := models.ProjectMember{ProjectID: project.ID, UserID: userID}
			if err := tx.Create(&member).Error; err != nil {
				return err
			}
		}

		base := time.Now()
		for i, name := range defaultSectionNames {
			section := models.Section{
				Name:      name,
				ProjectID: project.ID,
				TaskIDs:   models.IDList{},
				CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
			}
			if err := tx.Create(&section).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.loadProject(project.ID, true)
}

// ListForUser returns the projects the actor belongs to, newest first,
// with members, creator and populated sections.
func (s *ProjectService) ListForUser(userID uint) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.
		Joins("JOIN project_members ON project_members.project_id = projects.id").
		Where("project_members.user_id = ?", userID).
		Preload("Creator").
		Order("projects.created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}

	for i := range projects {
		if err := s.populate(&projects[i], true); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

// Get returns a single project for a member.
func (s *ProjectService) Get(projectID, actorID uint) (*models.Project, error) {
	if _, err := s.membership.CheckMembership(actorID, projectID); err != nil {
		return nil, err
	}
	return s.loadProject(projectID, true)
}

// Update applies a partial update; any member may edit.
func (s *ProjectService) Update(projectID, actorID uint, req *UpdateProjectRequest) (*models.Project, error) {
	project, err := s.membership.CheckMembership(actorID, projectID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		project.Name = req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}

	if err := s.db.Save(project).Error; err != nil {
		return nil, err
	}

	return s.loadProject(projectID, true)
}

// Delete removes the project and everything it owns. Creator-only. Order
// matters: tasks, then sections, then membership, then the project, so an
// interruption cannot orphan tasks behind a deleted section. Returns the
// attachments whose stored files the caller should clean up.
func (s *ProjectService) Delete(projectID, actorID uint) ([]models.Attachment, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}

	if project.CreatedBy != actorID {
		return nil, response.NewForbidden("only the project creator can delete the project")
	}

	var attachments []models.Attachment
	if err := s.db.
		Joins("JOIN tasks ON tasks.id = attachments.task_id").
		Where("tasks.project_id = ?", projectID).
		Find(&attachments).Error; err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var sectionIDs []uint
		if err := tx.Model(&models.Section{}).
			Where("project_id = ?", projectID).
			Pluck("id", &sectionIDs).Error; err != nil {
			return err
		}

		var taskIDs []uint
		if err := tx.Model(&models.Task{}).
			Where("project_id = ?", projectID).
			Pluck("id", &taskIDs).Error; err != nil {
			return err
		}

		if len(taskIDs) > 0 {
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.Attachment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", taskIDs).Delete(&models.Task{}).Error; err != nil {
				return err
			}
		}

		if len(sectionIDs) > 0 {
			if err := tx.Where("id IN ?", sectionIDs).Delete(&models.Section{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Project{}, projectID).Error
	})
	if err != nil {
		return nil, err
	}
	return attachments, nil
}

// AddMember adds a user to the project. Any member may add; the target must
// exist and not already be a member.
func (s *ProjectService) AddMember(projectID, actorID, targetID uint) (*models.Project, error) {
	if _, err := s.membership.CheckMembership(actorID, projectID); err != nil {
		return nil, err
	}

	var userCount int64
	if err := s.db.Model(&models.User{}).Where("id = ?", targetID).Count(&userCount).Error; err != nil {
		return nil, err
	}
	if userCount == 0 {
		return nil, response.NewNotFound("user not found")
	}

	already, err := s.membership.IsMember(targetID, projectID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, response.NewBadRequest("user is already a member of this project")
	}

	member := models.ProjectMember{ProjectID: projectID, UserID: targetID}
	if err := s.db.Create(&member).Error; err != nil {
		return nil, err
	}

	return s.loadProject(projectID, false)
}

// RemoveMember removes a user. Only the creator may remove others; anyone
// may remove themselves; the creator is never removable.
func (s *ProjectService) RemoveMember(projectID, actorID, targetID uint) (*models.Project, error) {
	project, err := s.membership.CheckMembership(actorID, projectID)
	if err != nil {
		return nil, err
	}

	if project.CreatedBy != actorID && targetID != actorID {
		return nil, response.NewForbidden("only the project creator can remove members")
	}
	if project.CreatedBy == targetID {
		return nil, response.NewBadRequest("cannot remove the project creator")
	}

	if err := s.db.
		Where("project_id = ? AND user_id = ?", projectID, targetID).
		Delete(&models.ProjectMember{}).Error; err != nil {
		return nil, err
	}

	return s.loadProject(projectID, false)
}

// InviteResult distinguishes the three invite outcomes.
type InviteResult struct {
	Project       *models.Project `json:"project,omitempty"`
	AlreadyMember bool            `json:"already_member,omitempty"`
	InviteSent    bool            `json:"invite_sent,omitempty"`
}

// Invite adds an existing user by email, or sends a signup invitation to an
// unknown address. Adding is idempotent; delivery failure never surfaces.
func (s *ProjectService) Invite(projectID, actorID uint, email string) (*InviteResult, error) {
	if !IsEmailShaped(email) {
		return nil, response.NewBadRequest("valid email is required")
	}

	project, err := s.membership.CheckMembership(actorID, projectID)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.db.Where("email = ?", email).First(&user).Error
	if err == nil {
		already, err := s.membership.IsMember(user.ID, projectID)
		if err != nil {
			return nil, err
		}
		if already {
			return &InviteResult{AlreadyMember: true}, nil
		}

		member := models.ProjectMember{ProjectID: projectID, UserID: user.ID}
		if err := s.db.Create(&member).Error; err != nil {
			return nil, err
		}

		loaded, err := s.loadProject(projectID, false)
		if err != nil {
			return nil, err
		}
		return &InviteResult{Project: loaded}, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	// Unknown address: send a signup link carrying the invited email and
	// project id. Fire-and-forget.
	frontend := s.serverCfg.FrontendURL
	if frontend == "" {
		frontend = "http://localhost:3000"
	}
	signupURL := fmt.Sprintf("%s/signup?email=%s&project=%d", frontend, url.QueryEscape(email), projectID)

	if queue := GetMailQueue(); queue != nil {
		queue.Enqueue(&MailMessage{
			To:      email,
			Subject: fmt.Sprintf("Invitation to join project: %s", project.Name),
			Text:    fmt.Sprintf("You have been invited to join the project %q. Create your account here: %s", project.Name, signupURL),
			HTML: fmt.Sprintf("<p>You have been invited to join the project <strong>%s</strong>.</p><p><a href=%q>Click here to create your account and join</a></p>",
				project.Name, signupURL),
		})
	}

	return &InviteResult{InviteSent: true}, nil
}

// loadProject reads a project with creator, members and (optionally)
// sections with their tasks populated.
func (s *ProjectService) loadProject(projectID uint, withSections bool) (*models.Project, error) {
	var project models.Project
	if err := s.db.Preload("Creator").First(&project, projectID).Error; err != nil {
		return nil, err
	}
	if err := s.populate(&project, withSections); err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *ProjectService) populate(project *models.Project, withSections bool) error {
	var members []models.User
	if err := s.db.
		Joins("JOIN project_members ON project_members.user_id = users.id").
		Where("project_members.project_id = ?", project.ID).
		Order("project_members.created_at ASC").
		Find(&members).Error; err != nil {
		return err
	}
	project.Members = members

	if !withSections {
		return nil
	}

	sections, err := loadSectionsWithTasks(s.db, project.ID)
	if err != nil {
		return err
	}
	project.Sections = sections
	return nil
}

// dedupeMembers normalizes a member list so it contains the creator exactly
// once and no duplicates, preserving the given order otherwise.
func dedupeMembers(creatorID uint, members []uint) []uint {
	seen := map[uint]bool{creatorID: true}
	out := []uint{creatorID}
	for _, id := range members {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
