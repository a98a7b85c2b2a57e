package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Task statuses. Status is derived from the owning section's name on create
// and on every move; direct updates may set it freely.
const (
	StatusToDo       = "To Do"
	StatusInProgress = "In Progress"
	StatusDone       = "Done"
)

// DeriveStatus maps a section name to a task status. It is the single
// source of truth for both the create and move paths.
func DeriveStatus(sectionName string) string {
	name := strings.ToLower(sectionName)
	switch {
	case strings.Contains(name, "progress"):
		return StatusInProgress
	case strings.Contains(name, "done"), strings.Contains(name, "complete"):
		return StatusDone
	default:
		return StatusToDo
	}
}

// Task is a unit of work. ProjectID is denormalized from the owning section
// at creation so the membership guard can resolve it in one hop. Assignee is
// a free-text name or email, not a foreign key.
type Task struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:200;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	DueDate     *time.Time     `json:"due_date"`
	Assignee    string         `gorm:"size:255" json:"assignee"`
	Status      string         `gorm:"size:50;default:'To Do'" json:"status"`
	ProjectID   uint           `gorm:"index;not null" json:"project_id"`
	SectionID   uint           `gorm:"index;not null" json:"section_id"`
	Attachments []Attachment   `gorm:"foreignKey:TaskID" json:"attachments,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Task) TableName() string { return "tasks" }
