package models

import (
	"time"

	"gorm.io/gorm"
)

// Project is a shared workspace. Membership lives in project_members; the
// creator is always a member and cannot be removed. Sections are owned by
// the project and enumerated by an indexed query ordered by created_at.
type Project struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:200;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedBy   uint           `gorm:"index;not null" json:"created_by"`
	Creator     *User          `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Members     []User         `gorm:"-" json:"members,omitempty"`
	Sections    []Section      `gorm:"-" json:"sections,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Project) TableName() string { return "projects" }
