package models

import "time"

// ProjectMember links a user to a project. Rows are hard-deleted on removal
// so the composite unique index stays usable for re-adds.
type ProjectMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"uniqueIndex:idx_project_user;not null" json:"project_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_project_user;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProjectMember) TableName() string { return "project_members" }
