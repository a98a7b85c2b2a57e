package models

import "time"

// Section is a named column within a project. Sections sort by created_at;
// inserting after a sibling is done by synthesizing a created_at between the
// sibling's and its successor's. TaskIDs keeps the board order of the owned
// tasks and must stay consistent with each task's SectionID.
type Section struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	ProjectID uint      `gorm:"index;not null" json:"project_id"`
	TaskIDs   IDList    `gorm:"type:text" json:"task_ids"`
	Tasks     []Task    `gorm:"-" json:"tasks,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Section) TableName() string { return "sections" }
