package models

import "time"

// Activity is an append-only audit record. Rows are written best-effort as a
// side effect of other operations and never mutated.
type Activity struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EntityType string    `gorm:"size:50;index:idx_entity;not null" json:"entity_type"` // task, project
	EntityID   uint      `gorm:"index:idx_entity;not null" json:"entity_id"`
	Action     string    `gorm:"size:100;not null" json:"action"`
	ActorID    uint      `gorm:"not null" json:"actor_id"`
	Actor      *User     `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	Metadata   string    `gorm:"type:text" json:"metadata"` // JSON extra data
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (Activity) TableName() string { return "activities" }
