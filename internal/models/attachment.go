package models

import "time"

// Attachment is file metadata tied to a task. The stored file lives under
// the upload directory and is served at URL; deleting the attachment also
// removes the file best-effort.
type Attachment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TaskID       uint      `gorm:"index;not null" json:"task_id"`
	OriginalName string    `gorm:"size:255;not null" json:"original_name"`
	StoredName   string    `gorm:"size:255;not null" json:"stored_name"`
	URL          string    `gorm:"size:500;not null" json:"url"`
	Size         int64     `gorm:"not null" json:"size"`
	MimeType     string    `gorm:"size:100" json:"mime_type"`
	UploadedBy   uint      `gorm:"not null" json:"uploaded_by"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Attachment) TableName() string { return "attachments" }
