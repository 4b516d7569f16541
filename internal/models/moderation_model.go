package models

import "time"

type SubjectType string

const (
	SubjectBlog   SubjectType = "blog"
	SubjectReview SubjectType = "review"
)

// ModerationEvent records one applied moderation transition.
type ModerationEvent struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	SubjectType SubjectType `gorm:"size:20;index:idx_moderation_subject" json:"subject_type"`
	SubjectID   uint        `gorm:"index:idx_moderation_subject" json:"subject_id"`
	Action      string      `gorm:"size:50" json:"action"`
	ActorID     uint        `json:"actor_id"`
	Reason      string      `gorm:"size:50" json:"reason,omitempty"`
	Details     string      `gorm:"type:text" json:"details,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}
